package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/wallet-profiles/internal/screen"
	"github.com/wallet-profiles/internal/types"
)

// shortAddress renders 0x1234...abcd
func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

type pageData struct {
	View       screen.View
	Toasts     []Toast
	SocialOpts []socialOption
}

type socialOption struct {
	Value    types.SocialType
	Label    string
	Selected bool
}

// session returns the caller's session, starting one when the cookie is
// missing or expired
func (s *Server) session(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(s.config.CookieName); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess
		}
	}

	sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) apiContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.config.RequestTimeout)
}

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	view := sess.Screen.View()

	data := pageData{View: view, Toasts: sess.Toasts()}
	for _, t := range []types.SocialType{types.SocialTwitter, types.SocialFarcaster} {
		data.SocialOpts = append(data.SocialOpts, socialOption{
			Value:    t,
			Label:    t.Label(),
			Selected: view.SocialType == t,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.tmpl.ExecuteTemplate(w, "profile.html", data); err != nil {
		s.logger.WithError(err).Error("Failed to render profile page")
	}
}

// handleConnect handles POST /connect
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	ctx, cancel := s.apiContext(r)
	defer cancel()

	// load failures are reported through the session's toasts
	if err := sess.Screen.Connect(ctx, r.FormValue("address")); err != nil && !errors.Is(err, screen.ErrSuperseded) {
		s.logger.WithError(err).WithField("session", sess.ID).Debug("Connect did not load a profile")
	}
	s.redirectHome(w, r)
}

// handleDisconnect handles POST /disconnect
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).Screen.Disconnect()
	s.redirectHome(w, r)
}

// handleSocial handles POST /social
func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.applySocial(sess, r)
	s.redirectHome(w, r)
}

// handleRisk handles POST /risk
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.applyRisk(sess, r)
	s.redirectHome(w, r)
}

// handleSubmit handles POST /submit. The posted form carries every field,
// so the values are applied before saving.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	s.applySocial(sess, r)
	s.applyRisk(sess, r)

	ctx, cancel := s.apiContext(r)
	defer cancel()

	err := sess.Screen.Submit(ctx)
	switch {
	case err == nil, errors.Is(err, screen.ErrSuperseded):
	case errors.Is(err, screen.ErrInvalidForm):
		sess.Notify("error", sess.Screen.ValidationMessage())
	case errors.Is(err, screen.ErrBusy):
		sess.Notify("error", "Please wait for the current request to finish.")
	case errors.Is(err, screen.ErrDisconnected):
		sess.Notify("error", "Connect a wallet first.")
	}
	s.redirectHome(w, r)
}

// handleDelete handles POST /delete
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	ctx, cancel := s.apiContext(r)
	defer cancel()

	err := sess.Screen.Delete(ctx)
	switch {
	case errors.Is(err, screen.ErrNoProfile):
		sess.Notify("error", "There is no saved profile to delete.")
	case errors.Is(err, screen.ErrBusy):
		sess.Notify("error", "Please wait for the current request to finish.")
	}
	s.redirectHome(w, r)
}

func (s *Server) applySocial(sess *Session, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sess.Notify("error", "Could not read the submitted form.")
		return
	}
	if raw := r.FormValue("social_type"); raw != "" {
		t, err := types.ParseSocialType(raw)
		if err != nil {
			sess.Notify("error", "Unknown social network.")
		} else if err := sess.Screen.SetSocialType(t); err != nil {
			sess.Notify("error", err.Error())
		}
	}
	if _, ok := r.PostForm["handle"]; ok {
		sess.Screen.SetHandle(r.PostForm.Get("handle"))
	}
}

func (s *Server) applyRisk(sess *Session, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		sess.Notify("error", "Could not read the submitted form.")
		return
	}
	for _, c := range s.categories {
		raw, ok := r.PostForm["alloc_"+c.Key]
		if !ok || len(raw) == 0 {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil {
			sess.Notify("error", c.Label+": enter a whole number.")
			continue
		}
		if err := sess.Screen.SetAllocation(c.Key, value); err != nil {
			sess.Notify("error", err.Error())
		}
	}
}
