// Package screen implements the profile screen: load the profile of the
// connected wallet, let the user edit the social handle and the risk
// allocation, and create, update or delete the stored record.
package screen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/riskform"
	"github.com/wallet-profiles/internal/types"
)

// State is the phase of the screen as seen by the user
type State string

const (
	StateDisconnected State = "disconnected"
	StateLoading      State = "loading"
	StateNoProfile    State = "no-profile"
	StateHasProfile   State = "has-profile"
	StateSubmitting   State = "submitting"
)

var (
	// ErrDisconnected is returned when an action needs a connected wallet
	ErrDisconnected = errors.New("wallet not connected")
	// ErrBusy is returned while another request is in flight
	ErrBusy = errors.New("another request is in progress")
	// ErrInvalidForm is returned when submit is attempted on an invalid form
	ErrInvalidForm = errors.New("profile form is not valid")
	// ErrNoProfile is returned when deleting before a profile was saved
	ErrNoProfile = errors.New("no saved profile")
	// ErrSuperseded is returned when the wallet changed while a request was
	// in flight; its result was discarded.
	ErrSuperseded = errors.New("result discarded: wallet changed")
)

// ProfileAPI is the remote store the screen reads from and writes to
type ProfileAPI interface {
	GetByAddress(ctx context.Context, address string) (*models.WalletProfile, error)
	Create(ctx context.Context, input *models.ProfileInput) (*models.WalletProfile, error)
	Update(ctx context.Context, id int64, input *models.ProfileInput) (*models.WalletProfile, error)
	Delete(ctx context.Context, id int64) error
}

// Notifier shows transient messages. It is called with the screen locked
// and must not call back into the screen.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type operation int

const (
	opNone operation = iota
	opLoad
	opSubmit
	opDelete
)

// Screen is the per-session profile screen. All methods are safe for
// concurrent use; network calls run without holding the lock.
type Screen struct {
	mu       sync.Mutex
	api      ProfileAPI
	notifier Notifier
	logger   *logging.Logger

	// seq increases on every wallet change. Requests remember the value
	// they started with and only apply their result if it is unchanged.
	seq uint64
	op  operation

	address     string
	social      types.SocialHandle
	total       int
	portfolio   types.RiskProfile
	form        *riskform.Form
	profile     *models.WalletProfile
	exists      bool
	submitError string
}

// New creates a disconnected screen offering the given risk categories
func New(api ProfileAPI, notifier Notifier, categories []types.RiskCategory, logger *logging.Logger) *Screen {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	s := &Screen{
		api:      api,
		notifier: notifier,
		logger:   logger.WithField("component", "profile_screen"),
	}
	s.form = riskform.New(categories, nil, s.applyFormUpdate)
	s.resetLocked()
	return s
}

// resetLocked restores every form field to its default
func (s *Screen) resetLocked() {
	s.social = types.SocialHandle{Type: types.SocialTwitter}
	s.portfolio = s.form.Defaults()
	s.total = s.portfolio.Total()
	s.form.Reset(s.portfolio)
	s.profile = nil
	s.exists = false
	s.submitError = ""
}

// applyFormUpdate receives risk form edits; s.mu is already held
func (s *Screen) applyFormUpdate(u riskform.Update) {
	s.total = u.Total
	s.portfolio = u.Profile
}

// Connect loads the profile stored for a newly connected wallet. Any request
// still in flight for a previous wallet is superseded.
func (s *Screen) Connect(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		s.Disconnect()
		return ErrDisconnected
	}

	s.mu.Lock()
	s.seq++
	token := s.seq
	s.address = address
	s.resetLocked()
	s.op = opLoad
	s.form.SetLoading(true)
	s.mu.Unlock()

	logger := s.logger.WithField("address", address)
	logger.Debug("Loading wallet profile")

	profile, err := s.api.GetByAddress(ctx, address)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		logger.Debug("Discarding profile load for superseded wallet")
		return ErrSuperseded
	}
	s.op = opNone
	s.form.SetLoading(false)

	if err != nil {
		logger.WithError(err).Error("Error loading profile")
		s.notify(false, "Error loading profile")
		return err
	}
	if profile != nil {
		s.applyProfileLocked(profile)
	}
	return nil
}

// applyProfileLocked populates the form from a stored profile
func (s *Screen) applyProfileLocked(p *models.WalletProfile) {
	s.profile = p
	if social, ok := p.Social(); ok {
		s.social = social
	}
	s.portfolio = p.TargetPortfolio.Clone()
	if s.portfolio == nil {
		s.portfolio = types.RiskProfile{}
	}
	s.total = s.portfolio.Total()
	s.form.Reset(s.portfolio)
	s.exists = true
}

// Disconnect forgets the wallet and restores defaults
func (s *Screen) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.address = ""
	s.op = opNone
	s.form.SetLoading(false)
	s.resetLocked()
}

// SetSocialType switches between Twitter and Farcaster; the typed handle is kept
func (s *Screen) SetSocialType(t types.SocialType) error {
	if !t.Valid() {
		return fmt.Errorf("unknown social type: %q", t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.social.Type = t
	return nil
}

// SetHandle replaces the typed handle
func (s *Screen) SetHandle(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.social.Handle = handle
}

// SetAllocation edits one risk category through the risk form
func (s *Screen) SetAllocation(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Set(key, value)
}

// UpdateRiskProfile accepts a report from the risk form. The reported total
// is what the 100% rule is checked against. A nil mapping is an empty one,
// so the rows shown and the payload submitted always match.
func (s *Screen) UpdateRiskProfile(u riskform.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := u.Profile.Clone()
	if profile == nil {
		profile = types.RiskProfile{}
	}
	s.form.Reset(profile)
	s.applyFormUpdate(riskform.Update{Total: u.Total, Profile: s.form.Values()})
}

// formValidLocked is the submit rule: a handle and a 100% allocation
func (s *Screen) formValidLocked() bool {
	return !s.social.IsEmpty() && s.total == types.RequiredTotal
}

// CanSubmit reports whether the save button is enabled
func (s *Screen) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

func (s *Screen) canSubmitLocked() bool {
	return s.address != "" && s.op == opNone && s.formValidLocked()
}

// ValidationMessage lists every unmet submit condition, or "" when the form is valid
func (s *Screen) ValidationMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validationMessageLocked()
}

func (s *Screen) validationMessageLocked() string {
	return validationMessage(s.social, s.total)
}

// Submit creates the profile, or updates it when one was already saved
func (s *Screen) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.address == "" {
		s.mu.Unlock()
		return ErrDisconnected
	}
	if s.op != opNone {
		s.mu.Unlock()
		return ErrBusy
	}
	if !s.formValidLocked() {
		s.mu.Unlock()
		return ErrInvalidForm
	}

	token := s.seq
	s.op = opSubmit
	s.submitError = ""
	input := models.NewProfileInput(s.address, s.social, s.portfolio)
	var id int64
	updating := s.exists && s.profile != nil && s.profile.ID != 0
	if updating {
		id = s.profile.ID
	}
	s.mu.Unlock()

	logger := s.logger.WithFields(map[string]interface{}{
		"address":  input.Address,
		"updating": updating,
	})

	var saved *models.WalletProfile
	var err error
	if updating {
		saved, err = s.api.Update(ctx, id, input)
	} else {
		saved, err = s.api.Create(ctx, input)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		logger.Info("Discarding save result for superseded wallet")
		return ErrSuperseded
	}
	s.op = opNone

	if err != nil {
		logger.WithError(err).Error("Error saving profile")
		s.submitError = SubmitErrorMessage(err)
		return err
	}

	s.profile = saved
	s.exists = true
	if updating {
		s.notify(true, "Profile updated successfully!")
	} else {
		s.notify(true, "Profile created successfully!")
	}
	return nil
}

// Delete removes the saved profile and resets the form
func (s *Screen) Delete(ctx context.Context) error {
	s.mu.Lock()
	if s.profile == nil || s.profile.ID == 0 {
		s.mu.Unlock()
		return ErrNoProfile
	}
	if s.op != opNone {
		s.mu.Unlock()
		return ErrBusy
	}
	token := s.seq
	id := s.profile.ID
	s.op = opDelete
	s.mu.Unlock()

	logger := s.logger.WithField("profileId", id)
	err := s.api.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.seq {
		logger.Info("Discarding delete result for superseded wallet")
		return ErrSuperseded
	}
	s.op = opNone

	if err != nil {
		logger.WithError(err).Error("Error deleting profile")
		s.notify(false, "Error deleting profile")
		return err
	}

	// the social network choice survives a delete, everything else resets
	socialType := s.social.Type
	s.resetLocked()
	s.social.Type = socialType
	s.notify(true, "Profile deleted successfully!")
	return nil
}

// State returns the current phase
func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Screen) stateLocked() State {
	switch {
	case s.address == "":
		return StateDisconnected
	case s.op == opLoad:
		return StateLoading
	case s.op == opSubmit || s.op == opDelete:
		return StateSubmitting
	case s.exists:
		return StateHasProfile
	default:
		return StateNoProfile
	}
}

func (s *Screen) notify(success bool, message string) {
	if s.notifier == nil {
		return
	}
	if success {
		s.notifier.Success(message)
	} else {
		s.notifier.Error(message)
	}
}
