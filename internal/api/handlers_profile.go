package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/service"
)

// handleGetProfileByAddress handles GET /api/wallet-profiles/address/{address}
func (s *Server) handleGetProfileByAddress(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	profile, err := s.profileService.GetByAddress(r.Context(), address)
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// handleGetProfile handles GET /api/wallet-profiles/{id}
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseID(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	profile, err := s.profileService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// handleCreateProfile handles POST /api/wallet-profiles
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var input models.ProfileInput
	if err := parseJSONBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	profile, err := s.profileService.Create(r.Context(), &input)
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	respondJSON(w, http.StatusCreated, profile)
}

// handleUpdateProfile handles PUT /api/wallet-profiles/{id}
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseID(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	var input models.ProfileInput
	if err := parseJSONBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body: "+err.Error())
		return
	}

	profile, err := s.profileService.Update(r.Context(), id, &input)
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// handleDeleteProfile handles DELETE /api/wallet-profiles/{id}
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseID(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	if err := s.profileService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetProfileEvents handles GET /api/wallet-profiles/{id}/events
// Query parameters:
//   - limit: maximum number of events, newest first (default 50)
func (s *Server) handleGetProfileEvents(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseID(mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	limit := service.DefaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := s.profileService.Events(r.Context(), id, limit)
	if err != nil {
		respondServiceError(w, s.requestLogger(r), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profile_id": id,
		"events":     events,
	})
}

// handleGetCategories handles GET /api/risk-categories
func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": s.profileService.Categories(),
	})
}

// requestLogger returns the logger LoggingMiddleware attached to the request
func (s *Server) requestLogger(r *http.Request) *logging.Logger {
	return logging.FromContext(r.Context())
}
