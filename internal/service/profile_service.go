package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/wallet-profiles/internal/circuitbreaker"
	"github.com/wallet-profiles/internal/errors"
	"github.com/wallet-profiles/internal/logging"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

// Repository interfaces for dependency injection

// ProfileRepository persists wallet profiles. Missing rows are reported with
// a not-found CategorizedError.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.WalletProfile) error
	GetByID(ctx context.Context, id int64) (*models.WalletProfile, error)
	GetByAddress(ctx context.Context, address string) (*models.WalletProfile, error)
	Update(ctx context.Context, profile *models.WalletProfile) error
	Delete(ctx context.Context, id int64) error
	// FindConflicts reports unique fields of profile already used by a
	// profile with a different id
	FindConflicts(ctx context.Context, profile *models.WalletProfile) (types.FieldErrors, error)
}

// ProfileCache caches profiles by address. A miss is (nil, nil).
type ProfileCache interface {
	GetProfile(ctx context.Context, address string) (*models.WalletProfile, error)
	SetProfile(ctx context.Context, profile *models.WalletProfile) error
	InvalidateProfile(ctx context.Context, address string) error
}

// profileLoadingCache is implemented by caches that collapse concurrent
// misses for one address into a single repository read
type profileLoadingCache interface {
	LoadProfile(ctx context.Context, address string, load func(ctx context.Context, address string) (*models.WalletProfile, error)) (*models.WalletProfile, error)
}

// EventStore keeps the append-only lifecycle log of profiles
type EventStore interface {
	RecordEvent(ctx context.Context, event *models.ProfileEvent) error
	ListByProfile(ctx context.Context, profileID int64, limit int) ([]*models.ProfileEvent, error)
}

// DefaultEventLimit caps the number of events returned when no limit is given
const DefaultEventLimit = 50

// ProfileService validates and stores wallet profiles
type ProfileService struct {
	repo       ProfileRepository
	cache      ProfileCache
	events     EventStore
	breaker    *circuitbreaker.CircuitBreaker
	validator  *Validator
	categories []types.RiskCategory
	logger     *logging.Logger
	now        func() time.Time
}

// NewProfileService creates a profile service. cache and events may be nil.
func NewProfileService(
	repo ProfileRepository,
	cache ProfileCache,
	events EventStore,
	categories []types.RiskCategory,
	logger *logging.Logger,
) *ProfileService {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithField("component", "profile_service")
	return &ProfileService{
		repo:       repo,
		cache:      cache,
		events:     events,
		breaker:    circuitbreaker.New(circuitbreaker.DefaultConfig("profile_events"), logger),
		validator:  NewValidator(categories),
		categories: append([]types.RiskCategory(nil), categories...),
		logger:     logger,
		now:        time.Now,
	}
}

// Categories returns the risk categories a portfolio may use
func (s *ProfileService) Categories() []types.RiskCategory {
	return append([]types.RiskCategory(nil), s.categories...)
}

// GetByAddress returns the profile of a wallet
func (s *ProfileService) GetByAddress(ctx context.Context, address string) (*models.WalletProfile, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return nil, errors.NewInvalidParameterError("address", err.Error())
	}

	if loader, ok := s.cache.(profileLoadingCache); ok {
		return loader.LoadProfile(ctx, normalized, s.repo.GetByAddress)
	}

	if s.cache != nil {
		cached, err := s.cache.GetProfile(ctx, normalized)
		if err != nil {
			s.logger.WithError(err).WithField("address", normalized).Warn("Profile cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	profile, err := s.repo.GetByAddress(ctx, normalized)
	if err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, profile)
	return profile, nil
}

// GetByID returns a profile by its numeric id
func (s *ProfileService) GetByID(ctx context.Context, id int64) (*models.WalletProfile, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates and stores a new profile
func (s *ProfileService) Create(ctx context.Context, input *models.ProfileInput) (*models.WalletProfile, error) {
	profile, fields := s.validator.Validate(input)
	if len(fields) > 0 {
		return nil, errors.NewValidationError(fields)
	}

	if err := s.checkConflicts(ctx, profile); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if err := s.repo.Create(ctx, profile); err != nil {
		return nil, err
	}

	s.invalidate(ctx, profile.Address)
	s.recordEvent(ctx, models.ActionCreated, profile)
	s.logger.WithFields(map[string]interface{}{
		"profileId": profile.ID,
		"address":   profile.Address,
	}).Info("Wallet profile created")
	return profile, nil
}

// Update replaces the handle and portfolio of an existing profile. The
// address of a profile cannot change.
func (s *ProfileService) Update(ctx context.Context, id int64, input *models.ProfileInput) (*models.WalletProfile, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile, fields := s.validator.Validate(input)
	if len(fields) == 0 && profile.Address != existing.Address {
		fields = types.FieldErrors{}
		fields.Add(types.FieldAddress, msgAddressChanged)
	}
	if len(fields) > 0 {
		return nil, errors.NewValidationError(fields)
	}

	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = s.now().UTC()

	if err := s.checkConflicts(ctx, profile); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, err
	}

	s.invalidate(ctx, profile.Address)
	s.recordEvent(ctx, models.ActionUpdated, profile)
	s.logger.WithField("profileId", profile.ID).Info("Wallet profile updated")
	return profile, nil
}

// Delete removes a profile
func (s *ProfileService) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, existing.Address)
	s.recordEvent(ctx, models.ActionDeleted, existing)
	s.logger.WithField("profileId", id).Info("Wallet profile deleted")
	return nil
}

// Events returns the lifecycle events of a profile, newest first. Events
// outlive the profile they describe.
func (s *ProfileService) Events(ctx context.Context, id int64, limit int) ([]*models.ProfileEvent, error) {
	if s.events == nil {
		return []*models.ProfileEvent{}, nil
	}
	if limit <= 0 || limit > DefaultEventLimit {
		limit = DefaultEventLimit
	}

	var events []*models.ProfileEvent
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		events, err = s.events.ListByProfile(ctx, id, limit)
		return err
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to list profile events", err)
	}
	if events == nil {
		events = []*models.ProfileEvent{}
	}
	return events, nil
}

func (s *ProfileService) checkConflicts(ctx context.Context, profile *models.WalletProfile) error {
	conflicts, err := s.repo.FindConflicts(ctx, profile)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return errors.NewConflictError(conflicts)
	}
	return nil
}

func (s *ProfileService) cacheProfile(ctx context.Context, profile *models.WalletProfile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetProfile(ctx, profile); err != nil {
		s.logger.WithError(err).WithField("address", profile.Address).Warn("Profile cache write failed")
	}
}

func (s *ProfileService) invalidate(ctx context.Context, address string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProfile(ctx, address); err != nil {
		s.logger.WithError(err).WithField("address", address).Warn("Profile cache invalidation failed")
	}
}

// recordEvent appends a lifecycle event. Failures are logged only; the
// profile write already succeeded.
func (s *ProfileService) recordEvent(ctx context.Context, action models.ProfileAction, profile *models.WalletProfile) {
	if s.events == nil {
		return
	}

	event := &models.ProfileEvent{
		ID:              uuid.New().String(),
		ProfileID:       profile.ID,
		Address:         profile.Address,
		Action:          action,
		TargetPortfolio: profile.TargetPortfolio.Clone(),
		OccurredAt:      s.now().UTC(),
	}
	if social, ok := profile.Social(); ok {
		event.SocialType = social.Type
		event.SocialHandle = social.Handle
	}

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.events.RecordEvent(ctx, event)
	})
	if err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"profileId": profile.ID,
			"action":    string(action),
		}).Warn("Failed to record profile event")
	}
}

// ParseID parses a profile id from a path segment
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidParameterError("id", fmt.Sprintf("%q is not a positive integer", raw))
	}
	return id, nil
}
