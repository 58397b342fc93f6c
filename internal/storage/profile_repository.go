package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/wallet-profiles/internal/errors"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

const uniqueViolation = "23505"

// constraintFields maps unique constraints of wallet_profiles to the field
// a client should attach the error to
var constraintFields = map[string]string{
	"wallet_profiles_address_key":          types.FieldAddress,
	"wallet_profiles_twitter_handle_key":   types.FieldTwitterHandle,
	"wallet_profiles_farcaster_handle_key": types.FieldFarcasterHandle,
}

const profileColumns = `id, address, twitter_handle, farcaster_handle, target_portfolio, created_at, updated_at`

// ProfileRepository handles wallet profile persistence
type ProfileRepository struct {
	db *PostgresDB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *PostgresDB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a profile and sets its id
func (r *ProfileRepository) Create(ctx context.Context, profile *models.WalletProfile) error {
	portfolioJSON, err := json.Marshal(profile.TargetPortfolio)
	if err != nil {
		return fmt.Errorf("failed to marshal target portfolio: %w", err)
	}

	query := `
		INSERT INTO wallet_profiles (address, twitter_handle, farcaster_handle, target_portfolio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err = r.db.Pool().QueryRow(ctx, query,
		profile.Address,
		profile.TwitterHandle,
		profile.FarcasterHandle,
		portfolioJSON,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Scan(&profile.ID)
	if err != nil {
		return mapWriteError("create", err)
	}
	return nil
}

// GetByID retrieves a profile by id
func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*models.WalletProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM wallet_profiles WHERE id = $1`

	profile, err := scanProfile(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("wallet profile", strconv.FormatInt(id, 10))
		}
		return nil, apperrors.NewDatabaseError("get profile", err)
	}
	return profile, nil
}

// GetByAddress retrieves a profile by its lowercase address
func (r *ProfileRepository) GetByAddress(ctx context.Context, address string) (*models.WalletProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM wallet_profiles WHERE address = $1`

	profile, err := scanProfile(r.db.Pool().QueryRow(ctx, query, strings.ToLower(address)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("wallet profile", address)
		}
		return nil, apperrors.NewDatabaseError("get profile by address", err)
	}
	return profile, nil
}

// Update replaces the handles and portfolio of a profile
func (r *ProfileRepository) Update(ctx context.Context, profile *models.WalletProfile) error {
	portfolioJSON, err := json.Marshal(profile.TargetPortfolio)
	if err != nil {
		return fmt.Errorf("failed to marshal target portfolio: %w", err)
	}

	query := `
		UPDATE wallet_profiles
		SET twitter_handle = $2, farcaster_handle = $3, target_portfolio = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Pool().Exec(ctx, query,
		profile.ID,
		profile.TwitterHandle,
		profile.FarcasterHandle,
		portfolioJSON,
		profile.UpdatedAt,
	)
	if err != nil {
		return mapWriteError("update", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("wallet profile", strconv.FormatInt(profile.ID, 10))
	}
	return nil
}

// Delete removes a profile
func (r *ProfileRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM wallet_profiles WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewDatabaseError("delete profile", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("wallet profile", strconv.FormatInt(id, 10))
	}
	return nil
}

// FindConflicts reports which unique fields of profile are already used by
// another profile. Handles compare case-insensitively.
func (r *ProfileRepository) FindConflicts(ctx context.Context, profile *models.WalletProfile) (types.FieldErrors, error) {
	query := `
		SELECT
			COALESCE(bool_or(address = $2), false),
			COALESCE(bool_or(lower(twitter_handle) = lower($3::text)), false),
			COALESCE(bool_or(lower(farcaster_handle) = lower($4::text)), false)
		FROM wallet_profiles
		WHERE id <> $1
		  AND (address = $2
		       OR lower(twitter_handle) = lower($3::text)
		       OR lower(farcaster_handle) = lower($4::text))
	`

	var addressTaken, twitterTaken, farcasterTaken bool
	err := r.db.Pool().QueryRow(ctx, query,
		profile.ID,
		profile.Address,
		profile.TwitterHandle,
		profile.FarcasterHandle,
	).Scan(&addressTaken, &twitterTaken, &farcasterTaken)
	if err != nil {
		return nil, apperrors.NewDatabaseError("check profile conflicts", err)
	}

	fields := types.FieldErrors{}
	if addressTaken {
		fields.Add(types.FieldAddress, types.MsgAlreadyTaken)
	}
	if twitterTaken {
		fields.Add(types.FieldTwitterHandle, types.MsgAlreadyTaken)
	}
	if farcasterTaken {
		fields.Add(types.FieldFarcasterHandle, types.MsgAlreadyTaken)
	}
	return fields, nil
}

func scanProfile(row pgx.Row) (*models.WalletProfile, error) {
	var profile models.WalletProfile
	var portfolioJSON []byte

	err := row.Scan(
		&profile.ID,
		&profile.Address,
		&profile.TwitterHandle,
		&profile.FarcasterHandle,
		&portfolioJSON,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(portfolioJSON) > 0 {
		if err := json.Unmarshal(portfolioJSON, &profile.TargetPortfolio); err != nil {
			return nil, fmt.Errorf("failed to unmarshal target portfolio: %w", err)
		}
	}
	return &profile, nil
}

// mapWriteError turns a unique violation that slipped past FindConflicts
// (a concurrent write) into the same field error FindConflicts would report
func mapWriteError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = types.FieldAddress
		}
		fields := types.FieldErrors{}
		fields.Add(field, types.MsgAlreadyTaken)
		return apperrors.NewConflictError(fields)
	}
	return apperrors.NewDatabaseError(operation+" profile", err)
}
