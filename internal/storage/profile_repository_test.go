package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wallet-profiles/internal/errors"
	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

// uniqueProfile builds a profile whose address and handle do not collide
// with rows left behind by earlier runs
func uniqueProfile() *models.WalletProfile {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	handle := "user_" + suffix[:12]
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.WalletProfile{
		Address:         "0x" + suffix + suffix[:8],
		TwitterHandle:   &handle,
		TargetPortfolio: types.RiskProfile{"stablecoins": 70, "bluechips": 30},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestProfileRepository_CRUD(t *testing.T) {
	db := testPostgres(t)
	repo := NewProfileRepository(db)
	ctx := testContext(t)

	profile := uniqueProfile()
	require.NoError(t, repo.Create(ctx, profile))
	require.NotZero(t, profile.ID)
	t.Cleanup(func() { _ = repo.Delete(testContext(t), profile.ID) })

	byAddress, err := repo.GetByAddress(ctx, strings.ToUpper(profile.Address))
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byAddress.ID)
	assert.Equal(t, *profile.TwitterHandle, *byAddress.TwitterHandle)
	assert.Nil(t, byAddress.FarcasterHandle)
	assert.Equal(t, profile.TargetPortfolio, byAddress.TargetPortfolio)

	farcaster := "fc_" + (*profile.TwitterHandle)[5:]
	profile.TwitterHandle = nil
	profile.FarcasterHandle = &farcaster
	profile.TargetPortfolio = types.RiskProfile{"altcoins": 100}
	profile.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, profile))

	byID, err := repo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, byID.TwitterHandle)
	assert.Equal(t, farcaster, *byID.FarcasterHandle)
	assert.Equal(t, types.RiskProfile{"altcoins": 100}, byID.TargetPortfolio)

	require.NoError(t, repo.Delete(ctx, profile.ID))
	_, err = repo.GetByID(ctx, profile.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(repo.Delete(ctx, profile.ID)))
}

func TestProfileRepository_Conflicts(t *testing.T) {
	db := testPostgres(t)
	repo := NewProfileRepository(db)
	ctx := testContext(t)

	existing := uniqueProfile()
	require.NoError(t, repo.Create(ctx, existing))
	t.Cleanup(func() { _ = repo.Delete(testContext(t), existing.ID) })

	clash := uniqueProfile()
	upper := strings.ToUpper(*existing.TwitterHandle)
	clash.TwitterHandle = &upper

	fields, err := repo.FindConflicts(ctx, clash)
	require.NoError(t, err)
	assert.Equal(t, []string{types.MsgAlreadyTaken}, fields[types.FieldTwitterHandle])
	assert.False(t, fields.Has(types.FieldAddress))

	// a profile never conflicts with itself
	fields, err = repo.FindConflicts(ctx, existing)
	require.NoError(t, err)
	assert.Empty(t, fields)

	// the unique index catches writes that skip FindConflicts
	err = repo.Create(ctx, clash)
	require.Error(t, err)
	catErr := apperrors.Categorize(err)
	assert.Equal(t, apperrors.CategoryConflict, catErr.Category)
	assert.True(t, catErr.Fields.Has(types.FieldTwitterHandle), fmt.Sprint(catErr.Fields))
}

func TestProfileRepository_UpdateMissing(t *testing.T) {
	db := testPostgres(t)
	repo := NewProfileRepository(db)

	profile := uniqueProfile()
	profile.ID = -1
	err := repo.Update(testContext(t), profile)
	assert.True(t, apperrors.IsNotFound(err))
}
