// Package models provides data models for the wallet profile system.
package models

import (
	"strings"
	"time"

	"github.com/wallet-profiles/internal/types"
)

// WalletProfile is the persisted profile of a connected wallet. Only one of
// the two handle fields is ever populated; use Social to read it.
type WalletProfile struct {
	ID              int64             `json:"id" db:"id"`
	Address         string            `json:"address" db:"address"`
	TwitterHandle   *string           `json:"twitter_handle" db:"twitter_handle"`
	FarcasterHandle *string           `json:"farcaster_handle" db:"farcaster_handle"`
	TargetPortfolio types.RiskProfile `json:"target_portfolio" db:"target_portfolio"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// Social returns the populated handle. Twitter wins if a legacy record
// somehow carries both.
func (p *WalletProfile) Social() (types.SocialHandle, bool) {
	if p == nil {
		return types.SocialHandle{}, false
	}
	if p.TwitterHandle != nil && *p.TwitterHandle != "" {
		return types.SocialHandle{Type: types.SocialTwitter, Handle: *p.TwitterHandle}, true
	}
	if p.FarcasterHandle != nil && *p.FarcasterHandle != "" {
		return types.SocialHandle{Type: types.SocialFarcaster, Handle: *p.FarcasterHandle}, true
	}
	return types.SocialHandle{}, false
}

// SetSocial replaces both handle fields from a tagged handle
func (p *WalletProfile) SetSocial(h types.SocialHandle) {
	p.TwitterHandle, p.FarcasterHandle = handlePointers(h)
}

// ProfileInput is the create/update payload accepted by the profile API
type ProfileInput struct {
	Address         string            `json:"address"`
	TwitterHandle   *string           `json:"twitter_handle"`
	FarcasterHandle *string           `json:"farcaster_handle"`
	TargetPortfolio types.RiskProfile `json:"target_portfolio"`
}

// NewProfileInput builds a payload with exactly one handle field set
func NewProfileInput(address string, handle types.SocialHandle, portfolio types.RiskProfile) *ProfileInput {
	twitter, farcaster := handlePointers(handle)
	return &ProfileInput{
		Address:         address,
		TwitterHandle:   twitter,
		FarcasterHandle: farcaster,
		TargetPortfolio: portfolio.Clone(),
	}
}

func handlePointers(h types.SocialHandle) (twitter, farcaster *string) {
	value := strings.TrimSpace(h.Handle)
	switch h.Type {
	case types.SocialTwitter:
		return &value, nil
	case types.SocialFarcaster:
		return nil, &value
	default:
		return nil, nil
	}
}
