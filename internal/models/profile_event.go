package models

import (
	"time"

	"github.com/wallet-profiles/internal/types"
)

// ProfileAction is the kind of lifecycle change recorded for a profile
type ProfileAction string

const (
	ActionCreated ProfileAction = "created"
	ActionUpdated ProfileAction = "updated"
	ActionDeleted ProfileAction = "deleted"
)

// ProfileEvent is an append-only audit record of a profile change
type ProfileEvent struct {
	ID              string            `json:"id" db:"id"`
	ProfileID       int64             `json:"profile_id" db:"profile_id"`
	Address         string            `json:"address" db:"address"`
	Action          ProfileAction     `json:"action" db:"action"`
	SocialType      types.SocialType  `json:"social_type,omitempty" db:"social_type"`
	SocialHandle    string            `json:"social_handle,omitempty" db:"social_handle"`
	TargetPortfolio types.RiskProfile `json:"target_portfolio,omitempty" db:"target_portfolio"`
	OccurredAt      time.Time         `json:"occurred_at" db:"occurred_at"`
}
