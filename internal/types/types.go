// Package types provides common type definitions for the wallet profile system.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// RequiredTotal is the percentage a risk profile must add up to before it can be saved.
const RequiredTotal = 100

// SocialType identifies which social network a handle belongs to
type SocialType string

const (
	// SocialTwitter is a Twitter/X handle
	SocialTwitter SocialType = "twitter"
	// SocialFarcaster is a Farcaster handle
	SocialFarcaster SocialType = "farcaster"
)

// Valid reports whether t is a known social network
func (t SocialType) Valid() bool {
	return t == SocialTwitter || t == SocialFarcaster
}

// Label returns the display name used in form messages
func (t SocialType) Label() string {
	switch t {
	case SocialFarcaster:
		return "Farcaster"
	default:
		return "Twitter"
	}
}

// ParseSocialType parses a social network name, case-insensitively
func ParseSocialType(s string) (SocialType, error) {
	t := SocialType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown social type: %q", s)
	}
	return t, nil
}

// SocialHandle is a single external identity reference. Exactly one network
// is set at a time, which is why it is a tagged value rather than two
// nullable fields.
type SocialHandle struct {
	Type   SocialType `json:"type"`
	Handle string     `json:"handle"`
}

// Trimmed returns the handle without surrounding whitespace
func (h SocialHandle) Trimmed() string {
	return strings.TrimSpace(h.Handle)
}

// IsEmpty reports whether the handle is blank after trimming
func (h SocialHandle) IsEmpty() bool {
	return h.Trimmed() == ""
}

// RiskProfile maps a category key to an integer percentage
type RiskProfile map[string]int

// Total returns the sum of all allocations
func (p RiskProfile) Total() int {
	total := 0
	for _, v := range p {
		total += v
	}
	return total
}

// IsComplete reports whether the allocations add up to exactly RequiredTotal
func (p RiskProfile) IsComplete() bool {
	return p.Total() == RequiredTotal
}

// Clone returns an independent copy of the profile
func (p RiskProfile) Clone() RiskProfile {
	if p == nil {
		return nil
	}
	out := make(RiskProfile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Keys returns the category keys in sorted order
func (p RiskProfile) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RiskCategory is one configurable allocation bucket
type RiskCategory struct {
	Key     string `json:"key" yaml:"key"`
	Label   string `json:"label" yaml:"label"`
	Default int    `json:"default" yaml:"default"`
}

// DefaultRiskProfile builds the starting allocation from a category set
func DefaultRiskProfile(categories []RiskCategory) RiskProfile {
	profile := make(RiskProfile, len(categories))
	for _, c := range categories {
		profile[c.Key] = c.Default
	}
	return profile
}

// Field names used in validation payloads. They match the JSON keys of a
// wallet profile so clients can attach messages to inputs directly.
const (
	FieldAddress         = "address"
	FieldTwitterHandle   = "twitter_handle"
	FieldFarcasterHandle = "farcaster_handle"
	FieldTargetPortfolio = "target_portfolio"
)

// MsgAlreadyTaken is the field message for a value owned by another profile
const MsgAlreadyTaken = "already taken"

// FieldErrors collects validation messages per field
type FieldErrors map[string][]string

// Add appends a message for a field
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Has reports whether the field has at least one message
func (f FieldErrors) Has(field string) bool {
	return len(f[field]) > 0
}

// Merge copies all messages from other into f
func (f FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		f[field] = append(f[field], msgs...)
	}
}

// Error implements the error interface
func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(f[field], " ")))
	}
	return strings.Join(parts, "; ")
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
