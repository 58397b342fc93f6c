package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/wallet-profiles/internal/models"
	"github.com/wallet-profiles/internal/types"
)

// MaxHandleLength is the longest accepted social handle
const MaxHandleLength = 64

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Validation messages returned to clients
const (
	msgRequired        = "This field is required."
	msgInvalidAddress  = "Enter a valid Ethereum address."
	msgAddressChanged  = "Address cannot be changed."
	msgHandleRequired  = "A Twitter or Farcaster handle is required."
	msgHandleExclusive = "Only one social handle can be set."
)

// NormalizeAddress validates a 0x-prefixed hex address and returns it lowercased
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("address is empty")
	}
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", fmt.Errorf("address %q is missing the 0x prefix", address)
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("address %q is not a hex address", address)
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

// normalizeHandle trims whitespace and a leading "@"
func normalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

func validateHandle(handle string) string {
	if len(handle) > MaxHandleLength {
		return fmt.Sprintf("Ensure this field has no more than %d characters.", MaxHandleLength)
	}
	if !handlePattern.MatchString(handle) {
		return "Only letters, digits, '_', '.' and '-' are allowed."
	}
	return ""
}

// Validator checks profile payloads against the configured risk categories
type Validator struct {
	categories map[string]types.RiskCategory
}

// NewValidator creates a validator for the given category set
func NewValidator(categories []types.RiskCategory) *Validator {
	known := make(map[string]types.RiskCategory, len(categories))
	for _, c := range categories {
		known[c.Key] = c
	}
	return &Validator{categories: known}
}

// Validate returns the normalized profile described by input, or the
// messages for every invalid field
func (v *Validator) Validate(input *models.ProfileInput) (*models.WalletProfile, types.FieldErrors) {
	fields := types.FieldErrors{}
	profile := &models.WalletProfile{}

	if input == nil {
		fields.Add(types.FieldAddress, msgRequired)
		return nil, fields
	}

	if strings.TrimSpace(input.Address) == "" {
		fields.Add(types.FieldAddress, msgRequired)
	} else if address, err := NormalizeAddress(input.Address); err != nil {
		fields.Add(types.FieldAddress, msgInvalidAddress)
	} else {
		profile.Address = address
	}

	v.validateSocial(input, profile, fields)
	v.validatePortfolio(input.TargetPortfolio, profile, fields)

	if len(fields) > 0 {
		return nil, fields
	}
	return profile, nil
}

func (v *Validator) validateSocial(input *models.ProfileInput, profile *models.WalletProfile, fields types.FieldErrors) {
	var twitter, farcaster string
	if input.TwitterHandle != nil {
		twitter = normalizeHandle(*input.TwitterHandle)
	}
	if input.FarcasterHandle != nil {
		farcaster = normalizeHandle(*input.FarcasterHandle)
	}

	switch {
	case twitter == "" && farcaster == "":
		fields.Add(types.FieldTwitterHandle, msgHandleRequired)
	case twitter != "" && farcaster != "":
		fields.Add(types.FieldFarcasterHandle, msgHandleExclusive)
	case twitter != "":
		if msg := validateHandle(twitter); msg != "" {
			fields.Add(types.FieldTwitterHandle, msg)
			return
		}
		profile.SetSocial(types.SocialHandle{Type: types.SocialTwitter, Handle: twitter})
	default:
		if msg := validateHandle(farcaster); msg != "" {
			fields.Add(types.FieldFarcasterHandle, msg)
			return
		}
		profile.SetSocial(types.SocialHandle{Type: types.SocialFarcaster, Handle: farcaster})
	}
}

func (v *Validator) validatePortfolio(portfolio types.RiskProfile, profile *models.WalletProfile, fields types.FieldErrors) {
	if len(portfolio) == 0 {
		fields.Add(types.FieldTargetPortfolio, msgRequired)
		return
	}

	valid := true
	for _, key := range portfolio.Keys() {
		value := portfolio[key]
		if _, ok := v.categories[key]; !ok {
			fields.Add(types.FieldTargetPortfolio, fmt.Sprintf("Unknown risk category %q.", key))
			valid = false
			continue
		}
		if value < 0 || value > types.RequiredTotal {
			fields.Add(types.FieldTargetPortfolio, fmt.Sprintf("%s must be between 0 and 100.", key))
			valid = false
		}
	}
	if !valid {
		return
	}
	if total := portfolio.Total(); total != types.RequiredTotal {
		fields.Add(types.FieldTargetPortfolio, fmt.Sprintf("Allocations must total 100%% (got %d%%).", total))
		return
	}
	profile.TargetPortfolio = portfolio.Clone()
}
