package screen

import (
	"errors"
	"strings"

	"github.com/wallet-profiles/internal/types"
)

// DefaultSubmitError is shown when a failed save carries nothing more specific
const DefaultSubmitError = "Failed to save profile. Please try again."

const validationSeparator = " • "

// fieldErrorSource is implemented by API errors that carry per-field messages
type fieldErrorSource interface {
	ErrorFields() types.FieldErrors
	ErrorText() string
}

// submitErrorFields lists the fields checked for a save error, in priority order
var submitErrorFields = []struct {
	field string
	label string
}{
	{types.FieldAddress, "Address"},
	{types.FieldTwitterHandle, "Twitter handle"},
	{types.FieldFarcasterHandle, "Farcaster handle"},
}

// SubmitErrorMessage turns a failed save into the inline text under the form.
// Only the first field with messages is reported.
func SubmitErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var src fieldErrorSource
	if !errors.As(err, &src) {
		return DefaultSubmitError
	}

	fields := src.ErrorFields()
	for _, f := range submitErrorFields {
		if msgs := fields[f.field]; len(msgs) > 0 {
			return f.label + ": " + strings.Join(msgs, " ")
		}
	}

	if text := src.ErrorText(); text != "" {
		return text
	}
	return DefaultSubmitError
}

func validationMessage(social types.SocialHandle, total int) string {
	var problems []string
	if social.IsEmpty() {
		problems = append(problems, social.Type.Label()+" handle is required")
	}
	if total != types.RequiredTotal {
		problems = append(problems, "Risk profile must total 100%")
	}
	return strings.Join(problems, validationSeparator)
}
