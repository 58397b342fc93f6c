package client

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wallet-profiles/internal/types"
)

// APIError is a non-success response from the profile API
type APIError struct {
	StatusCode int
	Fields     types.FieldErrors
	Message    string

	// body is the raw text of a response that was not a JSON object. It is
	// only used in Error so logs keep the upstream text.
	body string
}

func (e *APIError) Error() string {
	switch {
	case len(e.Fields) > 0:
		return fmt.Sprintf("profile api: status %d: %s", e.StatusCode, e.Fields.Error())
	case e.Message != "":
		return fmt.Sprintf("profile api: status %d: %s", e.StatusCode, e.Message)
	case e.body != "":
		return fmt.Sprintf("profile api: status %d: %s", e.StatusCode, e.body)
	default:
		return fmt.Sprintf("profile api: status %d", e.StatusCode)
	}
}

// ErrorFields returns the per-field messages of a validation response
func (e *APIError) ErrorFields() types.FieldErrors {
	return e.Fields
}

// ErrorText returns the general error message, if any
func (e *APIError) ErrorText() string {
	return e.Message
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// decodeAPIError reads an error body. String arrays are field messages; an
// "error" key is the general message, either a string or an object with a
// "message". Any other body leaves Message empty so callers fall back to
// their own wording.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Fields: types.FieldErrors{}}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.body = strings.TrimSpace(string(body))
		if apiErr.body == "" {
			apiErr.body = http.StatusText(status)
		}
		return apiErr
	}

	for key, value := range raw {
		if key == "error" {
			apiErr.Message = decodeMessage(value)
			continue
		}
		var msgs []string
		if err := json.Unmarshal(value, &msgs); err == nil && len(msgs) > 0 {
			apiErr.Fields[key] = msgs
		}
	}
	return apiErr
}

func decodeMessage(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(value, &obj); err == nil {
		return obj.Message
	}
	return ""
}
