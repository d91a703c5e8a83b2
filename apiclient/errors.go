package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for any response outside the 2xx range.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether the backend rejected the credentials or token.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// AsAPIError unwraps err into an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type errorBody struct {
	Message string `json:"message"`
	Detail  any    `json:"detail"`
}

// newAPIError extracts the best available message: the JSON "message" field,
// a string "detail" field, the status phrase for absent or non-JSON bodies,
// and finally a generic description of the failed call.
func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status}
	fallback := fmt.Sprintf("API %s request to %s failed with status %d", method, path, status)

	var parsed errorBody
	if len(body) == 0 || json.Unmarshal(body, &parsed) != nil {
		apiErr.Message = http.StatusText(status)
		if apiErr.Message == "" {
			apiErr.Message = fallback
		}
		return apiErr
	}

	switch {
	case parsed.Message != "":
		apiErr.Message = parsed.Message
	case detailString(parsed.Detail) != "":
		apiErr.Message = detailString(parsed.Detail)
	default:
		apiErr.Message = fallback
	}
	return apiErr
}

func detailString(detail any) string {
	if s, ok := detail.(string); ok {
		return s
	}
	return ""
}
