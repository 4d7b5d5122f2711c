package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingRoomID = errors.New("missing required room id parameter")
	ErrMissingLimit  = errors.New("limit must be greater than zero")
)

// Error is the decoded failure response of a REST call.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsAuthFailure reports whether err is a 401/403 response.
func IsAuthFailure(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
