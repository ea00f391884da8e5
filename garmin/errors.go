package garmin

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMFARequired is returned by Auth.Login when the account has multi-factor
// authentication enabled. Call Auth.CompleteMFA with the code to finish login.
var ErrMFARequired = errors.New("MFA code required")

// ErrNotAuthenticated is returned by API calls attempted without tokens.
var ErrNotAuthenticated = errors.New("not authenticated")

// AuthError reports a failed login, MFA verification or token refresh.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("garmin %s failed: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// APIError reports a request that Garmin Connect answered with a non-2xx
// status, after the retry budget (if any) was spent.
type APIError struct {
	Status int
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request to %s failed: %d", e.URL, e.Status)
}

func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status/100 == 5
}

func IsClientError(err error) bool {
	var apiErr *APIError
	status := 0
	if errors.As(err, &apiErr) {
		status = apiErr.Status
	}
	return status/100 == 4 && status != http.StatusTooManyRequests
}
