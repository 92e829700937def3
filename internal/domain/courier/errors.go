package courier

import (
	"fmt"
	"strings"
)

// APIError is returned when a courier API rejects a request or fails.
// It keeps the raw response body so operators can see exactly what the
// provider said.
type APIError struct {
	Courier    CourierCode
	HTTPStatus int
	Message    string
	RawBody    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s API error", e.Courier)
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.HTTPStatus)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	return b.String()
}

// NewAPIError creates a courier API error
func NewAPIError(courier CourierCode, status int, message, rawBody string) *APIError {
	return &APIError{
		Courier:    courier,
		HTTPStatus: status,
		Message:    message,
		RawBody:    rawBody,
	}
}

// TokenAcquisitionError is returned when an OAuth token endpoint responds
// without a usable access token
type TokenAcquisitionError struct {
	Courier CourierCode
	Reason  string
}

func (e *TokenAcquisitionError) Error() string {
	return fmt.Sprintf("failed to acquire %s access token: %s", e.Courier, e.Reason)
}

// LocationNotFoundError is returned when a recipient city or zone cannot be
// mapped to a courier location identifier. It is terminal for the dispatch
// attempt and carries guidance for the operator.
type LocationNotFoundError struct {
	Courier  CourierCode
	Kind     string
	Query    string
	Guidance string
}

func (e *LocationNotFoundError) Error() string {
	msg := fmt.Sprintf("%s %s not found for %q", e.Courier, e.Kind, e.Query)
	if e.Guidance != "" {
		msg += ". " + e.Guidance
	}
	return msg
}
