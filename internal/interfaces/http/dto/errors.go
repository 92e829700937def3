package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation and input error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeNoCourierAssigned = "ERR_NO_COURIER_ASSIGNED"
)

// Courier integration error codes
const (
	// ErrCodeCourierAPI is used when a courier API rejects a request
	ErrCodeCourierAPI = "ERR_COURIER_API"
	// ErrCodeCourierToken is used when courier token acquisition fails
	ErrCodeCourierToken = "ERR_COURIER_TOKEN"
	// ErrCodeCourierConfig is used when a courier is not configured
	ErrCodeCourierConfig = "ERR_COURIER_CONFIG"
	// ErrCodeLocationNotFound is used when a recipient location cannot be
	// resolved against the courier's geography
	ErrCodeLocationNotFound = "ERR_LOCATION_NOT_FOUND"
	// ErrCodeInvalidRecipient is used when recipient details fail courier rules
	ErrCodeInvalidRecipient = "ERR_INVALID_RECIPIENT"
	// ErrCodeMissingDeliveryZone is used when no delivery zone or area is set
	ErrCodeMissingDeliveryZone = "ERR_MISSING_DELIVERY_ZONE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:      http.StatusConflict,
	ErrCodeInsufficientStock: http.StatusConflict,
	ErrCodeNoCourierAssigned: http.StatusBadRequest,

	// Courier failures carry the provider's own message for diagnosis
	ErrCodeCourierAPI:          http.StatusInternalServerError,
	ErrCodeCourierToken:        http.StatusInternalServerError,
	ErrCodeCourierConfig:       http.StatusInternalServerError,
	ErrCodeLocationNotFound:    http.StatusBadRequest,
	ErrCodeInvalidRecipient:    http.StatusBadRequest,
	ErrCodeMissingDeliveryZone: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":    ErrCodeInsufficientStock,
	"NO_COURIER_ASSIGNED":   ErrCodeNoCourierAssigned,
	"CONFIGURATION":         ErrCodeCourierConfig,
	"INVALID_RECIPIENT":     ErrCodeInvalidRecipient,
	"MISSING_DELIVERY_ZONE": ErrCodeMissingDeliveryZone,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
