package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInsufficientStock, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeCourierAPI, http.StatusInternalServerError},
		{ErrCodeCourierToken, http.StatusInternalServerError},
		{ErrCodeLocationNotFound, http.StatusBadRequest},
		{ErrCodeInvalidRecipient, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{"ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeInsufficientStock, NormalizeErrorCode("INSUFFICIENT_STOCK"))
	assert.Equal(t, ErrCodeNoCourierAssigned, NormalizeErrorCode("NO_COURIER_ASSIGNED"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	// Already normalized codes pass through
	assert.Equal(t, ErrCodeCourierAPI, NormalizeErrorCode(ErrCodeCourierAPI))
	// Unknown codes pass through untouched
	assert.Equal(t, "CUSTOM", NormalizeErrorCode("CUSTOM"))
}
