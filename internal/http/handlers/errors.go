// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and appear in the `code` field of
// ErrorResponse. Clients branch on them; the message is for humans.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "classifier_failed",
//	  "message": "classifier failure: deadline exceeded"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-support-agent/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeClassifierFailed   = "classifier_failed"
	ErrCodeStoreFailed        = "store_failed"
	ErrCodeNotificationFailed = "notification_failed"
)

// statusFor maps a service error onto an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, services.ErrClassifier):
		return http.StatusInternalServerError, ErrCodeClassifierFailed
	case errors.Is(err, services.ErrStore):
		return http.StatusInternalServerError, ErrCodeStoreFailed
	case errors.Is(err, services.ErrNotification):
		return http.StatusInternalServerError, ErrCodeNotificationFailed
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
