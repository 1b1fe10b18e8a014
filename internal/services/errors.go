// Package services defines the support agent's business logic: ticket
// resolution, chat history, inbound chat/email handling and the follow-up
// sweep. This file centralizes the service-level error kinds so that they can
// be consistently returned by service methods and checked by callers.
//
// Errors are wrapped with fmt.Errorf("%w: ...") so callers match them with
// errors.Is. Translation into HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrValidation indicates a missing or malformed required request field.
	ErrValidation = errors.New("invalid request")

	// ErrClassifier indicates the language model call failed.
	ErrClassifier = errors.New("classifier failure")

	// ErrStore indicates a ticket store or chat history read/write failure,
	// including optimistic concurrency conflicts.
	ErrStore = errors.New("store failure")

	// ErrNotification indicates the outbound email could not be sent.
	ErrNotification = errors.New("notification failure")
)
