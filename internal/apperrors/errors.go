package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	MsgInvalidSignature   = "invalid callback signature"
	MsgMalformedPayload   = "malformed callback payload"
	MsgMalformedReference = "malformed merchant reference"
	MsgTransactionMissing = "transaction not found"
	MsgInternal           = "internal server error"
)

// AuthenticationError is returned when a request could not be authenticated.
type AuthenticationError struct {
	Message string
}

func NewAuthenticationError(message string) *AuthenticationError {
	return &AuthenticationError{Message: message}
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Message
}

// ValidationError marks malformed input. Err, when set, is the parse failure.
type ValidationError struct {
	Message string
	Err     error
}

func NewValidationError(message string, err error) *ValidationError {
	return &ValidationError{Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", e.Message, e.Err)
	}
	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	ID       any
}

func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// ConflictError marks a request that is well formed but not allowed in the
// resource's current state.
type ConflictError struct {
	Message string
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string { return e.Message }

// StoreError wraps a data-store failure. Nothing was written when it is
// returned, so the caller may retry.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// UpstreamError wraps a failure talking to an external service.
type UpstreamError struct {
	Service string
	Err     error
}

func NewUpstreamError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// HTTPStatus maps an error to the status code written at the HTTP boundary.
func HTTPStatus(err error) int {
	var (
		authErr     *AuthenticationError
		validErr    *ValidationError
		notFoundErr *NotFoundError
		conflictErr *ConflictError
		upstreamErr *UpstreamError
	)
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.As(err, &validErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to a client. Internal failures
// never leak their cause.
func PublicMessage(err error) string {
	var (
		authErr     *AuthenticationError
		validErr    *ValidationError
		notFoundErr *NotFoundError
		conflictErr *ConflictError
		upstreamErr *UpstreamError
	)
	switch {
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &validErr):
		return validErr.Message
	case errors.As(err, &notFoundErr):
		return notFoundErr.Error()
	case errors.As(err, &conflictErr):
		return conflictErr.Message
	case errors.As(err, &upstreamErr):
		return upstreamErr.Service + " unavailable"
	default:
		return MsgInternal
	}
}

// Respond writes err as {"success": false, "message": ...} and aborts the chain.
func Respond(c *gin.Context, err error) {
	c.AbortWithStatusJSON(HTTPStatus(err), gin.H{
		"success": false,
		"message": PublicMessage(err),
	})
}
