package domain

import (
	"errors"
	"fmt"
)

// Application error codes.
// These determine retry behavior on the asynchronous path and map to HTTP
// status codes on the synchronous path.
const (
	ECONFLICT    = "conflict"    // 409 - duplicate creation or concurrent modification
	EINTERNAL    = "internal"    // 500 - internal error (hide details)
	EINVALID     = "invalid"     // 400 - validation or business-rule violation (never retried)
	ENOTFOUND    = "not_found"   // 404 - resource not found
	EUNAVAILABLE = "unavailable" // 503 - collaborator unavailable (retried by the transport)
)

// Error represents an application error with a code and message.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, ENOTFOUND).
	Code string

	// Message is a human-readable error message safe to show to callers.
	Message string

	// Op is the operation where the error occurred (e.g., "store.update_order").
	Op string

	// Err is the underlying error, if any. Used for error wrapping.
	Err error
}

// Order-related sentinel errors. Callers match on these with errors.Is so
// that every failure mode in the pipeline has exactly one identity.
var (
	// ErrOrderNotFound indicates no order exists for the (tenantId, orderId) key.
	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}

	// ErrOrderExists indicates a write-once insert hit an existing key.
	// The creation consumer swallows this as an idempotent success; direct
	// callers surface it.
	ErrOrderExists = &Error{Code: ECONFLICT, Message: "Order already exists"}

	// ErrVersionConflict indicates a conditional update lost a race: the
	// stored version no longer matches the version the caller read.
	ErrVersionConflict = &Error{Code: ECONFLICT, Message: "Order was modified by another process"}

	// ErrInvalidOrderState indicates a business-rule violation: terminal-state
	// mutation, illegal status transition, or payment details on the wrong status.
	ErrInvalidOrderState = &Error{Code: EINVALID, Message: "Invalid order state for this operation"}

	// ErrEmptyUpdate indicates an update request that carries no changes.
	ErrEmptyUpdate = &Error{Code: EINVALID, Message: "No updates provided"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain sentinel this error derives from.
// A wrapped copy of a sentinel (same code and message) matches the sentinel,
// which lets the store attach Op/Err context without breaking errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for non-domain errors and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}

	return EINTERNAL
}

// ErrorMessage extracts a caller-facing message from an error.
// For internal errors, returns a generic message to avoid leaking details.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}

	return "An internal error occurred. Please try again later."
}

// Errorf creates a new domain error with formatted message.
// Example: domain.Errorf(domain.EINVALID, "order.validate", "invalid status: %s", s)
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a domain error code and operation.
// Preserves the underlying error for logging while providing structure.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// WrapSentinel attaches operation context to a sentinel while keeping
// errors.Is(err, sentinel) true.
func WrapSentinel(sentinel *Error, op string, err error) error {
	return &Error{
		Code:    sentinel.Code,
		Message: sentinel.Message,
		Op:      op,
		Err:     err,
	}
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Unavailable wraps a collaborator failure that the transport should retry.
// Example: domain.Unavailable(err, "cart.fetch", "cart service unreachable")
func Unavailable(err error, op, message string) error {
	return &Error{
		Code:    EUNAVAILABLE,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Internal creates an internal error (wraps underlying error).
// The message shown to callers will be generic; the underlying error is for logging.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Invalid creates a validation error for a single issue.
// Example: domain.Invalid("order.update", "payment details require payment_pending or paid status")
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// =============================================================================
// Validation Errors (field-level errors for boundary validation)
// =============================================================================

// ValidationError represents one or more field validation failures.
// Raised once at the system boundary before any domain logic runs; never
// retried by consumers.
type ValidationError struct {
	// Fields maps field names to error messages.
	Fields map[string]string

	// Op is the operation where validation failed.
	Op string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			if e.Op != "" {
				return fmt.Sprintf("%s: %s: %s", e.Op, field, msg)
			}
			return fmt.Sprintf("%s: %s", field, msg)
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: validation failed for %d fields", e.Op, len(e.Fields))
	}
	return fmt.Sprintf("validation failed for %d fields", len(e.Fields))
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{
		Op:     op,
		Fields: map[string]string{field: message},
	}
}

// AddFieldError adds a field error to an existing ValidationError.
// If err is nil, creates a new ValidationError.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}

	return &ValidationError{
		Fields: map[string]string{field: message},
	}
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
