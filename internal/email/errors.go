package email

import "github.com/dukerupert/vanir/internal/domain"

// Sentinel errors for the email layer.
var (
	// ErrInvalidFromAddress indicates a malformed sender address.
	ErrInvalidFromAddress = &domain.Error{Code: domain.EINVALID, Message: "Invalid from email address"}

	// ErrInvalidToAddress indicates a malformed recipient address.
	ErrInvalidToAddress = &domain.Error{Code: domain.EINVALID, Message: "Invalid to email address"}
)
