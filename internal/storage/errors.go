package storage

import (
	"github.com/dukerupert/vanir/internal/domain"
)

// ErrArtifactNotFound indicates no artifact exists at the requested key.
var ErrArtifactNotFound = &domain.Error{Code: domain.ENOTFOUND, Message: "Artifact not found"}

// ErrUnknownProvider creates an error for unknown storage providers.
func ErrUnknownProvider(provider string) error {
	return domain.Errorf(domain.EINVALID, "storage.new", "unknown storage provider: %s", provider)
}
