package service

import (
	"errors"

	"github.com/chatgrid/realtime-api/internal/domain/identity"

	apperrors "github.com/chatgrid/realtime-api/internal/errors"
)

var (
	errNoIdentity     = errors.New("no identity attached")
	errNoMatchingRole = errors.New("no matching role")
)

// Authorize checks the resolved identity against a declared allow-list.
// An empty allow-list means the operation is publicly accessible and always
// passes, identity or not. Otherwise the identity must be present and its
// role set must intersect the list (OR semantics, never AND).
func Authorize(id *identity.Identity, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	if id == nil {
		return apperrors.Unauthorized(errNoIdentity)
	}
	if !id.HasAnyRole(allowed...) {
		return apperrors.Forbidden(errNoMatchingRole)
	}
	return nil
}
