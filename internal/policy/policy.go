// Package policy decides whether an authenticated caller may act on a
// resource. It is a pure decision function: handlers resolve the target
// resource first (missing targets are a 404 concern, not an authorization
// one) and only then ask the policy.
package policy

import (
	"net/http"

	"github.com/mornview/reviewd/internal/model"
	appErr "github.com/mornview/reviewd/internal/pkg/errors"
)

type ResourceKind string

const (
	KindUserProfile ResourceKind = "user_profile"
	KindReview      ResourceKind = "review"
)

// Identity is the verified {user id, role} pair the authentication gate
// attaches to a request.
type Identity struct {
	UserID string
	Role   model.Role
}

// Resource describes an already-resolved target. OwnerID is empty when the
// owner could not be established; such a resource is never authorized for a
// non-admin caller.
type Resource struct {
	Kind    ResourceKind
	OwnerID string
}

// Authorize returns nil when any rule allows the call, ErrForbidden
// otherwise. Rules, in order: admins may do anything; a user may mutate or
// delete their own profile; a user may mutate or delete their own review.
func Authorize(id Identity, method string, res Resource) error {
	if id.Role == model.RoleAdmin {
		return nil
	}
	if method != http.MethodPatch && method != http.MethodDelete {
		return appErr.WithMessage(appErr.ErrForbidden, "not authorized")
	}
	if res.OwnerID != "" && res.OwnerID == id.UserID {
		switch res.Kind {
		case KindUserProfile, KindReview:
			return nil
		}
	}
	return appErr.WithMessage(appErr.ErrForbidden, "not authorized")
}
