// Package permissions holds the access-control predicates. Every
// resource gets a request-level check (before any object is loaded) and
// an object-level check. All predicates fail closed: no user means deny.
package permissions

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/markethub/internal/apperr"
	"github.com/example/markethub/internal/models"
)

func isSafeMethod(method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	default:
		return false
	}
}

func roleOf(user *models.User) models.Role {
	if user == nil || user.Profile == nil {
		return ""
	}
	return user.Profile.Role
}

var errNotAuthenticated = apperr.NotAuthenticated("Authentication credentials were not provided.")

// OfferRequest checks whether the actor may attempt the verb on the
// offers collection. Reads are open to everyone; creation is reserved
// for business users.
func OfferRequest(user *models.User, method string) error {
	if isSafeMethod(method) {
		return nil
	}
	if user == nil {
		return errNotAuthenticated
	}
	switch method {
	case fiber.MethodPost:
		switch roleOf(user) {
		case models.RoleBusiness:
			return nil
		case models.RoleCustomer:
			return apperr.PermissionDenied("Only business users can create offers.")
		default:
			return apperr.PermissionDenied("A profile is required to create offers.")
		}
	case fiber.MethodPatch, fiber.MethodDelete, fiber.MethodPut:
		return nil
	default:
		return apperr.PermissionDenied("You do not have permission to perform this action.")
	}
}

// OfferObject checks whether the actor may perform the verb on this
// specific offer. Writes require ownership.
func OfferObject(user *models.User, offer *models.Offer, method string) error {
	if isSafeMethod(method) {
		return nil
	}
	if user == nil {
		return errNotAuthenticated
	}
	if offer.UserID == user.ID {
		return nil
	}
	return apperr.PermissionDenied("You do not have permission to modify this offer.")
}

// OrderRequest checks collection-level access to orders. All verbs
// require authentication; creation is reserved for customers.
func OrderRequest(user *models.User, method string) error {
	if user == nil {
		return errNotAuthenticated
	}
	if isSafeMethod(method) {
		return nil
	}
	switch method {
	case fiber.MethodPost:
		switch roleOf(user) {
		case models.RoleCustomer:
			return nil
		case models.RoleBusiness:
			return apperr.PermissionDenied("Only customers can create orders.")
		default:
			return apperr.PermissionDenied("A profile is required to create orders.")
		}
	case fiber.MethodPatch, fiber.MethodDelete, fiber.MethodPut:
		return nil
	default:
		return apperr.PermissionDenied("You do not have permission to perform this action.")
	}
}

// OrderObject checks object-level access to an order: the business side
// updates, staff deletes.
func OrderObject(user *models.User, order *models.Order, method string) error {
	if user == nil {
		return errNotAuthenticated
	}
	if isSafeMethod(method) {
		return nil
	}
	switch method {
	case fiber.MethodPut, fiber.MethodPatch:
		if order.BusinessUserID == user.ID {
			return nil
		}
		return apperr.PermissionDenied("Only the business user can update this order.")
	case fiber.MethodDelete:
		if user.IsStaff {
			return nil
		}
		return apperr.PermissionDenied("Only staff can delete orders.")
	default:
		return apperr.PermissionDenied("You do not have permission to perform this action.")
	}
}

// ReviewRequest checks collection-level access to reviews. All verbs
// require authentication; creation is reserved for customers.
func ReviewRequest(user *models.User, method string) error {
	if user == nil {
		return errNotAuthenticated
	}
	if isSafeMethod(method) {
		return nil
	}
	switch method {
	case fiber.MethodPost:
		switch roleOf(user) {
		case models.RoleCustomer:
			return nil
		case models.RoleBusiness:
			return apperr.PermissionDenied("Only customers can create reviews.")
		default:
			return apperr.PermissionDenied("A profile is required to create reviews.")
		}
	case fiber.MethodPatch, fiber.MethodDelete, fiber.MethodPut:
		return nil
	default:
		return apperr.PermissionDenied("You do not have permission to perform this action.")
	}
}

// ReviewObject checks object-level access to a review: only the
// reviewer may modify or delete it.
func ReviewObject(user *models.User, review *models.Review, method string) error {
	if user == nil {
		return errNotAuthenticated
	}
	if isSafeMethod(method) {
		return nil
	}
	if review.ReviewerID == user.ID {
		return nil
	}
	return apperr.PermissionDenied("You do not have permission to modify this review.")
}

// ProfileObject checks object-level access to a profile: reads for any
// authenticated user, writes for the owner or staff.
func ProfileObject(user *models.User, profile *models.Profile, method string) error {
	if user == nil {
		return errNotAuthenticated
	}
	if isSafeMethod(method) || user.IsStaff {
		return nil
	}
	if profile.UserID == user.ID {
		return nil
	}
	return apperr.PermissionDenied("You do not have permission to modify this profile.")
}
