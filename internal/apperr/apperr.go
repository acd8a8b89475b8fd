// Package apperr is the error taxonomy shared by every endpoint. Handlers
// return these errors; a single fiber ErrorHandler translates them to
// status codes and response envelopes.
package apperr

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

// Error is a classified request failure. Fields is set only for
// validation failures and is rendered as a field-keyed message map;
// every other kind renders as {"detail": ...}.
type Error struct {
	Status int
	Detail string
	Fields map[string][]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	for field, messages := range e.Fields {
		if len(messages) > 0 {
			return field + ": " + messages[0]
		}
	}
	return "request failed"
}

// NotAuthenticated reports a missing or invalid credential (401).
func NotAuthenticated(detail string) *Error {
	return &Error{Status: fiber.StatusUnauthorized, Detail: detail}
}

// PermissionDenied reports an authenticated actor without rights (403).
func PermissionDenied(detail string) *Error {
	return &Error{Status: fiber.StatusForbidden, Detail: detail}
}

// BadRequest reports a request that could not be parsed at all (400).
func BadRequest(detail string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Detail: detail}
}

// NotFound reports a missing resource or parent (404).
func NotFound(detail string) *Error {
	return &Error{Status: fiber.StatusNotFound, Detail: detail}
}

// MethodNotAllowed reports an explicitly disabled verb (405).
func MethodNotAllowed(detail string) *Error {
	return &Error{Status: fiber.StatusMethodNotAllowed, Detail: detail}
}

// Validation reports malformed or conflicting input (400). The map keys
// are field names; "non_field_errors" carries cross-field messages.
func Validation(fields map[string][]string) *Error {
	return &Error{Status: fiber.StatusBadRequest, Fields: fields}
}

// ValidationField is shorthand for a single-field validation failure.
func ValidationField(field, message string) *Error {
	return Validation(map[string][]string{field: {message}})
}

// NonFieldError is shorthand for a validation failure not tied to one field.
func NonFieldError(message string) *Error {
	return ValidationField("non_field_errors", message)
}

// Handler returns the fiber error handler mapping the taxonomy onto HTTP
// responses. Unclassified errors become opaque 500s; the underlying error
// is logged server-side only, unless debug mode is enabled.
func Handler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *Error
		if errors.As(err, &appErr) {
			if appErr.Fields != nil {
				return c.Status(appErr.Status).JSON(appErr.Fields)
			}
			return c.Status(appErr.Status).JSON(fiber.Map{"detail": appErr.Detail})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"detail": fiberErr.Message})
		}

		log.Printf("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		detail := "Internal server error."
		if debug {
			detail = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": detail})
	}
}
