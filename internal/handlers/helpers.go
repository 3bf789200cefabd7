package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/teamshare/backend/internal/apperror"
	"github.com/teamshare/backend/internal/identity"
	"github.com/teamshare/backend/pkg/utils"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, identity.ErrEmailInUse):
		return fiber.StatusConflict
	case errors.Is(err, identity.ErrWeakPassword), errors.Is(err, identity.ErrInvalidEmail):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrAuth), errors.Is(err, apperror.ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotConfirmed):
		return fiber.StatusPreconditionRequired
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrUpload), errors.Is(err, apperror.ErrBlob):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err in the standard envelope, using its user-facing
// message when it has one.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	return utils.Error(c, statusForError(err), apperror.Message(err, fallback))
}
