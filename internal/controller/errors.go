package controller

import (
	"errors"

	"docuwise-client/pkg/assistant"
	"docuwise-client/pkg/backend"
	"docuwise-client/pkg/documents"
	"docuwise-client/pkg/viewer"

	"github.com/gofiber/fiber/v2"
)

// httpError maps domain errors to status codes. Backend failures the user can
// retry are reported as 502.
func httpError(err error) error {
	var me *documents.MutationError
	var se *backend.StatusError

	switch {
	case errors.Is(err, documents.ErrNotPDF),
		errors.Is(err, documents.ErrNoFiles),
		errors.Is(err, documents.ErrEmptyID),
		errors.Is(err, assistant.ErrNoSnippets):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, documents.ErrNotListed):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, viewer.ErrStaleHandle):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, viewer.ErrUnknownEvent),
		errors.Is(err, assistant.ErrEmptyMessage):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &me),
		errors.As(err, &se),
		errors.Is(err, assistant.ErrNoAudio):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return err
}
