package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/veridianlabs/sessiond/internal/dto"
	"github.com/veridianlabs/sessiond/internal/services"
)

type NoteHandler struct {
	noteService *services.NoteService
}

func NewNoteHandler(noteService *services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// Save handles POST /db: store a piece of text for the token's owner.
func (h *NoteHandler) Save(c *fiber.Ctx) error {
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "Token is required")
	}
	if req.Text == "" {
		return badRequest(c, "Text is required")
	}

	if err := h.noteService.Save(c.Context(), req.Token, req.Text); err != nil {
		if errors.Is(err, services.ErrUserDoesntExist) {
			return unauthorized(c, "User doesn't exist")
		}
		return internalError(c)
	}

	return c.JSON(dto.StatusResponse{Status: "successful"})
}
