package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/veridianlabs/sessiond/internal/dto"
	"github.com/veridianlabs/sessiond/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /auth. Every authentication failure maps to the same
// 401 body regardless of cause.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "Email is required")
	}
	if req.Password == "" {
		return badRequest(c, "Password is required")
	}

	token, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return unauthorized(c, "Invalid email or password")
		}
		return internalError(c)
	}

	return c.JSON(dto.TokenResponse{Token: token})
}

// Check handles GET /auth. The token is presented as a query parameter and
// resolves to the identity captured at issuance.
func (h *AuthHandler) Check(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return badRequest(c, "Token is required")
	}

	identity, err := h.authService.Check(token)
	if err != nil {
		return unauthorized(c, "User doesn't exist")
	}

	return c.JSON(identity)
}

// Register handles POST /user: create the account and hand back its first
// session token.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "Email is required")
	}
	if req.Password == "" {
		return badRequest(c, "Password is required")
	}

	token, err := h.authService.Register(c.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			return unauthorized(c, "A user with that email already exists")
		}
		return internalError(c)
	}

	return c.JSON(dto.TokenResponse{Token: token})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.APIError{
		Status: fiber.StatusBadRequest, Message: message,
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIError{
		Status: fiber.StatusUnauthorized, Message: message,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.APIError{
		Status: fiber.StatusInternalServerError, Message: "Internal server error",
	})
}
