package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-portal/internal/api/dto"
	"github.com/spec-kit/shop-portal/internal/service"
)

// AuthHandler serves portal login.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	account, token, exp, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		AccountID:   account.ID,
		Kind:        account.Kind,
		CustomerID:  account.CustomerID,
	}})
}
