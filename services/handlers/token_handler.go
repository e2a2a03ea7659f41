package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahaib/ip-analyser-api/dto"
	"github.com/sahaib/ip-analyser-api/shared"
)

type TokenHandler struct {
	tokenSvc TempTokenServiceInterface
}

func NewTokenHandler(tokenSvc TempTokenServiceInterface) *TokenHandler {
	return &TokenHandler{tokenSvc: tokenSvc}
}

// @Summary Verify a temp token
// @Description Consumes a single-use temp token issued on a prior response
// @Tags token
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param verifyRequest body dto.VerifyTokenRequest true "Token to verify"
// @Success 200 {object} dto.VerifyTokenResponse
// @Failure 400 {object} shared.ErrorBody
// @Router /api/v1/token/verify [post]
func (h *TokenHandler) Verify(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.VerifyTokenRequest
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return shared.ResponseError(c, fiber.StatusBadRequest, "Token is required")
	}

	valid, err := h.tokenSvc.Validate(c, userID, req.Token)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, dto.VerifyTokenResponse{Valid: valid})
}
