package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahaib/ip-analyser-api/shared"
)

type HistoryHandler struct {
	historySvc HistoryServiceInterface
}

func NewHistoryHandler(historySvc HistoryServiceInterface) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// @Summary Get analysis history
// @Description Returns the caller's most recent analysis run summaries
// @Tags history
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} dto.HistoryResponse
// @Router /api/v1/history [get]
func (h *HistoryHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	history, err := h.historySvc.GetHistory(userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, history)
}
