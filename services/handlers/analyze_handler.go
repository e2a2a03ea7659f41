package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahaib/ip-analyser-api/dto"
	"github.com/sahaib/ip-analyser-api/shared"
)

type AnalyzeHandler struct {
	analyzerSvc AnalyzerServiceInterface
	historySvc  HistoryServiceInterface

	maxIPs int
}

func NewAnalyzeHandler(analyzerSvc AnalyzerServiceInterface, historySvc HistoryServiceInterface, maxIPs int) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzerSvc: analyzerSvc,
		historySvc:  historySvc,
		maxIPs:      maxIPs,
	}
}

// @Summary Analyze IP addresses
// @Description Geolocates and optionally reputation-scores a batch of IPs
// @Tags analyze
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param analyzeRequest body dto.AnalyzeRequest true "IPs to analyze"
// @Param format query string false "Response shape, set to legacy for the flat variant"
// @Success 200 {object} dto.AnalyzeResponse
// @Failure 400 {object} shared.ErrorBody
// @Router /api/v1/analyze [post]
func (h *AnalyzeHandler) Analyze(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		// An unparseable body is a transport-level failure, not a
		// validation one; the error handler turns it into the 500 envelope.
		return err
	}

	if len(req.IPs) == 0 {
		return shared.ResponseError(c, fiber.StatusBadRequest, "Invalid input")
	}

	if len(req.IPs) > h.maxIPs {
		return shared.ResponseError(c, fiber.StatusBadRequest,
			fmt.Sprintf("Too many IPs. Maximum allowed is %d.", h.maxIPs))
	}

	ips := dto.FilterValidIPs(req.IPs)
	if len(ips) == 0 {
		return shared.ResponseError(c, fiber.StatusBadRequest, "No valid IP addresses provided")
	}

	start := time.Now()
	results := h.analyzerSvc.Analyze(c.UserContext(), ips, userID)
	duration := time.Since(start)

	go h.historySvc.RecordAnalysis(userID, results, duration)

	if c.Query("format") == "legacy" {
		return shared.ResponseJSON(c, fiber.StatusOK, dto.ToLegacyResponse(results))
	}

	return shared.ResponseJSON(c, fiber.StatusOK, dto.AnalyzeResponse{Results: results})
}
