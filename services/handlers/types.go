package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahaib/ip-analyser-api/dto"
)

type AnalyzerServiceInterface interface {
	Analyze(ctx context.Context, ips []string, userID string) []dto.AnalysisResult
}

type TempTokenServiceInterface interface {
	Validate(c *fiber.Ctx, userID, token string) (bool, error)
}

type HistoryServiceInterface interface {
	RecordAnalysis(userID string, results []dto.AnalysisResult, duration time.Duration)
	GetHistory(userID string) (*dto.HistoryResponse, error)
}
