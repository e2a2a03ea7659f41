package services

import (
	"errors"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/sahaib/ip-analyser-api/dto"
	"github.com/sahaib/ip-analyser-api/model"
	"github.com/sahaib/ip-analyser-api/shared"
)

// HistoryService keeps a per-user summary of past analysis runs so the
// dashboard can show recent searches without re-running them.
type HistoryService struct {
	appContext.DefaultService

	sqlSvc *PostgresService

	historyLimit int
}

const HISTORY_SVC = "history_svc"

func (svc HistoryService) Id() string {
	return HISTORY_SVC
}

func (svc *HistoryService) Configure(ctx *appContext.Context) error {
	svc.historyLimit = envInt("HISTORY_LIMIT", 20)
	return svc.DefaultService.Configure(ctx)
}

func (svc *HistoryService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// summarizeResults reduces one completed run to the per-user record the
// dashboard shows. Unresolved countries are left out of the top-country tally.
func summarizeResults(userID string, results []dto.AnalysisResult, duration time.Duration) *model.AnalysisRecord {
	successCount := 0
	errorCount := 0
	countries := map[string]int{}

	for _, r := range results {
		if r.Status == dto.ResultSuccess {
			successCount++
		} else {
			errorCount++
		}
		if r.IPInfo != nil && r.IPInfo.Country != shared.UnknownField {
			countries[r.IPInfo.Country]++
		}
	}

	topCountry := ""
	topCount := 0
	for country, count := range countries {
		if count > topCount {
			topCountry = country
			topCount = count
		}
	}

	return &model.AnalysisRecord{
		UserID:       userID,
		IPCount:      len(results),
		SuccessCount: successCount,
		ErrorCount:   errorCount,
		TopCountry:   topCountry,
		DurationMs:   duration.Milliseconds(),
	}
}

// RecordAnalysis summarises one completed run and persists it. Failures are
// logged only; history is best-effort and never fails an analysis response.
func (svc *HistoryService) RecordAnalysis(userID string, results []dto.AnalysisResult, duration time.Duration) {
	if svc.sqlSvc == nil {
		return
	}

	record := summarizeResults(userID, results, duration)

	if _, err := svc.sqlSvc.CreateAnalysisRecord(record); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to record analysis history")
	}
}

func (svc *HistoryService) GetHistory(userID string) (*dto.HistoryResponse, error) {
	if svc.sqlSvc == nil {
		return nil, errors.New("sql service not initialized")
	}

	records, err := svc.sqlSvc.GetUserAnalysisRecords(userID, svc.historyLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.HistoryEntry, len(records))
	for i, r := range records {
		entries[i] = dto.HistoryEntry{
			ID:           r.ID,
			IPCount:      r.IPCount,
			SuccessCount: r.SuccessCount,
			ErrorCount:   r.ErrorCount,
			TopCountry:   r.TopCountry,
			DurationMs:   r.DurationMs,
			CreatedAt:    r.CreatedAt,
		}
	}

	return &dto.HistoryResponse{Entries: entries}, nil
}
