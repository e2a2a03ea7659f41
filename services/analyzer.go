package services

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/sahaib/ip-analyser-api/dto"
)

// Pacer injects a pause between analysis batches. The default pacer sleeps a
// fixed duration; tests swap in a no-op so batch behaviour runs instantly.
type Pacer interface {
	Pause(ctx context.Context)
}

type delayPacer struct {
	delay time.Duration
}

func (p delayPacer) Pause(ctx context.Context) {
	if p.delay <= 0 {
		return
	}
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
	}
}

// AnalyzerService fans a list of IPs out across fixed-size batches, enriching
// each with geolocation and, quota permitting, a reputation assessment.
// Results come back in input order and one failed item never poisons the rest.
type AnalyzerService struct {
	appContext.DefaultService

	geoSvc        *GeolocationService
	reputationSvc *ReputationService
	quotaSvc      *QuotaService

	batchSize   int
	itemTimeout time.Duration
	pacer       Pacer
}

const ANALYZER_SVC = "analyzer_svc"

func (svc AnalyzerService) Id() string {
	return ANALYZER_SVC
}

func (svc *AnalyzerService) Configure(ctx *appContext.Context) error {
	svc.batchSize = envInt("ANALYZE_BATCH_SIZE", 5)
	svc.itemTimeout = time.Duration(envInt("ANALYZE_ITEM_TIMEOUT_SECONDS", 30)) * time.Second

	delayMs := 0
	if v := os.Getenv("BATCH_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			delayMs = n
		}
	}
	svc.pacer = delayPacer{delay: time.Duration(delayMs) * time.Millisecond}

	return svc.DefaultService.Configure(ctx)
}

func (svc *AnalyzerService) Start() error {
	svc.geoSvc = svc.Service(GEOLOCATION_SVC).(*GeolocationService)
	svc.reputationSvc = svc.Service(REPUTATION_SVC).(*ReputationService)
	svc.quotaSvc = svc.Service(QUOTA_SVC).(*QuotaService)
	return nil
}

// Analyze processes ips in batches of batchSize, items within a batch running
// concurrently. The result slice is index-aligned with the input.
func (svc *AnalyzerService) Analyze(ctx context.Context, ips []string, userID string) []dto.AnalysisResult {
	results := make([]dto.AnalysisResult, len(ips))

	for start := 0; start < len(ips); start += svc.batchSize {
		end := start + svc.batchSize
		if end > len(ips) {
			end = len(ips)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = svc.analyzeOne(ctx, ips[idx], userID)
			}(i)
		}
		wg.Wait()

		if end < len(ips) {
			svc.pacer.Pause(ctx)
		}
	}

	for _, r := range results {
		analyzeItemsTotal.WithLabelValues(r.Status).Inc()
	}

	return results
}

func (svc *AnalyzerService) analyzeOne(ctx context.Context, ip, userID string) dto.AnalysisResult {
	itemCtx, cancel := context.WithTimeout(ctx, svc.itemTimeout)
	defer cancel()

	done := make(chan dto.AnalysisResult, 1)
	go func() {
		done <- svc.enrich(itemCtx, ip, userID)
	}()

	select {
	case result := <-done:
		return result
	case <-itemCtx.Done():
		log.WithField("ip", ip).Warn("Analysis item timed out")
		return dto.AnalysisResult{
			IP:     ip,
			Status: dto.ResultError,
			Error:  "analysis timed out",
		}
	}
}

func (svc *AnalyzerService) enrich(ctx context.Context, ip, userID string) dto.AnalysisResult {
	info := svc.geoSvc.Lookup(ctx, ip)

	var reputation *dto.Reputation
	if svc.reputationSvc.Enabled() {
		allowed, err := svc.quotaSvc.Allow(ctx, userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Quota check failed, skipping reputation")
		} else if allowed {
			reputation = svc.reputationSvc.Assess(ctx, ip)
		} else {
			log.WithField("user_id", userID).WithField("ip", ip).Debug("Reputation quota exhausted")
		}
	}

	return dto.AnalysisResult{
		IP:         ip,
		IPInfo:     info,
		Reputation: reputation,
		Status:     dto.ResultSuccess,
	}
}
