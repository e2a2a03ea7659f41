package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/sahaib/ip-analyser-api/dto"
	"github.com/sahaib/ip-analyser-api/shared"
)

// ReputationService asks an OpenAI-compatible chat endpoint for a threat
// assessment of a single IP. The upstream is optional: when unconfigured,
// unreachable, or returning malformed JSON the caller simply gets nil.
type ReputationService struct {
	appContext.DefaultService

	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
}

const REPUTATION_SVC = "reputation_svc"

const reputationPrompt = `You are an IP reputation analyst. For the IP address provided, respond with a single JSON object and nothing else, using exactly these fields: "status" (one of "clean", "suspicious", "malicious"), "confidence_score" (0-100), "risk_factors" (array of strings), "threat_categories" (array of strings), "recommendations" (array of strings), "sources" (array of strings), "last_reported" (ISO date or empty string), "details" (string).`

func (svc ReputationService) Id() string {
	return REPUTATION_SVC
}

func (svc *ReputationService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 25 * time.Second,
	}
	svc.apiURL = os.Getenv("REPUTATION_API_URL")
	svc.apiKey = os.Getenv("REPUTATION_API_KEY")
	svc.model = os.Getenv("REPUTATION_MODEL")
	if svc.model == "" {
		svc.model = "gpt-4o-mini"
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *ReputationService) Start() error {
	if !svc.Enabled() {
		log.Info("Reputation service disabled, no upstream configured")
	}
	return nil
}

func (svc *ReputationService) Enabled() bool {
	return svc.apiURL != "" && svc.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Assess runs the fixed structured-analysis prompt for one IP. Any failure
// mode, transport, envelope, or malformed model output, yields nil rather
// than an error so a flaky model never fails an analysis item.
func (svc *ReputationService) Assess(ctx context.Context, ip string) *dto.Reputation {
	if !svc.Enabled() {
		return nil
	}

	payload, err := sonic.Marshal(chatRequest{
		Model: svc.model,
		Messages: []chatMessage{
			{Role: "system", Content: reputationPrompt},
			{Role: "user", Content: ip},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", svc.apiKey))

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		reputationQueriesTotal.WithLabelValues("transport_error").Inc()
		log.WithError(err).WithField("ip", ip).Warn("Reputation request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		reputationQueriesTotal.WithLabelValues("upstream_error").Inc()
		log.WithField("status", resp.StatusCode).WithField("ip", ip).Warn("Reputation upstream returned non-200 status")
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		reputationQueriesTotal.WithLabelValues("transport_error").Inc()
		return nil
	}

	var envelope chatResponse
	if err := sonic.Unmarshal(body, &envelope); err != nil || len(envelope.Choices) == 0 {
		reputationQueriesTotal.WithLabelValues("parse_error").Inc()
		log.WithError(err).WithField("ip", ip).Warn("Failed to decode reputation envelope")
		return nil
	}

	reputation := parseReputation(envelope.Choices[0].Message.Content)
	if reputation == nil {
		reputationQueriesTotal.WithLabelValues("parse_error").Inc()
		log.WithField("ip", ip).Warn("Reputation model returned malformed JSON")
		return nil
	}

	reputationQueriesTotal.WithLabelValues("success").Inc()
	return reputation
}

// parseReputation expects strict JSON from the model but tolerates markdown
// code fences, the one formatting habit models cannot seem to drop.
func parseReputation(content string) *dto.Reputation {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var reputation dto.Reputation
	if err := sonic.Unmarshal([]byte(content), &reputation); err != nil {
		return nil
	}

	switch reputation.Status {
	case shared.ReputationClean, shared.ReputationSuspicious, shared.ReputationMalicious:
		return &reputation
	default:
		return nil
	}
}
