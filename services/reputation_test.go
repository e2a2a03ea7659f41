package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahaib/ip-analyser-api/shared"
)

func newReputationUpstream(content string, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		if status != http.StatusOK {
			return
		}
		envelope := fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
		fmt.Fprint(w, envelope)
	}))
}

func newTestReputation(apiURL string) *ReputationService {
	return &ReputationService{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		apiURL:     apiURL,
		apiKey:     "test-key",
		model:      "test-model",
	}
}

func TestParseReputation(t *testing.T) {
	rep := parseReputation(`{"status":"malicious","confidence_score":91,"risk_factors":["botnet"]}`)
	require.NotNil(t, rep)
	assert.Equal(t, shared.ReputationMalicious, rep.Status)
	assert.EqualValues(t, 91, rep.ConfidenceScore)
	assert.Equal(t, []string{"botnet"}, rep.RiskFactors)
}

func TestParseReputationStripsCodeFences(t *testing.T) {
	rep := parseReputation("```json\n{\"status\":\"clean\"}\n```")
	require.NotNil(t, rep)
	assert.Equal(t, shared.ReputationClean, rep.Status)
}

func TestParseReputationRejectsMalformedJSON(t *testing.T) {
	assert.Nil(t, parseReputation("the IP looks fine to me"))
}

func TestParseReputationRejectsUnknownStatus(t *testing.T) {
	assert.Nil(t, parseReputation(`{"status":"probably fine"}`))
}

func TestAssessSuccess(t *testing.T) {
	srv := newReputationUpstream(`{"status":"suspicious","confidence_score":55}`, http.StatusOK)
	defer srv.Close()

	svc := newTestReputation(srv.URL)
	rep := svc.Assess(context.Background(), "1.2.3.4")

	require.NotNil(t, rep)
	assert.Equal(t, shared.ReputationSuspicious, rep.Status)
}

func TestAssessUpstreamErrorYieldsNil(t *testing.T) {
	srv := newReputationUpstream("", http.StatusBadGateway)
	defer srv.Close()

	svc := newTestReputation(srv.URL)
	assert.Nil(t, svc.Assess(context.Background(), "1.2.3.4"))
}

func TestAssessMalformedModelOutputYieldsNil(t *testing.T) {
	srv := newReputationUpstream("not json at all", http.StatusOK)
	defer srv.Close()

	svc := newTestReputation(srv.URL)
	assert.Nil(t, svc.Assess(context.Background(), "1.2.3.4"))
}

func TestAssessDisabledWithoutConfig(t *testing.T) {
	svc := &ReputationService{}
	assert.False(t, svc.Enabled())
	assert.Nil(t, svc.Assess(context.Background(), "1.2.3.4"))
}
