package services

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahaib/ip-analyser-api/shared"
)

func newTestAdmission(t *testing.T, limit, maxAttempts int) (*AdmissionService, *RedisService) {
	t.Helper()

	rs, _ := newTestRedis(t)
	return &AdmissionService{
		redisSvc:    rs,
		limit:       limit,
		window:      2 * time.Minute,
		maxAttempts: maxAttempts,
		blockTTL:    30 * time.Second,
		apiPrefix:   "/api/",
	}, rs
}

func newGatedApp(svc *AdmissionService) *fiber.App {
	app := fiber.New()
	app.Use(svc.Gate())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/v1/ping", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func gatedRequest(t *testing.T, app *fiber.App, path, ip string) (int, map[string]string, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("X-Real-IP", ip)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	headers := map[string]string{
		shared.HeaderRateLimitLimit:     resp.Header.Get(shared.HeaderRateLimitLimit),
		shared.HeaderRateLimitRemaining: resp.Header.Get(shared.HeaderRateLimitRemaining),
		shared.HeaderRateLimitReset:     resp.Header.Get(shared.HeaderRateLimitReset),
		shared.HeaderRetryAfter:         resp.Header.Get(shared.HeaderRetryAfter),
	}

	var body map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	return resp.StatusCode, headers, body
}

func TestGateAdmitsUnderLimit(t *testing.T) {
	svc, _ := newTestAdmission(t, 5, 3)
	app := newGatedApp(svc)

	for i := 1; i <= 5; i++ {
		status, headers, _ := gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "5", headers[shared.HeaderRateLimitLimit])
	}
}

func TestGateRejectsOverLimit(t *testing.T) {
	svc, _ := newTestAdmission(t, 3, 5)
	app := newGatedApp(svc)

	for i := 1; i <= 3; i++ {
		status, _, _ := gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
		require.Equal(t, fiber.StatusOK, status)
	}

	status, headers, body := gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.EqualValues(t, 3, body["limit"])
	assert.EqualValues(t, 0, body["remaining"])
	assert.NotEmpty(t, headers[shared.HeaderRetryAfter])
}

func TestGateRemainingDecrements(t *testing.T) {
	svc, _ := newTestAdmission(t, 3, 5)
	app := newGatedApp(svc)

	_, headers, _ := gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	assert.Equal(t, "2", headers[shared.HeaderRateLimitRemaining])

	_, headers, _ = gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	assert.Equal(t, "1", headers[shared.HeaderRateLimitRemaining])
}

func TestGateTracksIdentitiesSeparately(t *testing.T) {
	svc, _ := newTestAdmission(t, 1, 5)
	app := newGatedApp(svc)

	status, _, _ := gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	require.Equal(t, fiber.StatusOK, status)

	status, _, _ = gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	require.Equal(t, fiber.StatusTooManyRequests, status)

	status, _, _ = gatedRequest(t, app, "/api/v1/ping", "5.6.7.8")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestGateIgnoresNonAPIPaths(t *testing.T) {
	svc, _ := newTestAdmission(t, 1, 5)
	app := newGatedApp(svc)

	for i := 0; i < 10; i++ {
		status, _, _ := gatedRequest(t, app, "/ping", "1.2.3.4")
		assert.Equal(t, fiber.StatusOK, status)
	}
}

func TestGateBlocksRepeatOffenders(t *testing.T) {
	svc, _ := newTestAdmission(t, 1, 2)
	app := newGatedApp(svc)

	// First request fills the window; the next three each burn an attempt.
	for i := 0; i < 4; i++ {
		gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	}

	// Once blocked, every path is rejected, not just the API prefix.
	status, _, body := gatedRequest(t, app, "/ping", "1.2.3.4")
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "Too many attempts. Please try again later.", body["error"])
}

func TestGateBlockExpires(t *testing.T) {
	rs, mr := newTestRedis(t)
	svc := &AdmissionService{
		redisSvc:    rs,
		limit:       1,
		window:      time.Minute,
		maxAttempts: 2,
		blockTTL:    30 * time.Second,
		apiPrefix:   "/api/",
	}
	app := newGatedApp(svc)

	for i := 0; i < 4; i++ {
		gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	}

	status, _, _ := gatedRequest(t, app, "/ping", "1.2.3.4")
	require.Equal(t, fiber.StatusTooManyRequests, status)

	mr.FastForward(31 * time.Second)

	status, _, _ = gatedRequest(t, app, "/ping", "1.2.3.4")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestGateResetTracksWindowExpiry(t *testing.T) {
	rs, mr := newTestRedis(t)
	svc := &AdmissionService{
		redisSvc:    rs,
		limit:       5,
		window:      2 * time.Minute,
		maxAttempts: 3,
		blockTTL:    30 * time.Second,
		apiPrefix:   "/api/",
	}
	app := newGatedApp(svc)

	_, headers, _ := gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	first, err := strconv.ParseInt(headers[shared.HeaderRateLimitReset], 10, 64)
	require.NoError(t, err)

	mr.FastForward(60 * time.Second)

	// The window key now has a minute left; the advertised reset must move
	// back with it rather than restart from the current request.
	_, headers, _ = gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
	second, err := strconv.ParseInt(headers[shared.HeaderRateLimitReset], 10, 64)
	require.NoError(t, err)

	assert.InDelta(t, first-60, second, 2)
}

func TestGateFailsOpenOnStoreError(t *testing.T) {
	rs, mr := newTestRedis(t)
	svc := &AdmissionService{
		redisSvc:    rs,
		limit:       1,
		window:      time.Minute,
		maxAttempts: 1,
		blockTTL:    time.Minute,
		apiPrefix:   "/api/",
	}
	app := newGatedApp(svc)

	mr.Close()

	for i := 0; i < 5; i++ {
		status, _, _ := gatedRequest(t, app, "/api/v1/ping", "1.2.3.4")
		assert.Equal(t, fiber.StatusOK, status)
	}
}
