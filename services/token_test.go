package services

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahaib/ip-analyser-api/shared"
)

func newTokenTestApp(svc *TempTokenService) *fiber.App {
	app := fiber.New()
	app.Post("/issue", func(c *fiber.Ctx) error {
		token, err := svc.Issue(c, "user-1")
		if err != nil {
			return err
		}
		return c.SendString(token)
	})
	app.Post("/validate", func(c *fiber.Ctx) error {
		valid, err := svc.Validate(c, "user-1", c.Query("token"))
		if err != nil {
			return err
		}
		if valid {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.SendStatus(fiber.StatusUnauthorized)
	})
	return app
}

func issueToken(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("POST", "/issue", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func validateToken(t *testing.T, app *fiber.App, token string) bool {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest("POST", "/validate?token="+token, nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode == fiber.StatusOK
}

func TestTempTokenSingleUse(t *testing.T) {
	rs, _ := newTestRedis(t)
	svc := &TempTokenService{redisSvc: rs, expiry: 30 * time.Second}
	app := newTokenTestApp(svc)

	token := issueToken(t, app)
	require.NotEmpty(t, token)

	assert.True(t, validateToken(t, app, token))
	assert.False(t, validateToken(t, app, token), "second validation must fail")
}

func TestTempTokenExpires(t *testing.T) {
	rs, mr := newTestRedis(t)
	svc := &TempTokenService{redisSvc: rs, expiry: 30 * time.Second}
	app := newTokenTestApp(svc)

	token := issueToken(t, app)
	mr.FastForward(31 * time.Second)

	assert.False(t, validateToken(t, app, token))
}

func TestTempTokenUnknownRejected(t *testing.T) {
	rs, _ := newTestRedis(t)
	svc := &TempTokenService{redisSvc: rs, expiry: 30 * time.Second}
	app := newTokenTestApp(svc)

	assert.False(t, validateToken(t, app, "never-issued"))
}

func TestAttachTokenSetsHeader(t *testing.T) {
	rs, _ := newTestRedis(t)
	svc := &TempTokenService{redisSvc: rs, expiry: 30 * time.Second}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(shared.UserID, "user-1")
		return c.Next()
	})
	app.Use(svc.AttachToken())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get(shared.HeaderTempToken))
}

func TestAttachTokenSkipsAnonymous(t *testing.T) {
	rs, _ := newTestRedis(t)
	svc := &TempTokenService{redisSvc: rs, expiry: 30 * time.Second}

	app := fiber.New()
	app.Use(svc.AttachToken())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(shared.HeaderTempToken))
}
