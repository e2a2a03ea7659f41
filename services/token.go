package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sahaib/ip-analyser-api/shared"
)

// TempTokenService mints the short-lived single-use tokens attached to every
// authenticated API response. Validation consumes the token atomically, so a
// replayed request can never validate twice.
type TempTokenService struct {
	context.DefaultService

	redisSvc *RedisService
	expiry   time.Duration
}

const TEMP_TOKEN_SVC = "temp_token_svc"

func (svc TempTokenService) Id() string {
	return TEMP_TOKEN_SVC
}

func (svc *TempTokenService) Configure(ctx *context.Context) error {
	expirySeconds := 30
	if v := os.Getenv("TOKEN_EXPIRY_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			expirySeconds = n
		}
	}
	svc.expiry = time.Duration(expirySeconds) * time.Second

	return svc.DefaultService.Configure(ctx)
}

func (svc *TempTokenService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func (svc *TempTokenService) Issue(c *fiber.Ctx, userID string) (string, error) {
	token := uuid.NewString()
	key := tokenKey(userID, token)

	if err := svc.redisSvc.SetEx(c.UserContext(), key, "1", svc.expiry); err != nil {
		return "", err
	}

	return token, nil
}

// Validate consumes the token. The GETDEL makes it single-use: a second
// validation with the same pair always fails.
func (svc *TempTokenService) Validate(c *fiber.Ctx, userID, token string) (bool, error) {
	val, err := svc.redisSvc.GetDel(c.UserContext(), tokenKey(userID, token))
	if err != nil {
		return false, err
	}
	return val != "", nil
}

// AttachToken issues a fresh token for the authenticated caller and exposes
// it on the response. Issuance failures are logged, not fatal; replay
// protection degrades rather than blocking the request.
func (svc *TempTokenService) AttachToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(shared.UserID).(string)
		if !ok || userID == "" {
			return c.Next()
		}

		token, err := svc.Issue(c, userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Failed to issue temp token")
			return c.Next()
		}

		c.Set(shared.HeaderTempToken, token)
		return c.Next()
	}
}

func tokenKey(userID, token string) string {
	return fmt.Sprintf("token:%s:%s", userID, token)
}
