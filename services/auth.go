package services

import (
	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"

	"github.com/sahaib/ip-analyser-api/shared"
)

type AuthMiddleware struct {
	context.DefaultService

	jwtSvc *JWTService
}

const AUTH_MIDDLEWARE_SVC = "auth"

func (svc AuthMiddleware) Id() string {
	return AUTH_MIDDLEWARE_SVC
}

func (svc *AuthMiddleware) Configure(ctx *context.Context) error {
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthMiddleware) Start() error {
	return nil
}

// RequiredAuth rejects requests without a verifiable bearer token.
func (svc *AuthMiddleware) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := svc.userIDFromRequest(c)
		if userID == "" {
			return shared.ResponseError(c, fiber.StatusUnauthorized, "Unauthorized - User not authenticated")
		}

		c.Locals(shared.UserID, userID)
		return c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a valid token is present
// but never rejects; the entry-path redirects depend on it.
func (svc *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID := svc.userIDFromRequest(c); userID != "" {
			c.Locals(shared.UserID, userID)
		}
		return c.Next()
	}
}

func (svc *AuthMiddleware) userIDFromRequest(c *fiber.Ctx) string {
	token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return ""
	}

	userID, err := svc.jwtSvc.VerifyJWTToken(token)
	if err != nil {
		return ""
	}

	return userID
}
