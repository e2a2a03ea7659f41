package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"

	_ "github.com/sahaib/ip-analyser-api/docs"
	"github.com/sahaib/ip-analyser-api/services/handlers"
	"github.com/sahaib/ip-analyser-api/shared"
)

type HttpService struct {
	context.DefaultService

	authSvc      *AuthMiddleware
	admissionSvc *AdmissionService
	tokenSvc     *TempTokenService
	analyzerSvc  *AnalyzerService
	historySvc   *HistoryService

	port   int
	maxIPs int
	app    *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	svc.maxIPs = envInt("MAX_IPS", 1000)

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_MIDDLEWARE_SVC).(*AuthMiddleware)
	svc.admissionSvc = svc.Service(ADMISSION_SVC).(*AdmissionService)
	svc.tokenSvc = svc.Service(TEMP_TOKEN_SVC).(*TempTokenService)
	svc.analyzerSvc = svc.Service(ANALYZER_SVC).(*AnalyzerService)
	svc.historySvc = svc.Service(HISTORY_SVC).(*HistoryService)

	svc.app = svc.createApp()

	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

func (svc *HttpService) createApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: svc.handleError,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "X-Temp-Token, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After",
	}))
	app.Use(MonitoringMiddleware())
	app.Use(svc.admissionSvc.Gate())

	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Entry-path redirects mirror what the dashboard frontend expects:
	// authenticated callers land on /dashboard, everyone else on /.
	app.Get("/", svc.authSvc.OptionalAuth(), svc.root)
	app.Get("/dashboard", svc.authSvc.OptionalAuth(), svc.dashboard)

	analyzeHandler := handlers.NewAnalyzeHandler(svc.analyzerSvc, svc.historySvc, svc.maxIPs)
	tokenHandler := handlers.NewTokenHandler(svc.tokenSvc)
	historyHandler := handlers.NewHistoryHandler(svc.historySvc)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)
	v1.Post("/analyze", svc.authSvc.RequiredAuth(), svc.tokenSvc.AttachToken(), analyzeHandler.Analyze)
	v1.Post("/token/verify", svc.authSvc.RequiredAuth(), svc.tokenSvc.AttachToken(), tokenHandler.Verify)
	v1.Get("/history", svc.authSvc.RequiredAuth(), svc.tokenSvc.AttachToken(), historyHandler.GetHistory)

	return app
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, fiber.Map{"status": "pong"})
}

func (svc *HttpService) root(c *fiber.Ctx) error {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return shared.ResponseJSON(c, fiber.StatusOK, fiber.Map{"service": SERVICE_NAME})
}

func (svc *HttpService) dashboard(c *fiber.Ctx) error {
	userID, ok := c.Locals(shared.UserID).(string)
	if !ok || userID == "" {
		return c.Redirect("/", fiber.StatusFound)
	}
	return shared.ResponseJSON(c, fiber.StatusOK, fiber.Map{"user_id": userID})
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		return shared.ResponseError(c, appErr.StatusCode, appErr.Message)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseError(c, fiberErr.Code, fiberErr.Message)
	}

	return shared.ResponseInternalError(c, err)
}
