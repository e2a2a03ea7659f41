package main

import (
	"github.com/sahaib/ip-analyser-api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title IP Analyser API
// @version 1.0
// @description IP analysis backend: geolocation, reputation and rate-limited admission
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.RedisService{},
		&services.PostgresService{},
		&services.JWTService{},
		&services.AuthMiddleware{},
		&services.MonitoringService{},

		&services.GeolocationService{},
		&services.ReputationService{},
		&services.QuotaService{},
		&services.TempTokenService{},
		&services.AdmissionService{},
		&services.AnalyzerService{},
		&services.HistoryService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
