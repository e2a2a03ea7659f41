package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/sahaib/ip-analyser-api/dto"
	"github.com/sahaib/ip-analyser-api/shared"
)

// GeolocationService enriches a single IP via the external lookup service.
// Lookups never fail the caller: anything short of a success indicator
// yields the "Unknown" sentinel record with absent coordinates.
type GeolocationService struct {
	appContext.DefaultService

	httpClient  *http.Client
	apiURL      string
	redisSvc    *RedisService
	cacheExpiry time.Duration
}

const GEOLOCATION_SVC = "geolocation_svc"

func (svc GeolocationService) Id() string {
	return GEOLOCATION_SVC
}

func (svc *GeolocationService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 10 * time.Second,
	}
	svc.apiURL = os.Getenv("IP_API_URL")
	if svc.apiURL == "" {
		svc.apiURL = "http://ip-api.com/json"
	}
	svc.cacheExpiry = 24 * time.Hour
	return svc.DefaultService.Configure(ctx)
}

func (svc *GeolocationService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func (svc *GeolocationService) Lookup(ctx context.Context, ip string) *dto.IPInfo {
	cacheKey := geoCacheKey(ip)

	if svc.redisSvc != nil {
		var cached dto.IPInfo
		err := svc.redisSvc.GetJSON(ctx, cacheKey, &cached)
		if err == nil && cached.Country != "" {
			geolocationCacheHitsTotal.Inc()
			log.WithField("ip", ip).Debug("Geolocation cache hit")
			return &cached
		}
	}

	url := fmt.Sprintf("%s/%s?fields=status,message,country,regionName,city,isp,org,as,lat,lon", svc.apiURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to build geolocation request")
		return unknownIPInfo()
	}

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to get geolocation")
		return unknownIPInfo()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).WithField("ip", ip).Error("Geolocation API returned non-200 status")
		return unknownIPInfo()
	}

	var result struct {
		Status     string  `json:"status"`
		Message    string  `json:"message"`
		Country    string  `json:"country"`
		RegionName string  `json:"regionName"`
		City       string  `json:"city"`
		ISP        string  `json:"isp"`
		Org        string  `json:"org"`
		AS         string  `json:"as"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to decode geolocation response")
		return unknownIPInfo()
	}

	if result.Status != "success" {
		log.WithField("ip", ip).WithField("message", result.Message).Warn("Geolocation lookup failed")
		return unknownIPInfo()
	}

	lat, lon := result.Lat, result.Lon
	info := &dto.IPInfo{
		Country: orUnknown(result.Country),
		Region:  orUnknown(result.RegionName),
		City:    orUnknown(result.City),
		ISP:     orUnknown(result.ISP),
		Org:     orUnknown(result.Org),
		AS:      orUnknown(result.AS),
		Lat:     &lat,
		Lon:     &lon,
	}

	// Only successful lookups are cached; sentinels must stay retryable.
	if svc.redisSvc != nil {
		if err := svc.redisSvc.Set(ctx, cacheKey, info, svc.cacheExpiry); err != nil {
			log.WithError(err).WithField("ip", ip).Warn("Failed to cache geolocation result")
		}
	}

	return info
}

func (svc *GeolocationService) ClearCache(ctx context.Context, ip string) error {
	if svc.redisSvc == nil {
		return fmt.Errorf("redis service not available")
	}

	return svc.redisSvc.Delete(ctx, geoCacheKey(ip))
}

func geoCacheKey(ip string) string {
	return fmt.Sprintf("geolocation:%s", ip)
}

func unknownIPInfo() *dto.IPInfo {
	return &dto.IPInfo{
		Country: shared.UnknownField,
		Region:  shared.UnknownField,
		City:    shared.UnknownField,
		ISP:     shared.UnknownField,
		Org:     shared.UnknownField,
		AS:      shared.UnknownField,
	}
}

func orUnknown(v string) string {
	if v == "" {
		return shared.UnknownField
	}
	return v
}
