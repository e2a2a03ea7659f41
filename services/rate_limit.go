package services

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/sahaib/ip-analyser-api/dto"
	"github.com/sahaib/ip-analyser-api/shared"
	log "github.com/sirupsen/logrus"
)

// AdmissionService sits in front of every route. Blocked identities are
// rejected on any path; rate counters only apply under the API prefix.
// All state lives in Redis so admission stays correct across instances.
type AdmissionService struct {
	context.DefaultService

	redisSvc *RedisService

	limit       int
	window      time.Duration
	maxAttempts int
	blockTTL    time.Duration
	apiPrefix   string
}

const ADMISSION_SVC = "admission_svc"

func (svc AdmissionService) Id() string {
	return ADMISSION_SVC
}

func (svc *AdmissionService) Configure(ctx *context.Context) error {
	svc.limit = envInt("API_RATE_LIMIT", 20)
	svc.window = time.Duration(envInt("RATE_WINDOW_SECONDS", 120)) * time.Second
	svc.maxAttempts = envInt("MAX_ATTEMPTS", 3)
	// The block is deliberately short; continued abuse re-triggers it.
	svc.blockTTL = time.Duration(envInt("TOKEN_EXPIRY_SECONDS", 30)) * time.Second
	svc.apiPrefix = "/api/"

	return svc.DefaultService.Configure(ctx)
}

func (svc *AdmissionService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// Check increments the identity's window counter and decides admission.
// Crossing the limit bumps the attempt counter; too many rate-limited
// windows sets the block flag.
func (svc *AdmissionService) Check(c *fiber.Ctx, identity string) (*dto.RateLimitInfo, error) {
	ctx := c.UserContext()

	count, err := svc.redisSvc.Increment(ctx, rateKey(identity))
	if err != nil {
		return nil, err
	}

	if count == 1 {
		if err := svc.redisSvc.Expire(ctx, rateKey(identity), svc.window); err != nil {
			return nil, err
		}
	}

	// The advertised reset must track the key's real expiry, not drift
	// forward with every request in the window.
	ttl, err := svc.redisSvc.TTL(ctx, rateKey(identity))
	if err != nil || ttl <= 0 {
		ttl = svc.window
	}

	if count > int64(svc.limit) {
		attempts, err := svc.redisSvc.Increment(ctx, attemptsKey(identity))
		if err != nil {
			return nil, err
		}
		if attempts == 1 {
			// The attempt counter gets its own window so old offences age out.
			if err := svc.redisSvc.Expire(ctx, attemptsKey(identity), svc.window); err != nil {
				return nil, err
			}
		}

		if attempts > int64(svc.maxAttempts) {
			if err := svc.redisSvc.SetEx(ctx, blockKey(identity), "1", svc.blockTTL); err != nil {
				return nil, err
			}
			log.WithField("identity", identity).Warn("Identity blocked after repeated rate limit violations")
		}

		return &dto.RateLimitInfo{
			Allowed:    false,
			Limit:      svc.limit,
			Remaining:  0,
			RetryAfter: int(ttl.Seconds()),
		}, nil
	}

	resetTime := time.Now().Add(ttl)
	return &dto.RateLimitInfo{
		Allowed:   true,
		Limit:     svc.limit,
		Remaining: svc.limit - int(count),
		ResetTime: &resetTime,
	}, nil
}

func (svc *AdmissionService) IsBlocked(c *fiber.Ctx, identity string) (bool, error) {
	return svc.redisSvc.Exists(c.UserContext(), blockKey(identity))
}

// Gate is the admission middleware. Store errors fail open with a logged
// warning: a counter-store outage must not take the whole API down.
func (svc *AdmissionService) Gate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity := getClientIP(c)

		blocked, err := svc.IsBlocked(c, identity)
		if err != nil {
			log.WithError(err).WithField("identity", identity).Warn("Block check failed, failing open")
		} else if blocked {
			blockedRequestsTotal.Inc()
			c.Set(shared.HeaderRetryAfter, strconv.Itoa(int(svc.blockTTL.Seconds())))
			remaining := 0
			return shared.ResponseJSON(c, fiber.StatusTooManyRequests, shared.ErrorBody{
				Error:      "Too many attempts. Please try again later.",
				RetryAfter: int(svc.blockTTL.Seconds()),
				Limit:      svc.limit,
				Remaining:  &remaining,
			})
		}

		if !strings.HasPrefix(c.Path(), svc.apiPrefix) {
			return c.Next()
		}

		info, err := svc.Check(c, identity)
		if err != nil {
			log.WithError(err).WithField("identity", identity).Warn("Rate limit check failed, failing open")
			return c.Next()
		}

		if !info.Allowed {
			rateLimitRejectionsTotal.Inc()
			c.Set(shared.HeaderRetryAfter, strconv.Itoa(info.RetryAfter))
			remaining := 0
			return shared.ResponseJSON(c, fiber.StatusTooManyRequests, shared.ErrorBody{
				Error:      "Rate limit exceeded",
				RetryAfter: info.RetryAfter,
				Limit:      info.Limit,
				Remaining:  &remaining,
			})
		}

		svc.addRateLimitHeaders(c, info)
		return c.Next()
	}
}

func (svc *AdmissionService) addRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	c.Set(shared.HeaderRateLimitLimit, strconv.Itoa(info.Limit))
	c.Set(shared.HeaderRateLimitRemaining, strconv.Itoa(info.Remaining))
	if info.ResetTime != nil {
		c.Set(shared.HeaderRateLimitReset, strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func rateKey(identity string) string {
	return fmt.Sprintf("rate:%s", identity)
}

func attemptsKey(identity string) string {
	return fmt.Sprintf("attempts:%s", identity)
}

func blockKey(identity string) string {
	return fmt.Sprintf("block:%s", identity)
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getClientIP(c *fiber.Ctx) string {
	// Check for forwarded IP first (for load balancers/proxies)
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			ip := strings.TrimSpace(ips[0])
			if ip != "" {
				return ip
			}
		}
	}

	realIP := c.Get("X-Real-IP")
	if realIP != "" {
		return realIP
	}

	cfIP := c.Get("CF-Connecting-IP")
	if cfIP != "" {
		return cfIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}

	return ip
}
