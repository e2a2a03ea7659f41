package services

import (
	"context"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
)

// QuotaService limits how often a single user may hit the reputation
// upstream. Its key space is independent of the admission gate: a user can
// be within the general rate limit and still out of reputation quota.
type QuotaService struct {
	appContext.DefaultService

	redisSvc *RedisService

	limit  int
	window time.Duration
}

const QUOTA_SVC = "quota_svc"

func (svc QuotaService) Id() string {
	return QUOTA_SVC
}

func (svc *QuotaService) Configure(ctx *appContext.Context) error {
	svc.limit = envInt("QUOTA_LIMIT", 10)
	svc.window = time.Duration(envInt("QUOTA_WINDOW_SECONDS", 60)) * time.Second

	return svc.DefaultService.Configure(ctx)
}

func (svc *QuotaService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// Allow atomically consumes one unit of the user's quota window.
func (svc *QuotaService) Allow(ctx context.Context, userID string) (bool, error) {
	key := quotaKey(userID)

	count, err := svc.redisSvc.Increment(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := svc.redisSvc.Expire(ctx, key, svc.window); err != nil {
			return false, err
		}
	}

	if count > int64(svc.limit) {
		quotaDenialsTotal.Inc()
		return false, nil
	}

	return true, nil
}

func quotaKey(userID string) string {
	return fmt.Sprintf("quota:%s", userID)
}
