package services

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*RedisService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	svc := &RedisService{}
	svc.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return svc, mr
}
