package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaAllowsUpToLimit(t *testing.T) {
	rs, _ := newTestRedis(t)
	svc := &QuotaService{redisSvc: rs, limit: 3, window: time.Minute}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		allowed, err := svc.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := svc.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestQuotaWindowResets(t *testing.T) {
	rs, mr := newTestRedis(t)
	svc := &QuotaService{redisSvc: rs, limit: 1, window: time.Minute}

	ctx := context.Background()
	allowed, err := svc.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(61 * time.Second)

	allowed, err = svc.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestQuotaIsPerUser(t *testing.T) {
	rs, _ := newTestRedis(t)
	svc := &QuotaService{redisSvc: rs, limit: 1, window: time.Minute}

	ctx := context.Background()
	allowed, err := svc.Allow(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = svc.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestQuotaSurfacesStoreError(t *testing.T) {
	rs, mr := newTestRedis(t)
	svc := &QuotaService{redisSvc: rs, limit: 1, window: time.Minute}

	mr.Close()

	_, err := svc.Allow(context.Background(), "user-1")
	assert.Error(t, err)
}
