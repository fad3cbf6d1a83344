package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lunch-rotation-api/pkg/config"
)

func TestLockerWithoutClientAlwaysAcquires(t *testing.T) {
	locker := NewLocker(nil, 0, nil)

	ok, release, err := locker.Acquire(context.Background(), "host_reminder:2024-06-04")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, release)
	release()

	ok, _, err = locker.Acquire(context.Background(), "host_reminder:2024-06-04")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisDisabledReturnsNil(t *testing.T) {
	client, err := NewRedis(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
}
