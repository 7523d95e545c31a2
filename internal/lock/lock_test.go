package lock

import (
	"context"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilLockerIsDisabled(t *testing.T) {
	l := NewLocker(nil)
	require.Nil(t, l)
	assert.False(t, l.Enabled())

	_, ok, err := l.TryLock(context.Background(), "k", time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, l.Release(context.Background(), "k", "token"))
}

func TestTryLockValidatesArgumentsBeforeCallingRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	l := NewLocker(client)

	_, _, err := l.TryLock(context.Background(), " ", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, _, err = l.TryLock(context.Background(), "k", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	assert.NoError(t, l.Release(context.Background(), "", "token"))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ecole:lock:scheduler:daily_reminders:2025-09-01", Key("scheduler", "daily_reminders", "2025-09-01"))
}
