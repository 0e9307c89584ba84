package joblock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) *Locker {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set; skipping redis tests")
	}
	l, err := NewLocker(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	require.NoError(t, l.Ping(context.Background()))
	return l
}

func TestLocker_SecondAcquireFailsUntilRelease(t *testing.T) {
	l := newTestLocker(t)
	ctx := context.Background()
	name := "test-" + uuid.NewString()

	release, ok, err := l.TryLock(ctx, name, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, name, 10*time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	release()

	release2, ok, err := l.TryLock(ctx, name, 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	release2()
}

func TestNewLocker_RejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := NewLocker("http://not-redis")
	require.Error(t, err)
}
