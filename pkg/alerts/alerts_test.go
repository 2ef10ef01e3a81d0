package alerts

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stratastor/burrow/pkg/zfs/pool"
	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHealth struct {
	pools []pool.Health
	err   error
	calls atomic.Int32
}

func (f *fakeHealth) Health(ctx context.Context) ([]pool.Health, error) {
	f.calls.Add(1)
	return f.pools, f.err
}

func newChecker(t *testing.T, src HealthSource) *Checker {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "alerts-test")
	require.NoError(t, err)
	return NewChecker(src, l)
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		health pool.Health
		want   []Alert
	}{
		{
			name:   "online",
			health: pool.Health{Name: "tank", State: "ONLINE"},
			want:   []Alert{},
		},
		{
			name:   "degraded",
			health: pool.Health{Name: "tank", State: "DEGRADED", Message: "One or more devices has been removed"},
			want:   []Alert{{Pool: "tank", Level: LevelCrit, Message: "The volume tank status is DEGRADED"}},
		},
		{
			name:   "faulted with message",
			health: pool.Health{Name: "tank", State: "FAULTED", Message: "corrupted metadata"},
			want:   []Alert{{Pool: "tank", Level: LevelWarn, Message: "The volume tank status is FAULTED: corrupted metadata"}},
		},
		{
			name:   "unavail without message",
			health: pool.Health{Name: "backup", State: "UNAVAIL"},
			want:   []Alert{{Pool: "backup", Level: LevelWarn, Message: "The volume backup status is UNAVAIL"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate([]pool.Health{tt.health}))
		})
	}
}

func TestRunStoresLast(t *testing.T) {
	src := &fakeHealth{pools: []pool.Health{
		{Name: "boot-pool", State: "ONLINE"},
		{Name: "tank", State: "DEGRADED"},
	}}
	c := newChecker(t, src)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	assert.True(t, c.Last().CheckedAt.IsZero())

	eval := c.Run(context.Background())
	require.Len(t, eval.Alerts, 1)
	assert.Equal(t, "tank", eval.Alerts[0].Pool)

	last := c.Last()
	assert.Equal(t, fixed, last.CheckedAt)
	assert.Equal(t, eval.Alerts, last.Alerts)
	assert.Empty(t, last.Error)
}

func TestRunRecordsSourceError(t *testing.T) {
	c := newChecker(t, &fakeHealth{err: fmt.Errorf("zpool unavailable")})
	eval := c.Run(context.Background())
	assert.Equal(t, "zpool unavailable", eval.Error)
	assert.Empty(t, eval.Alerts)
}

func TestStartStop(t *testing.T) {
	src := &fakeHealth{pools: []pool.Health{{Name: "tank", State: "ONLINE"}}}
	c := newChecker(t, src)

	require.Error(t, c.Start(0))
	require.NoError(t, c.Start(time.Hour))

	assert.Eventually(t, func() bool { return src.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())
}
