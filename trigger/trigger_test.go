package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *recorder) emit(ctx context.Context, userID, event string) {
	r.mu.Lock()
	r.fired = append(r.fired, userID+"/"+event)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func TestAddBadSchedule(t *testing.T) {
	ts := NewTriggers(func(ctx context.Context, userID, event string) {})
	defer ts.Stop()

	err := ts.Add(context.Background(), Entry{
		ID:       "t1",
		Schedule: "not a cron expression",
	})
	require.Error(t, err)
	assert.Empty(t, ts.Entries())
}

func TestFire(t *testing.T) {
	r := &recorder{}
	ts := NewTriggers(r.emit)
	defer ts.Stop()

	// Seven fields: fire every second.
	require.NoError(t, ts.Add(context.Background(), Entry{
		ID:       "t1",
		UserID:   "u1",
		Event:    "REMINDER",
		Schedule: "* * * * * * *",
	}))

	require.Eventually(t, func() bool {
		return r.count() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	r.mu.Lock()
	assert.Equal(t, "u1/REMINDER", r.fired[0])
	r.mu.Unlock()
}

func TestCancel(t *testing.T) {
	r := &recorder{}
	ts := NewTriggers(r.emit)
	defer ts.Stop()

	require.NoError(t, ts.Add(context.Background(), Entry{
		ID:       "t1",
		UserID:   "u1",
		Event:    "REMINDER",
		Schedule: "* * * * * * *",
	}))
	require.Len(t, ts.Entries(), 1)

	ts.Cancel("t1")
	assert.Empty(t, ts.Entries())

	// Unknown ids are fine.
	ts.Cancel("ghost")

	// No more firings once the entry has settled.
	time.Sleep(1100 * time.Millisecond)
	n := r.count()
	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, n, r.count())
}

func TestAddReplaces(t *testing.T) {
	r := &recorder{}
	ts := NewTriggers(r.emit)
	defer ts.Stop()

	ctx := context.Background()
	require.NoError(t, ts.Add(ctx, Entry{
		ID: "t1", UserID: "u1", Event: "A", Schedule: "* * * * * * *",
	}))
	require.NoError(t, ts.Add(ctx, Entry{
		ID: "t1", UserID: "u1", Event: "B", Schedule: "* * * * * * *",
	}))

	entries := ts.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "B", entries[0].Event)
}
