package polling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/strava-client/pkg/apierr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upload struct {
	attempt    int
	activityID int64
}

// recordingSleep collects waits instead of sleeping.
type recordingSleep struct {
	waits []time.Duration
}

func (s *recordingSleep) sleep(_ context.Context, d time.Duration) {
	s.waits = append(s.waits, d)
}

func newTestRetrier(s *recordingSleep) *Retrier[upload] {
	cfg := DefaultConfig()
	cfg.Sleep = s.sleep
	return New[upload](cfg, zerolog.Nop())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxAttempts != 10 {
		t.Errorf("MaxAttempts = %d, want 10", cfg.MaxAttempts)
	}
	if cfg.Base != 1*time.Second {
		t.Errorf("Base = %v, want 1s", cfg.Base)
	}
	if cfg.Increment != 100*time.Millisecond {
		t.Errorf("Increment = %v, want 100ms", cfg.Increment)
	}
}

func TestRetrieve_AlwaysTransient(t *testing.T) {
	sleeper := &recordingSleep{}
	r := newTestRetrier(sleeper)

	calls := 0
	got, err := r.Retrieve(context.Background(), func(context.Context) (upload, error) {
		calls++
		return upload{attempt: calls}, nil
	}, func(upload) bool { return true })

	require.NoError(t, err)
	assert.Equal(t, 10, calls)
	assert.Equal(t, upload{attempt: 10}, got, "last response is returned unmodified")

	require.Len(t, sleeper.waits, 9)
	assert.Equal(t, 1100*time.Millisecond, sleeper.waits[0])
	assert.Equal(t, 1900*time.Millisecond, sleeper.waits[8])
}

func TestRetrieve_ReadyOnThirdAttempt(t *testing.T) {
	sleeper := &recordingSleep{}
	r := newTestRetrier(sleeper)

	calls := 0
	got, err := r.Retrieve(context.Background(), func(context.Context) (upload, error) {
		calls++
		u := upload{attempt: calls}
		if calls == 3 {
			u.activityID = 42
		}
		return u, nil
	}, func(u upload) bool { return u.activityID == 0 })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, int64(42), got.activityID)
	assert.Len(t, sleeper.waits, 2)
}

func TestRetrieve_ReadyImmediately(t *testing.T) {
	sleeper := &recordingSleep{}
	r := newTestRetrier(sleeper)

	calls := 0
	_, err := r.Retrieve(context.Background(), func(context.Context) (upload, error) {
		calls++
		return upload{activityID: 7}, nil
	}, func(u upload) bool { return u.activityID == 0 })

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.waits)
}

func TestRetrieve_ErrorIsNotRetried(t *testing.T) {
	sleeper := &recordingSleep{}
	r := newTestRetrier(sleeper)

	calls := 0
	_, err := r.Retrieve(context.Background(), func(context.Context) (upload, error) {
		calls++
		if calls == 2 {
			return upload{}, apierr.New(apierr.KindNotFound, 404, "Not Found")
		}
		return upload{}, nil
	}, func(upload) bool { return true })

	assert.ErrorIs(t, err, apierr.ErrNotFound)
	assert.Equal(t, 2, calls)
}

func TestRetrieve_CancelledWaitProceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.MaxAttempts = 3
	cfg.Base = time.Hour
	r := New[upload](cfg, zerolog.Nop())

	calls := 0
	start := time.Now()
	_, err := r.Retrieve(ctx, func(context.Context) (upload, error) {
		calls++
		return upload{}, nil
	}, func(upload) bool { return true })

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Less(t, time.Since(start), time.Second, "cancelled context must cut waits short")
}

func TestSleepContext(t *testing.T) {
	start := time.Now()
	sleepContext(context.Background(), 20*time.Millisecond)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("slept %v, want at least 20ms", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	sleepContext(ctx, time.Minute)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled sleep took %v", elapsed)
	}
}

func TestRetrieve_FetchErrorWrapped(t *testing.T) {
	boom := errors.New("boom")
	r := newTestRetrier(&recordingSleep{})

	_, err := r.Retrieve(context.Background(), func(context.Context) (upload, error) {
		return upload{}, boom
	}, func(upload) bool { return false })

	assert.ErrorIs(t, err, boom)
}

func TestNew_ZeroConfigUsesDefaultBackoff(t *testing.T) {
	sleeper := &recordingSleep{}
	r := New[upload](Config{Sleep: sleeper.sleep}, zerolog.Nop())

	_, err := r.Retrieve(context.Background(), func(context.Context) (upload, error) {
		return upload{}, nil
	}, func(upload) bool { return true })
	require.NoError(t, err)

	want := make([]time.Duration, 0, 9)
	for attempt := 1; attempt <= 9; attempt++ {
		want = append(want, time.Second+time.Duration(attempt)*100*time.Millisecond)
	}
	assert.Equal(t, want, sleeper.waits)
	assert.Equal(t, 1100*time.Millisecond, r.Backoff(1))
}

func TestNew_ExplicitIncrementKeepsZeroBase(t *testing.T) {
	r := New[upload](Config{Increment: 50 * time.Millisecond}, zerolog.Nop())
	assert.Equal(t, 100*time.Millisecond, r.Backoff(2))
}
