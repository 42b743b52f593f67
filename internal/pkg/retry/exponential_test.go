package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestExecute_SucceedsAfterFailures(t *testing.T) {
	r := New(fastConfig(), nil)
	calls := 0

	err := r.Execute(context.Background(), "publish", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("broker unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecute_GivesUp(t *testing.T) {
	r := New(fastConfig(), nil)
	cause := errors.New("broker unavailable")
	calls := 0

	err := r.Execute(context.Background(), "publish", func(context.Context) error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 4, calls)
	assert.Contains(t, err.Error(), "publish failed after 4 attempts")
}

func TestExecute_PermanentStopsImmediately(t *testing.T) {
	r := New(fastConfig(), nil)
	cause := errors.New("bad payload")
	calls := 0

	err := r.Execute(context.Background(), "notify", func(context.Context) error {
		calls++
		return Permanent(cause)
	})

	assert.ErrorIs(t, err, ErrPermanent)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, calls)
}

func TestExecute_ContextCancelled(t *testing.T) {
	r := New(Config{MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := r.Execute(ctx, "publish", func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDelay_CappedAtMax(t *testing.T) {
	r := New(Config{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}, nil)

	assert.Equal(t, 100*time.Millisecond, r.delay(0))
	assert.Equal(t, 200*time.Millisecond, r.delay(1))
	assert.Equal(t, 300*time.Millisecond, r.delay(5))
}
