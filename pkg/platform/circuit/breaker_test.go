package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replay records outcomes in order: 'f' is a failure, 's' a success.
func replay(b *Breaker, outcomes string) {
	for _, o := range outcomes {
		switch o {
		case 'f':
			b.RecordFailure()
		case 's':
			b.RecordSuccess()
		}
	}
}

func TestBreaker_NewIsClosed(t *testing.T) {
	b := New("audit-kafka")
	assert.Equal(t, "audit-kafka", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_StateAfterSequence(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		outcomes string
		want     State
	}{
		{"below failure threshold", []Option{WithFailureThreshold(3)}, "ff", StateClosed},
		{"reaches failure threshold", []Option{WithFailureThreshold(3)}, "fff", StateOpen},
		{"success resets the failure run", []Option{WithFailureThreshold(3)}, "ffsff", StateClosed},
		{"default threshold is five", nil, "ffff", StateClosed},
		{"default threshold opens on fifth", nil, "fffff", StateOpen},
		{"one success closes by default", []Option{WithFailureThreshold(1)}, "fs", StateClosed},
		{"needs the success run to close", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, "fs", StateOpen},
		{"success run completes", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, "fss", StateClosed},
		{"failure restarts the success run", []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, "fssfss", StateOpen},
		{"restarted run completes", []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, "fssfsss", StateClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("audit-kafka", tt.opts...)
			replay(b, tt.outcomes)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreaker_ReportsTransitionsOnce(t *testing.T) {
	b := New("audit-kafka", WithFailureThreshold(2))

	useFallback, change := b.RecordFailure()
	assert.False(t, useFallback)
	assert.Equal(t, StateChange{}, change)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback)
	assert.True(t, change.Opened)

	useFallback, change = b.RecordFailure()
	assert.True(t, useFallback, "still open")
	assert.False(t, change.Opened, "already open")

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)

	usePrimary, change = b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.False(t, change.Closed)
}

func TestBreaker_Reset(t *testing.T) {
	b := New("audit-kafka", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}

func TestBreaker_AllowProbesAfterCooldown(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("audit-kafka",
		WithFailureThreshold(1),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	b.RecordFailure()
	assert.False(t, b.Allow())

	now = now.Add(30 * time.Second)
	assert.False(t, b.Allow(), "cooldown not elapsed")

	now = now.Add(30 * time.Second)
	assert.True(t, b.Allow(), "one probe after cooldown")
	assert.False(t, b.Allow(), "further calls wait for the next cooldown")

	b.RecordSuccess()
	assert.True(t, b.Allow())
}
