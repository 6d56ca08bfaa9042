package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_InitialState(t *testing.T) {
	b := New("redis-lock")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "redis-lock", b.Name())
	assert.Equal(t, "closed", b.State().String())
}

// replay feeds events to b ('f' failure, 's' success) and returns how many
// times the breaker opened and closed.
func replay(b *Breaker, events string) (opened, closed int) {
	for _, e := range events {
		switch e {
		case 'f':
			if _, change := b.RecordFailure(); change.Opened {
				opened++
			}
		case 's':
			if _, change := b.RecordSuccess(); change.Closed {
				closed++
			}
		}
	}
	return opened, closed
}

func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		events     string
		wantOpen   bool
		wantOpened int
		wantClosed int
	}{
		{"below threshold stays closed", []Option{WithFailureThreshold(3)}, "ff", false, 0, 0},
		{"threshold opens", []Option{WithFailureThreshold(3)}, "fff", true, 1, 0},
		{"success resets failure streak", []Option{WithFailureThreshold(3)}, "ffsff", false, 0, 0},
		{"open ignores further failures", []Option{WithFailureThreshold(1)}, "fff", true, 1, 0},
		{"single success is not enough to close", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, "fs", true, 1, 0},
		{"success threshold closes", []Option{WithFailureThreshold(1), WithSuccessThreshold(2)}, "fss", false, 1, 1},
		{"failure resets recovery streak", []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, "fssfss", true, 1, 0},
		{"recovers after full streak", []Option{WithFailureThreshold(1), WithSuccessThreshold(3)}, "fssfsss", false, 1, 1},
		{"non-positive thresholds fall back to defaults", []Option{WithFailureThreshold(0), WithSuccessThreshold(-1)}, "ffff", false, 0, 0},
		{"default failure threshold", nil, "fffff", true, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("redis-lock", tt.opts...)
			opened, closed := replay(b, tt.events)

			assert.Equal(t, tt.wantOpen, b.IsOpen())
			assert.Equal(t, tt.wantOpened, opened)
			assert.Equal(t, tt.wantClosed, closed)
		})
	}
}

func TestBreaker_ReportsRoute(t *testing.T) {
	b := New("redis-lock", WithFailureThreshold(1), WithSuccessThreshold(1))

	useFallback, _ := b.RecordFailure()
	assert.True(t, useFallback, "open breaker routes to fallback")

	usePrimary, _ := b.RecordSuccess()
	assert.True(t, usePrimary, "one success closes with a threshold of one")
}
