package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEMA_StartsUnprimed(t *testing.T) {
	t.Parallel()

	ema := NewEMA(0.3)
	assert.False(t, ema.Primed())
	assert.InDelta(t, 0, ema.Value(), 0.0001)
}

func TestEMA_FirstObservationPrimes(t *testing.T) {
	t.Parallel()

	ema := NewEMA(0.3)
	got := ema.Update(22.0)

	assert.True(t, ema.Primed())
	assert.InDelta(t, 22.0, got, 0.0001)
	assert.InDelta(t, 22.0, ema.Value(), 0.0001)
}

func TestEMA_SmoothsTowardLatest(t *testing.T) {
	t.Parallel()

	ema := NewEMA(0.3)
	ema.Update(20.0)

	// 0.3 * 30 + 0.7 * 20 = 23.
	got := ema.Update(30.0)
	assert.InDelta(t, 23.0, got, 0.0001)
}

func TestEMA_AlphaOneTracksExactly(t *testing.T) {
	t.Parallel()

	ema := NewEMA(1.0)
	ema.Update(20.0)

	got := ema.Update(35.5)
	assert.InDelta(t, 35.5, got, 0.0001)
}
