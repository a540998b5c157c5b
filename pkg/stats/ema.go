package stats

// EMA smooths a reading sequence with a fixed smoothing factor. Not safe for
// concurrent use.
type EMA struct {
	alpha  float64
	value  float64
	primed bool
}

// NewEMA returns an EMA with smoothing factor alpha in (0, 1]. Larger alphas
// track the latest readings more closely.
func NewEMA(alpha float64) *EMA {
	return &EMA{alpha: alpha}
}

// Update folds in one observation and returns the new average. The first
// observation primes the average as-is.
func (e *EMA) Update(v float64) float64 {
	if !e.primed {
		e.value = v
		e.primed = true

		return e.value
	}

	e.value = e.alpha*v + (1-e.alpha)*e.value

	return e.value
}

// Value returns the current average, 0 before the first Update.
func (e *EMA) Value() float64 {
	return e.value
}

// Primed reports whether at least one observation arrived.
func (e *EMA) Primed() bool {
	return e.primed
}
