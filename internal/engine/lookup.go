package engine

import "math"

// Lookup is the outcome of a fallible computation. Call sites pick the
// substitute explicitly with OrElse.
type Lookup[T any] struct {
	Value T
	Err   error
}

// OK wraps a successful value.
func OK[T any](v T) Lookup[T] {
	return Lookup[T]{Value: v}
}

// Failed wraps an error.
func Failed[T any](err error) Lookup[T] {
	return Lookup[T]{Err: err}
}

// OrElse returns the value, or fallback when the lookup failed. The second
// result reports whether the fallback was used.
func (l Lookup[T]) OrElse(fallback T) (T, bool) {
	if l.Err != nil {
		return fallback, true
	}
	return l.Value, false
}

// finite rejects NaN and infinite values so they never leave the engine.
func finite(l Lookup[float64], errNonFinite error) Lookup[float64] {
	if l.Err == nil && (math.IsNaN(l.Value) || math.IsInf(l.Value, 0)) {
		return Failed[float64](errNonFinite)
	}
	return l
}

// Fallback records a substituted quantity in a Frame.
type Fallback struct {
	Quantity string  `json:"quantity"` // "obliquity", "sun", "moon", "sun-day-start", ...
	Value    float64 `json:"value"`    // substituted value, degrees
	Reason   string  `json:"reason"`
}
