// Package probe implements ranked detection cascades. A cascade runs a
// fixed list of probes in order and takes the first one that reports a
// hit, so a cheap high-confidence check can short-circuit slower
// fallbacks.
package probe

import "context"

// Probe is a single named check producing a value of type T.
type Probe[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, bool)
}

// Outcome reports which probe in a cascade hit, if any.
type Outcome[T any] struct {
	Name  string
	Value T
	Hit   bool
}

// First runs probes in order and returns the outcome of the first hit.
// If no probe hits, or the context is cancelled, the outcome's Hit is
// false and Name records the last probe attempted.
func First[T any](ctx context.Context, probes []Probe[T]) Outcome[T] {
	var out Outcome[T]
	for _, p := range probes {
		if ctx.Err() != nil {
			return out
		}
		out.Name = p.Name
		if v, ok := p.Run(ctx); ok {
			out.Value = v
			out.Hit = true
			return out
		}
	}
	return out
}
