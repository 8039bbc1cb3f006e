// Package fallback provides a first-success-wins combinator for trying an
// ordered list of alternatives: search tiers, model names, anything where a
// stricter or preferred option should be attempted before a looser one.
package fallback

import "context"

// Attempt produces a result. ok reports whether the attempt yielded a usable
// result; returning ok=false moves on to the next alternative. A non-nil
// error aborts the whole sequence — attempts that want "error means try the
// next one" semantics must swallow the error themselves and return ok=false.
type Attempt[T any] func(ctx context.Context) (result T, ok bool, err error)

// First runs attempts in order and returns the first usable result. It
// returns ok=false with a nil error when every attempt declined.
func First[T any](ctx context.Context, attempts ...Attempt[T]) (T, bool, error) {
	var zero T
	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		result, ok, err := attempt(ctx)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return result, true, nil
		}
	}
	return zero, false, nil
}
