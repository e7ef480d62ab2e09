// Package options implements the generic functional-option pattern shared by the
// sircmp packages (scheduler, parser, snapshot encoder, progress bar).
package options

// Option configures a target of type T and may reject a value with an error.
type Option[T any] func(T) error

// New wraps fn as an option that can fail.
func New[T any](fn func(T) error) Option[T] {
	return fn
}

// NoError wraps fn as an option that always succeeds.
func NoError[T any](fn func(T)) Option[T] {
	return func(target T) error {
		fn(target)
		return nil
	}
}

// Apply applies opts to target in order and stops at the first error.
// Options applied before the failing one stay applied; nil options are ignored.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(target); err != nil {
			return err
		}
	}

	return nil
}
