package layout

import "fmt"

// Option is an optional field value. It is encoded as a presence byte
// (0 absent, 1 present) followed by the value when present.
type Option[T any] struct {
	value   T
	present bool
}

// Some returns a present Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, present: true}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsSome reports whether the value is present.
func (o Option[T]) IsSome() bool {
	return o.present
}

// OrElse returns the value, or fallback when absent.
func (o Option[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

func (o Option[T]) String() string {
	if !o.present {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}
