package tempograph

import (
	"cmp"
	"reflect"
)

// An Accumulator is a mergeable aggregation cell used by algorithms to
// combine partial per-partition results. Its merge function must be
// associative and commutative because the engine merges partitions in an
// unspecified order.
//
// An accumulator lives for a single superstep: created by an algorithm at the
// start, merged across partitions, read and discarded at the end. It is not
// safe for concurrent use; partitions merge through their own accumulators
// which are then folded together.
type Accumulator[T any] struct {
	value T
	merge func(T, T) T
}

// NewAccumulator returns an accumulator seeded with the given initial value
// (typically the merge operator's identity) combining through merge.
func NewAccumulator[T any](initial T, merge func(T, T) T) *Accumulator[T] {
	return &Accumulator[T]{value: initial, merge: merge}
}

// Merge combines other into the accumulator's current value in place and
// returns the accumulator, supporting chained accumulation from multiple
// sources.
func (a *Accumulator[T]) Merge(other T) *Accumulator[T] {
	a.value = a.merge(a.value, other)
	return a
}

// MergeValue is the runtime-typed boundary of Merge, used when partial values
// cross the engine boundary untyped. It fails with a *TypeMismatchError when
// other's dynamic type is not T.
func (a *Accumulator[T]) MergeValue(other any) error {
	v, ok := other.(T)
	if !ok {
		return &TypeMismatchError{
			Want: reflect.TypeOf(a.value),
			Got:  reflect.TypeOf(other),
		}
	}
	a.Merge(v)
	return nil
}

// Value returns the accumulator's current value.
func (a *Accumulator[T]) Value() T { return a.value }

// Number constrains the value types of SumAccumulator.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// MinAccumulator returns an accumulator keeping the least merged value,
// seeded with the type's upper bound carried by the first merge. The bound
// argument is the identity (e.g. math.MaxInt64).
func MinAccumulator[T cmp.Ordered](bound T) *Accumulator[T] {
	return NewAccumulator(bound, func(a, b T) T { return min(a, b) })
}

// MaxAccumulator returns an accumulator keeping the greatest merged value.
// The bound argument is the identity (e.g. math.MinInt64).
func MaxAccumulator[T cmp.Ordered](bound T) *Accumulator[T] {
	return NewAccumulator(bound, func(a, b T) T { return max(a, b) })
}

// SumAccumulator returns an accumulator summing merged values, seeded with
// zero.
func SumAccumulator[T Number]() *Accumulator[T] {
	var zero T
	return NewAccumulator(zero, func(a, b T) T { return a + b })
}
