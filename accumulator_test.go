package tempograph

import (
	"errors"
	"math"
	"testing"
)

func TestAccumulatorMergeOrderIndependence(t *testing.T) {
	// The engine folds partition results in an unspecified order, so the
	// outcome must not depend on it.
	values := []int{5, -3, 12, 0, 7}
	reversed := []int{7, 0, 12, -3, 5}

	forward := SumAccumulator[int]()
	backward := SumAccumulator[int]()
	for i := range values {
		forward.Merge(values[i])
		backward.Merge(reversed[i])
	}
	if forward.Value() != backward.Value() {
		t.Errorf("sum depends on merge order: %v vs %v", forward.Value(), backward.Value())
	}
	if got, want := forward.Value(), 21; got != want {
		t.Errorf("Value = %v, want %v", got, want)
	}
}

func TestMinMaxAccumulators(t *testing.T) {
	least := MinAccumulator(math.MaxInt64)
	most := MaxAccumulator(math.MinInt64)
	for _, v := range []int{5, -3, 12} {
		least.Merge(v)
		most.Merge(v)
	}
	if got := least.Value(); got != -3 {
		t.Errorf("min = %v, want -3", got)
	}
	if got := most.Value(); got != 12 {
		t.Errorf("max = %v, want 12", got)
	}
}

func TestAccumulatorMergeChains(t *testing.T) {
	got := SumAccumulator[int]().Merge(1).Merge(2).Merge(3).Value()
	if got != 6 {
		t.Errorf("chained merges = %v, want 6", got)
	}
}

func TestMergeValueRejectsForeignTypes(t *testing.T) {
	acc := SumAccumulator[int]()
	if err := acc.MergeValue(4); err != nil {
		t.Fatalf("MergeValue(int) = %v", err)
	}

	err := acc.MergeValue("four")
	var tme *TypeMismatchError
	if !errors.As(err, &tme) {
		t.Fatalf("MergeValue(string) = %v, want *TypeMismatchError", err)
	}
	if tme.Want.Kind().String() != "int" || tme.Got.Kind().String() != "string" {
		t.Errorf("error carries (%v, %v), want (int, string)", tme.Want, tme.Got)
	}
	// The failed merge must leave the value untouched.
	if got := acc.Value(); got != 4 {
		t.Errorf("Value after failed merge = %v, want 4", got)
	}
}

func TestAccumulatorCustomMerge(t *testing.T) {
	longest := NewAccumulator("", func(a, b string) string {
		if len(b) > len(a) {
			return b
		}
		return a
	})
	for _, v := range []string{"ab", "abcd", "a"} {
		longest.Merge(v)
	}
	if got := longest.Value(); got != "abcd" {
		t.Errorf("Value = %q, want %q", got, "abcd")
	}
}
