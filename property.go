package tempograph

import "fmt"

// A Property is the atomic unit of information attached to a vertex or edge
// update. Properties keep their submission order inside an Update because the
// engine may fold them with order-sensitive merge strategies.
type Property struct {
	Name  string
	Value any
	Kind  PropertyKind
}

// PropertyKind selects how the engine folds repeated values of the same
// property across updates.
type PropertyKind uint8

const (
	// Immutable properties are set once; later updates must carry the same value.
	Immutable PropertyKind = iota
	// Mutable properties keep their full timestamped history.
	Mutable
)

func (k PropertyKind) String() string {
	switch k {
	case Immutable:
		return "immutable"
	case Mutable:
		return "mutable"
	}
	return fmt.Sprintf("PropertyKind(%d)", uint8(k))
}

// ImmutableString returns a set-once string property. Textual vertex
// identifiers round-trip into query results as an immutable "name" property.
func ImmutableString(name, value string) Property {
	return Property{Name: name, Value: value, Kind: Immutable}
}

// MutableString returns a string property that keeps its timestamped history.
func MutableString(name, value string) Property {
	return Property{Name: name, Value: value, Kind: Mutable}
}

// MutableInt returns an integer property that keeps its timestamped history.
func MutableInt(name string, value int64) Property {
	return Property{Name: name, Value: value, Kind: Mutable}
}

// MutableFloat returns a floating-point property that keeps its timestamped
// history.
func MutableFloat(name string, value float64) Property {
	return Property{Name: name, Value: value, Kind: Mutable}
}
