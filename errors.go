package tempograph

import (
	"errors"
	"fmt"
	"reflect"
)

// A TimeFormatError occurs when a textual timestamp does not match any valid
// prefix of its time-format pattern.
//
// Ingestion is not transactional across a batch: an AddVertex/AddEdge call
// that fails with this error applies nothing, and the caller decides whether
// to continue with the rest of the batch.
type TimeFormatError struct {
	Text    string // The timestamp text that failed to parse.
	Pattern string // The pattern the text was parsed against.
	Reason  string // Why the parse stopped.
}

func (e *TimeFormatError) Error() string {
	return fmt.Sprintf("time %q does not match pattern %q: %s", e.Text, e.Pattern, e.Reason)
}

// A TypeMismatchError occurs when a value crossing the engine boundary has a
// runtime type different from the expected type. The most common source is
// merging a partial result of the wrong dynamic type into an Accumulator.
type TypeMismatchError struct {
	Want reflect.Type // Expected type.
	Got  reflect.Type // Effective type encountered at runtime.
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: want %v, got %v", e.Want, e.Got)
}

// A SchemaMismatchError occurs when flattening a strict Table that mixes
// windowed and unwindowed perspectives, whose rows therefore cannot share a
// column schema. See [Table.Strict].
type SchemaMismatchError struct {
	// Index of the first perspective whose shape differs from its predecessors.
	Perspective int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("table mixes windowed and unwindowed perspectives (first mismatch at perspective %d)", e.Perspective)
}

// ErrIdentityCollision is returned (wrapped) from ingestion when two distinct
// vertex names resolve to the same GlobalID. The id assignment is a stable
// 64-bit hash, so this is not expected in normal operation; it exists so a
// collision surfaces loudly instead of silently merging two vertices.
var ErrIdentityCollision = errors.New("distinct vertex names resolved to the same id")
