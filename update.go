package tempograph

import (
	"encoding/gob"
	"sync/atomic"
)

func init() {
	gob.Register(Update{})
}

// UpdateKind distinguishes vertex updates from edge updates.
type UpdateKind uint8

const (
	VertexUpdate UpdateKind = iota
	EdgeUpdate
)

func (k UpdateKind) String() string {
	if k == VertexUpdate {
		return "vertex"
	}
	return "edge"
}

// An Update is a normalised, immutable ingestion record. Graph.AddVertex and
// Graph.AddEdge build one per call and forward it to the engine's update
// primitives; after that the record is discarded.
//
// Updates are totally ordered by (Time, SecondaryIndex). Updates sharing a
// Time are ordered by their SecondaryIndex, which the Graph assigns from a
// strictly increasing sequence when the caller does not supply one, so that
// submission order is preserved.
type Update struct {
	Kind UpdateKind
	// Epoch milliseconds, UTC.
	Time int64
	// Tie-breaker between updates sharing the same Time.
	SecondaryIndex int64
	// Properties in submission order. For a vertex ingested by name, the last
	// property is the injected immutable "name" property.
	Properties []Property
	// Optional vertex or edge type.
	EntityType string
	// Src is the updated vertex for vertex updates, and the edge source for
	// edge updates. Dst is meaningful for edge updates only.
	Src, Dst GlobalID
}

// A sequence is a strictly increasing update-index generator. Each Graph owns
// exactly one, shared across all of its vertex and edge ingestion calls; it is
// never hidden process-global state.
//
// The zero value starts the sequence at zero. A sequence is safe for
// concurrent use, preserving the "submission order becomes secondary-index
// order" guarantee under concurrent ingestion.
type sequence struct {
	n atomic.Int64
}

// Next returns the next index in the sequence.
func (s *sequence) Next() int64 {
	return s.n.Add(1) - 1
}
