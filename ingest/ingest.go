/*
Package ingest enables distributed ingestion across processes by letting
callers record reproducible batches of graph updates that can be stored,
transmitted, and replayed consistently in different environments.

The package provides a [Recorder] for collecting ingestion steps, a [Replay]
function for applying them to a graph, and a [Stream] procedure that feeds a
graph from a pubsub subscription carrying encoded batches.

Replaying a batch goes through the ordinary Graph ingestion entry points, so
replayed updates receive their secondary indices from the replaying graph's
own sequence: a batch replayed in order keeps its submission order.
*/
package ingest

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"iter"

	tempograph "github.com/go-tempograph/go-tempograph"
)

// A Step is a single recorded ingestion operation. In distributed scenarios,
// steps form the units of work that are serialised and transmitted across
// process boundaries.
//
// All Step implementations must be registered with gob to ensure consistent
// behaviour across environments.
type Step interface {
	// Do applies the recorded update through the graph's ingestion entry
	// points. It returns an error if the update cannot be applied; the update
	// is then not applied at all (ingestion is never partial).
	Do(ctx context.Context, g *tempograph.Graph) error
}

// Encode serialises a batch of steps for storage or transmission, preserving
// their order. It uses gob encoding to ensure consistent serialisation across
// Go environments.
func Encode(s []Step) (data []byte, err error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reconstructs a batch of steps from a previously encoded byte array,
// in their recorded order.
func Decode(data []byte) (steps []Step, err error) {
	var s []Step
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}
	return s, nil
}

// Replay applies the given steps to the graph in order. It stops at the first
// failing step and returns its error: ingestion is not transactional across a
// batch, so earlier steps remain applied and later steps are not attempted,
// but no step is ever partially applied or silently skipped.
func Replay(ctx context.Context, g *tempograph.Graph, steps []Step) error {
	for i, step := range steps {
		if err := step.Do(ctx, g); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

// Targets yields each distinct vertex reference touched by the given steps,
// no matter how many steps touch it or whether it appears as a source or a
// destination. Use it for pre-replay analysis, such as validating identities
// or computing the minimal subgraph a batch affects, before committing the
// batch to a graph.
func Targets(steps []Step) iter.Seq[Ref] {
	return func(yield func(Ref) bool) {
		seen := make(map[Ref]bool)
		for _, step := range steps {
			t, ok := step.(interface{ targets() []Ref })
			if !ok {
				// Third-party steps do not declare their targets.
				continue
			}
			for _, ref := range t.targets() {
				if seen[ref] {
					continue
				}
				seen[ref] = true
				if !yield(ref) {
					return
				}
			}
		}
	}
}

// A Recorder collects a sequence of ingestion steps that can later be encoded
// or replayed against a graph. Steps keep the order they were added in.
//
// The zero value of Recorder is ready to use. Do not copy a non-zero
// Recorder.
type Recorder struct {
	steps []Step
}

// Reset clears all accumulated steps, returning the Recorder to its initial
// empty state.
func (r *Recorder) Reset() {
	r.steps = nil
}

// Steps returns a copy of the currently recorded steps in recording order.
func (r *Recorder) Steps() []Step {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)
	return steps
}

// AddVertex records a vertex update at the given epoch-millisecond time.
func (r *Recorder) AddVertex(t int64, id Ref, properties []tempograph.Property, vertexType string) {
	r.steps = append(r.steps, vertexAddition{
		Time:       t,
		ID:         id,
		Properties: properties,
		EntityType: vertexType,
	})
}

// AddEdge records an edge update at the given epoch-millisecond time.
func (r *Recorder) AddEdge(t int64, src, dst Ref, properties []tempograph.Property, edgeType string) {
	r.steps = append(r.steps, edgeAddition{
		Time:       t,
		Src:        src,
		Dst:        dst,
		Properties: properties,
		EntityType: edgeType,
	})
}
