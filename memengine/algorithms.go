package memengine

import (
	"context"
	"fmt"
	"sync"

	tempograph "github.com/go-tempograph/go-tempograph"
)

// A NativeFunc is the implementation of one engine-native algorithm. It runs
// with the engine's read lock held, so the graph is stable for the whole run.
type NativeFunc func(ctx context.Context, e *Engine, ps []tempograph.Perspective) (*tempograph.Table, error)

// The engine recognises native algorithms through this registry. It is global
// for the entire package: an algorithm name maps to exactly one
// implementation across all engines in the process.
var algorithmRegistry struct {
	mu sync.RWMutex
	m  map[string]NativeFunc
}

// RegisterAlgorithm makes a native algorithm available under the given name.
// Registering two implementations under one name is a developer error and
// panics.
func RegisterAlgorithm(name string, fn NativeFunc) {
	algorithmRegistry.mu.Lock()
	defer algorithmRegistry.mu.Unlock()
	if algorithmRegistry.m == nil {
		algorithmRegistry.m = make(map[string]NativeFunc)
	}
	if _, dup := algorithmRegistry.m[name]; dup {
		panic(fmt.Sprintf("memengine: registering duplicate native algorithm %q", name))
	}
	algorithmRegistry.m[name] = fn
}

func lookupAlgorithm(name string) (NativeFunc, bool) {
	algorithmRegistry.mu.RLock()
	defer algorithmRegistry.mu.RUnlock()
	fn, ok := algorithmRegistry.m[name]
	return fn, ok
}

func init() {
	RegisterAlgorithm("degree", degree)
	RegisterAlgorithm("connected-components", connectedComponents)
}

// degree tabulates, per perspective, one row per visible vertex with the
// vertex's display name and its degree restricted to the perspective.
// Flatten its table with columns ("name", "degree").
func degree(ctx context.Context, e *Engine, ps []tempograph.Perspective) (*tempograph.Table, error) {
	table := tempograph.NewTable()
	for _, p := range ps {
		rows := make([]tempograph.Row, 0)
		for _, v := range e.verticesLocked(p) {
			rows = append(rows, tempograph.NewRow(displayName(v), v.Degree))
		}
		table.Append(p, rows...)
	}
	return table, nil
}

// connectedComponents labels every visible vertex with the least GlobalID in
// its connected component, propagated through superstep message passing until
// quiescence. Flatten its table with columns ("name", "component").
func connectedComponents(ctx context.Context, e *Engine, ps []tempograph.Perspective) (*tempograph.Table, error) {
	table := tempograph.NewTable()
	for _, p := range ps {
		vertices := e.verticesLocked(p)
		labels := newStateMap[tempograph.GlobalID](len(vertices))
		for _, v := range vertices {
			labels.Update(v.ID, v.ID)
		}

		program := func(ctx context.Context, round int, v tempograph.VertexState, inbox []any, send func(to tempograph.GlobalID, msg any)) (bool, error) {
			label, _ := labels.Find(v.ID)
			// Fold the inbox through a min accumulator seeded with the current
			// label; neighbours deliver their labels in unspecified order.
			acc := tempograph.MinAccumulator(label)
			for _, msg := range inbox {
				if err := acc.MergeValue(msg); err != nil {
					return false, fmt.Errorf("merge component label: %w", err)
				}
			}
			// The first round has no inbox yet every vertex must announce
			// itself; afterwards only improvements propagate.
			if round > 0 && acc.Value() == label {
				return false, nil
			}
			label = acc.Value()
			labels.Update(v.ID, label)
			for _, n := range e.visibleNeighbours(v.ID, p) {
				send(n, label)
			}
			return true, nil
		}

		// Label propagation shortens the frontier every round; the vertex
		// count bounds the longest path.
		if err := e.runSupersteps(ctx, vertices, program, len(vertices)+1); err != nil {
			return nil, fmt.Errorf("connected components at %v: %w", p.FormattedTime(), err)
		}

		rows := make([]tempograph.Row, 0, len(vertices))
		for _, v := range vertices {
			label, _ := labels.Find(v.ID)
			rows = append(rows, tempograph.NewRow(displayName(v), uint64(label)))
		}
		table.Append(p, rows...)
	}
	return table, nil
}

// displayName prefers the human-readable label a vertex was ingested with and
// falls back to its numeric id.
func displayName(v tempograph.VertexState) any {
	if v.Name != "" {
		return v.Name
	}
	return uint64(v.ID)
}
