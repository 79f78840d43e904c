/*
Package memengine implements the tempograph engine contract in process
memory.

It is the reference engine: it keeps the complete, ordered update history of
every vertex and edge, serves perspective reads by filtering that history, and
runs its native algorithms as partitioned supersteps with inter-vertex message
passing. Use it in tests and single-process deployments; use an external
engine (e.g. the neo4jengine package) when the graph must outlive the
process.
*/
package memengine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	tempograph "github.com/go-tempograph/go-tempograph"
)

// An Engine stores temporal-graph update histories in process memory and
// implements [tempograph.Engine].
//
// The zero value is not ready for use; call New.
//
// An Engine is safe for concurrent use. Ingestion takes the write lock;
// perspective reads and algorithm runs share the read lock, so algorithms
// observe a stable graph for their whole run.
type Engine struct {
	mu sync.RWMutex

	vertices map[tempograph.GlobalID]*vertexRecord
	edges    map[edgeKey]*edgeRecord
	// Adjacency in both directions, for degree counts and message routing.
	neighbours map[tempograph.GlobalID][]edgeKey

	latest    int64
	hasLatest bool
	closed    bool

	messages messageBoard
}

// New returns an empty, ready-to-use engine.
func New() *Engine {
	return &Engine{
		vertices:   make(map[tempograph.GlobalID]*vertexRecord),
		edges:      make(map[edgeKey]*edgeRecord),
		neighbours: make(map[tempograph.GlobalID][]edgeKey),
	}
}

type edgeKey struct {
	src, dst tempograph.GlobalID
}

// A stamp is the total-order position of one update: updates sharing a time
// are ordered by their secondary index.
type stamp struct {
	time, secondary int64
}

func (s stamp) less(o stamp) bool {
	if s.time != o.time {
		return s.time < o.time
	}
	return s.secondary < o.secondary
}

type vertexRecord struct {
	id      tempograph.GlobalID
	name    string
	vtype   string
	history []stamp
	// Property histories in stamped order, appended per update.
	properties map[string][]propertyStamp
}

type propertyStamp struct {
	at    stamp
	value any
	kind  tempograph.PropertyKind
}

type edgeRecord struct {
	key     edgeKey
	etype   string
	history []stamp
}

// AddVertexUpdate records the update in the history of u.Src. The update's
// properties are stamped and appended to the vertex's property histories; an
// immutable property that was previously recorded with a different value
// fails the whole update.
func (e *Engine) AddVertexUpdate(ctx context.Context, u tempograph.Update) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}

	v := e.upsertVertex(u.Src, u.EntityType)
	if err := v.applyProperties(u); err != nil {
		return fmt.Errorf("vertex %v: %w", u.Src, err)
	}
	v.record(stampOf(u))
	e.observe(u.Time)
	return nil
}

// AddEdgeUpdate records the update in the history of the edge u.Src->u.Dst,
// creating both endpoint histories if they do not exist yet. Endpoints share
// the update's stamp, so an edge update also marks its vertices as active at
// that time.
func (e *Engine) AddEdgeUpdate(ctx context.Context, u tempograph.Update) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}

	at := stampOf(u)
	src := e.upsertVertex(u.Src, "")
	dst := e.upsertVertex(u.Dst, "")
	src.record(at)
	dst.record(at)

	key := edgeKey{src: u.Src, dst: u.Dst}
	edge, ok := e.edges[key]
	if !ok {
		edge = &edgeRecord{key: key}
		e.edges[key] = edge
		e.neighbours[u.Src] = append(e.neighbours[u.Src], key)
		if u.Dst != u.Src {
			e.neighbours[u.Dst] = append(e.neighbours[u.Dst], key)
		}
	}
	if u.EntityType != "" {
		edge.etype = u.EntityType
	}
	edge.record(at)
	e.observe(u.Time)
	return nil
}

var errClosed = errors.New("memengine: engine is closed")

func stampOf(u tempograph.Update) stamp {
	return stamp{time: u.Time, secondary: u.SecondaryIndex}
}

func (e *Engine) upsertVertex(id tempograph.GlobalID, vtype string) *vertexRecord {
	v, ok := e.vertices[id]
	if !ok {
		v = &vertexRecord{id: id, properties: make(map[string][]propertyStamp)}
		e.vertices[id] = v
	}
	if vtype != "" {
		v.vtype = vtype
	}
	return v
}

func (e *Engine) observe(t int64) {
	if !e.hasLatest || t > e.latest {
		e.latest = t
		e.hasLatest = true
	}
}

// insertStamp keeps the history sorted by (time, secondary index). Ingestion
// is typically in order, so the common case appends.
func insertStamp(history []stamp, at stamp) []stamp {
	if n := len(history); n == 0 || history[n-1].less(at) {
		return append(history, at)
	}
	i := sort.Search(len(history), func(i int) bool { return at.less(history[i]) })
	return slices.Insert(history, i, at)
}

func (v *vertexRecord) record(at stamp) { v.history = insertStamp(v.history, at) }
func (r *edgeRecord) record(at stamp)   { r.history = insertStamp(r.history, at) }

func (v *vertexRecord) applyProperties(u tempograph.Update) error {
	at := stampOf(u)
	for _, p := range u.Properties {
		if p.Kind == tempograph.Immutable {
			if prior, ok := latestValue(v.properties[p.Name]); ok && prior != p.Value {
				return fmt.Errorf("immutable property %q redefined from %v to %v", p.Name, prior, p.Value)
			}
		}
		if p.Name == "name" {
			if s, ok := p.Value.(string); ok {
				v.name = s
			}
		}
		v.properties[p.Name] = append(v.properties[p.Name], propertyStamp{at: at, value: p.Value, kind: p.Kind})
	}
	return nil
}

func latestValue(history []propertyStamp) (any, bool) {
	if len(history) == 0 {
		return nil, false
	}
	return history[len(history)-1].value, true
}

// Vertices lists the state of all vertices visible at the given perspective,
// in ascending GlobalID order. A vertex is visible if any of its history
// stamps falls within the perspective; degrees count the distinct edges with
// activity within the perspective.
func (e *Engine) Vertices(ctx context.Context, p tempograph.Perspective) ([]tempograph.VertexState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, errClosed
	}
	return e.verticesLocked(p), nil
}

// verticesLocked is Vertices without the locking, for callers that already
// hold the read lock (native algorithm runs).
func (e *Engine) verticesLocked(p tempograph.Perspective) []tempograph.VertexState {
	states := make([]tempograph.VertexState, 0, len(e.vertices))
	for id, v := range e.vertices {
		if !v.visible(p) {
			continue
		}
		state := tempograph.VertexState{
			ID:         id,
			Name:       v.name,
			Type:       v.vtype,
			Properties: v.propertiesAt(p),
		}
		for _, key := range e.neighbours[id] {
			if !e.edges[key].visible(p) {
				continue
			}
			state.Degree++
			if key.src == id {
				state.OutDegree++
			}
			if key.dst == id {
				state.InDegree++
			}
		}
		states = append(states, state)
	}
	slices.SortFunc(states, func(a, b tempograph.VertexState) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return states
}

// visibleNeighbours returns the adjacency of the given vertex restricted to
// edges with activity within the perspective. Callers must hold the read
// lock.
func (e *Engine) visibleNeighbours(id tempograph.GlobalID, p tempograph.Perspective) []tempograph.GlobalID {
	var out []tempograph.GlobalID
	for _, key := range e.neighbours[id] {
		if !e.edges[key].visible(p) {
			continue
		}
		if key.src == id {
			out = append(out, key.dst)
		} else {
			out = append(out, key.src)
		}
	}
	return out
}

func (v *vertexRecord) visible(p tempograph.Perspective) bool {
	for _, at := range v.history {
		if p.Covers(at.time) {
			return true
		}
	}
	return false
}

func (r *edgeRecord) visible(p tempograph.Perspective) bool {
	for _, at := range r.history {
		if p.Covers(at.time) {
			return true
		}
	}
	return false
}

// propertiesAt projects the latest covered value of each property.
func (v *vertexRecord) propertiesAt(p tempograph.Perspective) map[string]any {
	if len(v.properties) == 0 {
		return nil
	}
	props := make(map[string]any, len(v.properties))
	for name, history := range v.properties {
		for i := len(history) - 1; i >= 0; i-- {
			if p.Covers(history[i].at.time) {
				props[name] = history[i].value
				break
			}
		}
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

// RunNative executes a registered native algorithm at each of the given
// perspectives. It fails on algorithm names this engine does not recognise.
func (e *Engine) RunNative(ctx context.Context, algorithm string, ps []tempograph.Perspective) (*tempograph.Table, error) {
	run, ok := lookupAlgorithm(algorithm)
	if !ok {
		return nil, fmt.Errorf("unrecognised native algorithm %q", algorithm)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, errClosed
	}
	return run(ctx, e, ps)
}

// ClearMessages drops any pending inter-vertex messages accumulated during an
// algorithm run.
func (e *Engine) ClearMessages(ctx context.Context) error {
	e.messages.Clear()
	return nil
}

// LatestTime returns the greatest update timestamp ingested so far, reporting
// ok == false on an empty graph.
func (e *Engine) LatestTime(ctx context.Context) (t int64, ok bool, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return 0, false, errClosed
	}
	return e.latest, e.hasLatest, nil
}

// Close releases the engine. All later calls fail; the stored histories are
// dropped.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.vertices = nil
	e.edges = nil
	e.neighbours = nil
	e.messages.Clear()
	return nil
}
