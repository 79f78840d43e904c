package tempograph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielorbach/go-component"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// An Algorithm transforms a temporal-graph view and tabulates the result.
// There are exactly two variants behind this one interface: engine-native
// algorithms (see Native), which the view delegates to the engine wholesale,
// and user-defined algorithms, which run in-process against the view's read
// API. The view dispatches through the interface, never by inspecting the
// runtime type.
type Algorithm interface {
	// Name identifies the algorithm. Transform tags the produced view with it
	// as provenance.
	Name() string

	// Apply produces the transformed view. Implementations must treat the
	// given view as immutable and return a derived one.
	Apply(ctx context.Context, g TemporalGraph) (TemporalGraph, error)

	// Tabularise converts the transformed view's per-perspective state into
	// row-oriented results.
	Tabularise(ctx context.Context, g TemporalGraph) (*Table, error)
}

// Native returns the Algorithm recognised by the engine under the given
// name. Its whole execution - supersteps, message passing, tabulation -
// happens inside the engine; the view only tracks provenance around it.
func Native(name string) Algorithm { return nativeAlgorithm{name: name} }

type nativeAlgorithm struct {
	name string
}

func (a nativeAlgorithm) Name() string { return a.name }

// Engine-native algorithms do not materialise intermediate views on this side
// of the engine boundary, so Apply only carries the view through; the
// engine-side work happens when the tagged view is tabularised.
func (a nativeAlgorithm) Apply(ctx context.Context, g TemporalGraph) (TemporalGraph, error) {
	return g, nil
}

func (a nativeAlgorithm) Tabularise(ctx context.Context, g TemporalGraph) (*Table, error) {
	ps, err := g.EvaluationPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("perspectives: %w", err)
	}
	table, err := g.engine.RunNative(ctx, a.name, ps)
	if err != nil {
		return nil, fmt.Errorf("run native algorithm %q: %w", a.name, err)
	}
	return table, nil
}

// AlgorithmFuncs adapts plain functions into a user-defined Algorithm. A nil
// ApplyFunc leaves the view untransformed; TabulariseFunc must be non-nil for
// the algorithm to be executed.
type AlgorithmFuncs struct {
	AlgorithmName  string
	ApplyFunc      func(ctx context.Context, g TemporalGraph) (TemporalGraph, error)
	TabulariseFunc func(ctx context.Context, g TemporalGraph) (*Table, error)
}

func (a AlgorithmFuncs) Name() string { return a.AlgorithmName }

func (a AlgorithmFuncs) Apply(ctx context.Context, g TemporalGraph) (TemporalGraph, error) {
	if a.ApplyFunc == nil {
		return g, nil
	}
	return a.ApplyFunc(ctx, g)
}

func (a AlgorithmFuncs) Tabularise(ctx context.Context, g TemporalGraph) (*Table, error) {
	if a.TabulariseFunc == nil {
		return nil, errors.New("algorithm " + a.AlgorithmName + " cannot tabularise")
	}
	return a.TabulariseFunc(ctx, g)
}

// A TemporalGraph is a transformable, executable view over an ingested graph.
// It holds a reference to the engine plus view metadata - the selected
// evaluation points and the name of the last applied algorithm - but no graph
// state of its own.
//
// Views have value semantics: Transform and the perspective selectors return
// new views and never mutate their receiver, even though the storage beneath
// is shared.
type TemporalGraph struct {
	engine        Engine
	perspectives  []Perspective
	transformedBy string
}

// NewTemporalGraph returns a view over the graph held by the given engine.
// Without further perspective selection, algorithms evaluate at a single
// unwindowed perspective at the latest ingested time.
func NewTemporalGraph(engine Engine) TemporalGraph {
	return TemporalGraph{engine: engine}
}

// At returns a view evaluating algorithms at a single unwindowed perspective
// covering all history up to time t.
func (g TemporalGraph) At(t int64) TemporalGraph {
	g.perspectives = []Perspective{{Timestamp: t}}
	return g
}

// Rolling returns a view evaluating algorithms at one windowed perspective
// per given timestamp, each covering the window (t-window, t].
func (g TemporalGraph) Rolling(window int64, ts ...int64) TemporalGraph {
	ps := make([]Perspective, len(ts))
	for i, t := range ts {
		ps[i] = Perspective{Timestamp: t, Window: &Window{Size: window}}
	}
	g.perspectives = ps
	return g
}

// EvaluationPoints returns the perspectives algorithms evaluate at: the
// explicitly selected ones, or the default single perspective at the latest
// ingested time. An empty graph has no evaluation points.
func (g TemporalGraph) EvaluationPoints(ctx context.Context) ([]Perspective, error) {
	if g.perspectives != nil {
		return g.perspectives, nil
	}
	latest, ok, err := g.engine.LatestTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest time: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return []Perspective{{Timestamp: latest}}, nil
}

// TransformedBy returns the name of the algorithm that produced this view, or
// an empty string for an untransformed view.
func (g TemporalGraph) TransformedBy() string { return g.transformedBy }

// Vertices lists the state of all vertices visible at the given perspective.
// User-defined algorithms read the graph exclusively through this projection.
func (g TemporalGraph) Vertices(ctx context.Context, p Perspective) ([]VertexState, error) {
	return g.engine.Vertices(ctx, p)
}

// Transform applies an algorithm to the view and returns the transformed
// view, tagged with the algorithm's name.
//
// After the algorithm has run, any inter-vertex message queues it accumulated
// are cleared, so a subsequent transform never observes messages from a
// previous algorithm.
func (g TemporalGraph) Transform(ctx context.Context, a Algorithm) (TemporalGraph, error) {
	ctx, span := tracer.Start(ctx, "Transform", trace.WithAttributes(
		attribute.String("algorithm.name", a.Name()),
	))
	defer span.End()
	started := time.Now()

	next, err := a.Apply(ctx, g)
	if err != nil {
		measureTransform(ctx, a.Name(), false, time.Since(started))
		return TemporalGraph{}, fmt.Errorf("apply algorithm %q: %w", a.Name(), err)
	}
	next.transformedBy = a.Name()

	if err := next.engine.ClearMessages(ctx); err != nil {
		measureTransform(ctx, a.Name(), false, time.Since(started))
		return TemporalGraph{}, fmt.Errorf("clear message queues: %w", err)
	}
	measureTransform(ctx, a.Name(), true, time.Since(started))
	return next, nil
}

// Execute runs an algorithm on the view and returns its tabulated results:
// Transform to obtain the transformed view, then the algorithm's Tabularise
// on that view. Provenance is attached to the transform step exactly as in
// Transform.
func (g TemporalGraph) Execute(ctx context.Context, a Algorithm) (*Table, error) {
	next, err := g.Transform(ctx, a)
	if err != nil {
		return nil, err
	}
	table, err := a.Tabularise(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("tabularise algorithm %q: %w", a.Name(), err)
	}
	return table, nil
}

// A DeployedTemporalGraph is a TemporalGraph obtained from a deployment
// context. Beyond the view it owns the engine's underlying resources, which
// Close releases. Close is idempotent.
type DeployedTemporalGraph struct {
	TemporalGraph

	closeOnce sync.Once
	closeErr  error
}

// Deploy returns a deployed view owning the given engine.
func Deploy(engine Engine) *DeployedTemporalGraph {
	return &DeployedTemporalGraph{TemporalGraph: NewTemporalGraph(engine)}
}

// Close releases the underlying engine resources. Later calls return the
// first call's error.
func (d *DeployedTemporalGraph) Close(ctx context.Context) error {
	d.closeOnce.Do(func() {
		component.Logger(ctx).Debug("Closing deployed temporal graph")
		d.closeErr = d.engine.Close(ctx)
	})
	return d.closeErr
}

// WithScope deploys a view over the given engine, passes it to fn, and
// guarantees Close on all exit paths - normal return, error return and panic
// alike. The error of Close is returned when fn itself succeeded.
func WithScope(ctx context.Context, engine Engine, fn func(*DeployedTemporalGraph) error) (err error) {
	d := Deploy(engine)
	defer func() {
		cerr := d.Close(ctx)
		if err == nil && cerr != nil {
			err = fmt.Errorf("close deployed graph: %w", cerr)
		}
	}()
	return fn(d)
}
