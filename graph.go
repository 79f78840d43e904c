package tempograph

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// A Graph accepts timestamped vertex and edge updates and forwards them,
// normalised, to an external engine. The Graph owns no vertex/edge storage
// itself; it exclusively owns the identity-resolution table and the
// strictly increasing secondary-index sequence.
//
// A Graph is safe for concurrent ingestion, though updates are typically
// submitted from a single logical ingestion stream.
type Graph struct {
	store GraphStore

	identities identityTable
	indices    sequence
}

// NewGraph returns a Graph that delegates storage to the given engine store.
func NewGraph(store GraphStore) *Graph {
	return &Graph{store: store}
}

// A TimeInput is the timestamp argument of an ingestion call: either an epoch
// value or a text parsed against the call's time format.
type TimeInput struct {
	epoch int64
	text  string
	isTxt bool
}

// Epoch returns a TimeInput carrying an epoch-millisecond timestamp.
func Epoch(millis int64) TimeInput { return TimeInput{epoch: millis} }

// TimeText returns a TimeInput carrying a textual timestamp, parsed at
// ingestion against the call's time format (DefaultTimePattern unless
// WithTimeFormat overrides it).
func TimeText(text string) TimeInput { return TimeInput{text: text, isTxt: true} }

// A VertexRef identifies a vertex in an ingestion call: either a raw numeric
// id or an external string name. A name resolves deterministically to the
// same GlobalID for the lifetime of the graph.
type VertexRef struct {
	id    GlobalID
	name  string
	named bool
}

// GID returns a VertexRef for a vertex identified by its raw numeric id.
func GID(id GlobalID) VertexRef { return VertexRef{id: id} }

// Name returns a VertexRef for a vertex identified by an external name.
func Name(name string) VertexRef { return VertexRef{name: name, named: true} }

// An UpdateOption adjusts how a single ingestion call is normalised.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	secondaryIndex    int64
	hasSecondaryIndex bool
	format            *TimeFormat
}

// WithSecondaryIndex fixes the update's tie-breaking index instead of drawing
// the next value from the graph's sequence. Use it to interleave updates from
// sources that carry their own ordering.
func WithSecondaryIndex(i int64) UpdateOption {
	return func(o *updateOptions) {
		o.secondaryIndex = i
		o.hasSecondaryIndex = true
	}
}

// WithTimeFormat parses the call's textual timestamp with the given format
// instead of DefaultTimePattern. It has no effect on epoch timestamps.
func WithTimeFormat(f *TimeFormat) UpdateOption {
	return func(o *updateOptions) { o.format = f }
}

// AddVertex adds a new vertex to the graph or updates an existing one.
//
// A textual timestamp is parsed against the call's time format, failing with
// a *TimeFormatError that applies nothing. A textual vertex identifier is
// resolved to its GlobalID and appended to the property list as an immutable
// "name" property so the label round-trips into query results.
//
// When no WithSecondaryIndex option is given, the update's tie-breaking index
// is drawn from the graph's strictly increasing sequence, so that updates
// submitted without explicit indices keep their submission order.
func (g *Graph) AddVertex(ctx context.Context, at TimeInput, id VertexRef, properties []Property, vertexType string, opts ...UpdateOption) error {
	u, err := g.normalise(at, VertexUpdate, vertexType, opts)
	if err != nil {
		return err
	}
	u.Properties = properties
	u.Src, err = g.resolve(id)
	if err != nil {
		return fmt.Errorf("resolve vertex: %w", err)
	}
	if id.named {
		// Append (never prepend) so caller-supplied properties keep their
		// submission order.
		u.Properties = append(u.Properties[:len(u.Properties):len(u.Properties)], ImmutableString("name", id.name))
	}

	if err := g.store.AddVertexUpdate(ctx, u); err != nil {
		return fmt.Errorf("add vertex update: %w", err)
	}
	measureIngestion(ctx, VertexUpdate)
	return nil
}

// AddEdge adds a new edge to the graph or updates an existing one. Time and
// secondary-index handling are identical to AddVertex; src and dst resolve
// independently through the identity table when textual. Unlike AddVertex, no
// "name" property is injected - only endpoints may be named.
func (g *Graph) AddEdge(ctx context.Context, at TimeInput, src, dst VertexRef, properties []Property, edgeType string, opts ...UpdateOption) error {
	u, err := g.normalise(at, EdgeUpdate, edgeType, opts)
	if err != nil {
		return err
	}
	u.Properties = properties
	u.Src, err = g.resolve(src)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	u.Dst, err = g.resolve(dst)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	if err := g.store.AddEdgeUpdate(ctx, u); err != nil {
		return fmt.Errorf("add edge update: %w", err)
	}
	measureIngestion(ctx, EdgeUpdate)
	return nil
}

// normalise builds the Update skeleton shared by vertex and edge ingestion:
// parsed time, assigned secondary index, and entity type.
func (g *Graph) normalise(at TimeInput, kind UpdateKind, entityType string, opts []UpdateOption) (Update, error) {
	var o updateOptions
	for _, opt := range opts {
		opt(&o)
	}

	u := Update{Kind: kind, EntityType: entityType, Time: at.epoch}
	if at.isTxt {
		format := o.format
		if format == nil {
			format = defaultTimeFormat
		}
		t, err := format.Parse(at.text)
		if err != nil {
			return Update{}, fmt.Errorf("parse update time: %w", err)
		}
		u.Time = t
	}

	if o.hasSecondaryIndex {
		u.SecondaryIndex = o.secondaryIndex
	} else {
		u.SecondaryIndex = g.indices.Next()
	}
	return u, nil
}

func (g *Graph) resolve(ref VertexRef) (GlobalID, error) {
	if !ref.named {
		return ref.id, nil
	}
	return g.identities.Resolve(ref.name)
}

// measureIngestion counts each update forwarded to the engine, labelled by
// the update kind so vertex and edge throughput can be analysed separately or
// together.
//
// According to go.opentelemetry.io/otel/attribute package documentation,
// attribute.Set should be used instead of attribute.KeyValue directly for
// performance optimization.
func measureIngestion(ctx context.Context, kind UpdateKind) {
	attrs := attribute.NewSet(attribute.String(updateKindAttribute, kind.String()))
	ingestedUpdates.Add(ctx, 1, metric.WithAttributeSet(attrs))
}
