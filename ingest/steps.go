package ingest

import (
	"context"
	"encoding/gob"

	tempograph "github.com/go-tempograph/go-tempograph"
)

// We register all Step implementations with gob to enable serialisation
// across process boundaries. Property values travel inside interface fields,
// so their common concrete types are registered too; batches carrying other
// property types must register those themselves.
//
// Without this registration, the gob encoder would fail when attempting to
// serialise a batch.
func init() {
	gob.Register(vertexAddition{})
	gob.Register(edgeAddition{})
	gob.Register("")
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
}

// A Ref identifies a vertex within a recorded step, either by external name
// or by raw numeric id. A non-empty Name takes precedence.
type Ref struct {
	Name string
	ID   tempograph.GlobalID
}

// ByName returns a Ref for a vertex identified by its external name.
func ByName(name string) Ref { return Ref{Name: name} }

// ByID returns a Ref for a vertex identified by its raw numeric id.
func ByID(id tempograph.GlobalID) Ref { return Ref{ID: id} }

func (r Ref) vertexRef() tempograph.VertexRef {
	if r.Name != "" {
		return tempograph.Name(r.Name)
	}
	return tempograph.GID(r.ID)
}

// A vertexAddition is a Step that records one vertex update.
type vertexAddition struct {
	Time       int64
	ID         Ref
	Properties []tempograph.Property
	EntityType string
}

func (s vertexAddition) Do(ctx context.Context, g *tempograph.Graph) error {
	return g.AddVertex(ctx, tempograph.Epoch(s.Time), s.ID.vertexRef(), s.Properties, s.EntityType)
}

func (s vertexAddition) targets() []Ref { return []Ref{s.ID} }

// An edgeAddition is a Step that records one edge update.
type edgeAddition struct {
	Time       int64
	Src, Dst   Ref
	Properties []tempograph.Property
	EntityType string
}

func (s edgeAddition) Do(ctx context.Context, g *tempograph.Graph) error {
	return g.AddEdge(ctx, tempograph.Epoch(s.Time), s.Src.vertexRef(), s.Dst.vertexRef(), s.Properties, s.EntityType)
}

func (s edgeAddition) targets() []Ref { return []Ref{s.Src, s.Dst} }
