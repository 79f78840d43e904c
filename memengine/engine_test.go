package memengine

import (
	"context"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	tempograph "github.com/go-tempograph/go-tempograph"
	"github.com/go-tempograph/go-tempograph/enginetest"
)

func TestEngine(t *testing.T) {
	e := New()
	defer e.Close(context.Background())
	enginetest.Run(t, e)
}

func TestConnectedComponents(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close(ctx)
	g := tempograph.NewGraph(e)

	// A three-vertex chain assembled at t=10, plus an isolate known since
	// t=4. Before the chain exists every vertex is its own component. The
	// chain vertices get their own named updates because edge updates alone
	// leave endpoints anonymous.
	for _, name := range []string{"a", "b", "c"} {
		if err := g.AddVertex(ctx, tempograph.Epoch(10), tempograph.Name(name), nil, ""); err != nil {
			t.Fatal(err)
		}
	}
	for _, edge := range [][2]string{{"a", "b"}, {"b", "c"}} {
		if err := g.AddEdge(ctx, tempograph.Epoch(10), tempograph.Name(edge[0]), tempograph.Name(edge[1]), nil, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.AddVertex(ctx, tempograph.Epoch(4), tempograph.Name("d"), nil, ""); err != nil {
		t.Fatal(err)
	}

	before := tempograph.Perspective{Timestamp: 5}
	after := tempograph.Perspective{Timestamp: 10}
	table, err := e.RunNative(ctx, "connected-components", []tempograph.Perspective{before, after})
	if err != nil {
		t.Fatal(err)
	}

	chain := slices.Min([]tempograph.GlobalID{
		tempograph.AssignID("a"),
		tempograph.AssignID("b"),
		tempograph.AssignID("c"),
	})
	want := []tempograph.PerspectiveResult{
		{Perspective: before, Rows: componentRows(t, map[string]tempograph.GlobalID{
			"d": tempograph.AssignID("d"),
		})},
		{Perspective: after, Rows: componentRows(t, map[string]tempograph.GlobalID{
			"a": chain,
			"b": chain,
			"c": chain,
			"d": tempograph.AssignID("d"),
		})},
	}
	if diff := cmp.Diff(want, table.Results()); diff != "" {
		t.Errorf("Results mismatch (-want +got):\n%v", diff)
	}
}

// componentRows builds the expected connected-components rows for the given
// name-to-label mapping, in the engine's ascending GlobalID output order.
func componentRows(t *testing.T, labels map[string]tempograph.GlobalID) []tempograph.Row {
	t.Helper()
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch x, y := tempograph.AssignID(a), tempograph.AssignID(b); {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	})
	rows := make([]tempograph.Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, tempograph.NewRow(name, uint64(labels[name])))
	}
	return rows
}

func TestRunNativeRejectsUnknownAlgorithm(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close(ctx)

	if _, err := e.RunNative(ctx, "page-rank", nil); err == nil {
		t.Fatal("expected an error for an unregistered algorithm")
	}
}

func TestClosedEngineRejectsUpdates(t *testing.T) {
	ctx := context.Background()
	e := New()
	if err := e.Close(ctx); err != nil {
		t.Fatal(err)
	}

	u := tempograph.Update{Kind: tempograph.VertexUpdate, Time: 1, Src: tempograph.AssignID("a")}
	if err := e.AddVertexUpdate(ctx, u); err == nil {
		t.Error("AddVertexUpdate succeeded on a closed engine")
	}
	if _, err := e.Vertices(ctx, tempograph.Perspective{Timestamp: 1}); err == nil {
		t.Error("Vertices succeeded on a closed engine")
	}
}
