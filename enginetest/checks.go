package enginetest

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/go-cmp/cmp"

	tempograph "github.com/go-tempograph/go-tempograph"
)

// A check is any function that returns unexpected problems with the given
// engine's observable state.
type check func(ctx context.Context, e tempograph.Engine) (problem string)

// at returns an unwindowed perspective covering all history up to t.
func at(t int64) tempograph.Perspective {
	return tempograph.Perspective{Timestamp: t}
}

// rolling returns a perspective at t covering only the window (t-size, t].
func rolling(t, size int64) tempograph.Perspective {
	return tempograph.Perspective{Timestamp: t, Window: &tempograph.Window{Size: size}}
}

// A vertexSummary is the perspective-independent slice of a VertexState that
// every engine must agree on. Property projections differ legitimately
// between engines (some retain per-property history, some only the latest
// value), so properties are checked separately and only where all engines
// converge.
type vertexSummary struct {
	ID                          tempograph.GlobalID
	Name, Type                  string
	Degree, OutDegree, InDegree int
}

// vertex describes an expected named vertex.
func vertex(name, vtype string, degree, out, in int) vertexSummary {
	return vertexSummary{
		ID:        tempograph.AssignID(name),
		Name:      name,
		Type:      vtype,
		Degree:    degree,
		OutDegree: out,
		InDegree:  in,
	}
}

// unnamed describes an expected vertex that only ever appeared as an edge
// endpoint: its GlobalID derives from the given name, but no vertex update
// carried the name itself, so the engine reports neither name nor type.
func unnamed(name string, degree, out, in int) vertexSummary {
	return vertexSummary{
		ID:        tempograph.AssignID(name),
		Degree:    degree,
		OutDegree: out,
		InDegree:  in,
	}
}

// Checks that the vertices visible at the given perspective are exactly as
// expected, in ascending GlobalID order.
func vertices(p tempograph.Perspective, want ...vertexSummary) check {
	slices.SortFunc(want, func(a, b vertexSummary) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return func(ctx context.Context, e tempograph.Engine) string {
		states, err := e.Vertices(ctx, p)
		if err != nil {
			return fmt.Sprintf("Vertices(%v) failed: %v", p, err)
		}
		var got []vertexSummary
		for _, s := range states {
			got = append(got, vertexSummary{
				ID:        s.ID,
				Name:      s.Name,
				Type:      s.Type,
				Degree:    s.Degree,
				OutDegree: s.OutDegree,
				InDegree:  s.InDegree,
			})
		}
		if diff := cmp.Diff(want, got); diff != "" {
			return fmt.Sprintf("Vertices(%v) mismatch (-want +got):\n%v", p, diff)
		}
		return ""
	}
}

// Checks that the named vertex carries the given property value at the given
// perspective.
func property(p tempograph.Perspective, name, key string, want any) check {
	id := tempograph.AssignID(name)
	return func(ctx context.Context, e tempograph.Engine) string {
		states, err := e.Vertices(ctx, p)
		if err != nil {
			return fmt.Sprintf("Vertices(%v) failed: %v", p, err)
		}
		for _, s := range states {
			if s.ID != id {
				continue
			}
			got, ok := s.Properties[key]
			if !ok {
				return fmt.Sprintf("vertex %q has no property %q", name, key)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				return fmt.Sprintf("property %q of %q mismatch (-want +got):\n%v", key, name, diff)
			}
			return ""
		}
		return fmt.Sprintf("vertex %q not visible at %v", name, p)
	}
}

// Checks that the engine reports the given latest update time.
func latestTime(want int64) check {
	return func(ctx context.Context, e tempograph.Engine) string {
		t, ok, err := e.LatestTime(ctx)
		if err != nil {
			return fmt.Sprintf("LatestTime failed: %v", err)
		}
		if !ok {
			return "LatestTime reported an empty graph"
		}
		if t != want {
			return fmt.Sprintf("LatestTime = %v, want %v", t, want)
		}
		return ""
	}
}

// Checks that the engine reports no latest time at all, as it must on a graph
// that has never ingested an update.
func noLatestTime() check {
	return func(ctx context.Context, e tempograph.Engine) string {
		t, ok, err := e.LatestTime(ctx)
		if err != nil {
			return fmt.Sprintf("LatestTime failed: %v", err)
		}
		if ok {
			return fmt.Sprintf("LatestTime = %v, want an empty graph", t)
		}
		return ""
	}
}

// A degreeExpectation pairs an expected native "degree" row with the
// GlobalID of the vertex it describes, so expectations can be declared in
// any order and sorted into the engine's output order.
type degreeExpectation struct {
	id  tempograph.GlobalID
	row []any
}

// degreeRow is the expected native "degree" row for a named vertex.
func degreeRow(name string, degree int) degreeExpectation {
	return degreeExpectation{id: tempograph.AssignID(name), row: []any{name, degree}}
}

// gidDegreeRow is the expected native "degree" row for a vertex without a
// name, which engines label by its GlobalID instead.
func gidDegreeRow(name string, degree int) degreeExpectation {
	id := tempograph.AssignID(name)
	return degreeExpectation{id: id, row: []any{uint64(id), degree}}
}

// Checks that the native "degree" algorithm tabulates exactly the given rows
// for the given perspective, in ascending GlobalID order.
func degrees(p tempograph.Perspective, want ...degreeExpectation) check {
	slices.SortFunc(want, func(a, b degreeExpectation) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	var wantRows [][]any
	for _, w := range want {
		wantRows = append(wantRows, w.row)
	}
	return func(ctx context.Context, e tempograph.Engine) string {
		table, err := e.RunNative(ctx, "degree", []tempograph.Perspective{p})
		if err != nil {
			return fmt.Sprintf("RunNative(degree, %v) failed: %v", p, err)
		}
		results := table.Results()
		if len(results) != 1 {
			return fmt.Sprintf("len(results) = %v, want 1", len(results))
		}
		var got [][]any
		for _, row := range results[0].Rows {
			got = append(got, row.Values)
		}
		if diff := cmp.Diff(wantRows, got); diff != "" {
			return fmt.Sprintf("degree rows at %v mismatch (-want +got):\n%v", p, diff)
		}
		return ""
	}
}

// Checks that clearing pending messages succeeds.
func clearMessages() check {
	return func(ctx context.Context, e tempograph.Engine) string {
		if err := e.ClearMessages(ctx); err != nil {
			return fmt.Sprintf("ClearMessages failed: %v", err)
		}
		return ""
	}
}
