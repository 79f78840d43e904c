package tempograph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlattenUnwindowed(t *testing.T) {
	table := NewTable()
	table.Append(Perspective{Timestamp: 0},
		NewRow("alice", 1),
		NewRow("bob", 2),
	)
	table.Append(Perspective{Timestamp: 1000},
		NewRow("alice", 3),
	)

	df, err := table.Flatten("name", "degree")
	if err != nil {
		t.Fatal(err)
	}

	want := &DataFrame{
		Columns: []string{"timestamp", "name", "degree"},
		Records: [][]any{
			{"1970-01-01 00:00:00.000", "alice", 1},
			{"1970-01-01 00:00:00.000", "bob", 2},
			{"1970-01-01 00:00:01.000", "alice", 3},
		},
	}
	if diff := cmp.Diff(want, df); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%v", diff)
	}
}

func TestFlattenWindowed(t *testing.T) {
	table := NewTable()
	table.Append(Perspective{Timestamp: 1000, Window: &Window{Size: 500}},
		NewRow("alice", 1),
	)

	df, err := table.Flatten("name", "degree")
	if err != nil {
		t.Fatal(err)
	}

	want := &DataFrame{
		Columns: []string{"timestamp", "window", "name", "degree"},
		Records: [][]any{
			{"1970-01-01 00:00:01.000", int64(500), "alice", 1},
		},
	}
	if diff := cmp.Diff(want, df); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%v", diff)
	}
}

func TestFlattenEmptyTable(t *testing.T) {
	df, err := NewTable().Flatten("name")
	if err != nil {
		t.Fatal(err)
	}
	if len(df.Columns) != 0 || len(df.Records) != 0 {
		t.Errorf("Flatten of empty table = %+v, want an empty frame", df)
	}
}

func TestFlattenMixedSchemas(t *testing.T) {
	// Mixing windowed and unwindowed perspectives cannot produce a coherent
	// header. The default keeps the last perspective's schema for
	// compatibility with downstream consumers of the original pipeline.
	mixed := func() *Table {
		table := NewTable()
		table.Append(Perspective{Timestamp: 1000, Window: &Window{Size: 500}}, NewRow("alice"))
		table.Append(Perspective{Timestamp: 2000}, NewRow("bob"))
		return table
	}

	t.Run("default-last-wins", func(t *testing.T) {
		df, err := mixed().Flatten("name")
		if err != nil {
			t.Fatal(err)
		}
		wantColumns := []string{"timestamp", "name"}
		if diff := cmp.Diff(wantColumns, df.Columns); diff != "" {
			t.Errorf("columns mismatch (-want +got):\n%v", diff)
		}
		// Both perspectives' rows survive, even those shaped for the
		// discarded header.
		if len(df.Records) != 2 {
			t.Errorf("len(Records) = %v, want 2", len(df.Records))
		}
	})

	t.Run("strict-rejects", func(t *testing.T) {
		_, err := mixed().Strict().Flatten("name")
		var sme *SchemaMismatchError
		if !errors.As(err, &sme) {
			t.Fatalf("Flatten = %v, want *SchemaMismatchError", err)
		}
		if sme.Perspective != 1 {
			t.Errorf("error names perspective %v, want 1", sme.Perspective)
		}
	})
}

func TestPerspectiveCovers(t *testing.T) {
	tests := []struct {
		Name        string
		Perspective Perspective
		Time        int64
		Want        bool
	}{
		{Name: "unwindowed-past", Perspective: Perspective{Timestamp: 10}, Time: 3, Want: true},
		{Name: "unwindowed-at", Perspective: Perspective{Timestamp: 10}, Time: 10, Want: true},
		{Name: "unwindowed-future", Perspective: Perspective{Timestamp: 10}, Time: 11, Want: false},
		{Name: "windowed-inside", Perspective: Perspective{Timestamp: 10, Window: &Window{Size: 3}}, Time: 8, Want: true},
		{Name: "windowed-at-lower-bound", Perspective: Perspective{Timestamp: 10, Window: &Window{Size: 3}}, Time: 7, Want: false},
		{Name: "windowed-at-upper-bound", Perspective: Perspective{Timestamp: 10, Window: &Window{Size: 3}}, Time: 10, Want: true},
	}
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			if got := tt.Perspective.Covers(tt.Time); got != tt.Want {
				t.Errorf("Covers(%v) = %v, want %v", tt.Time, got, tt.Want)
			}
		})
	}
}
