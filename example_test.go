package tempograph_test

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	tempograph "github.com/go-tempograph/go-tempograph"
	"github.com/go-tempograph/go-tempograph/memengine"
)

// This example ingests a tiny ownership graph and tabulates the engine-native
// degree algorithm at the graph's latest time.
//
// The in-memory engine keeps the whole temporal graph in the process; swap in
// another engine (e.g. neo4jengine) without touching the rest of the code.
func Example() {
	ctx := context.Background()

	engine := memengine.New()
	err := tempograph.WithScope(ctx, engine, func(d *tempograph.DeployedTemporalGraph) error {
		// Ingestion goes through a Graph sharing the deployed engine. Baz
		// owns a dog he calls Riderman; each vertex update carries the name
		// label, and the edge connects them since March 2021.
		g := tempograph.NewGraph(engine)
		for _, name := range []string{"Baz", "Riderman"} {
			if err := g.AddVertex(ctx, tempograph.TimeText("2021-03-01"), tempograph.Name(name), nil, ""); err != nil {
				return err
			}
		}
		if err := g.AddEdge(ctx, tempograph.TimeText("2021-03-01"), tempograph.Name("Baz"), tempograph.Name("Riderman"), nil, "owns"); err != nil {
			return err
		}

		// Without an explicit perspective selection, algorithms evaluate at
		// the latest ingested time.
		table, err := d.Execute(ctx, tempograph.Native("degree"))
		if err != nil {
			return err
		}
		df, err := table.Flatten("name", "degree")
		if err != nil {
			return err
		}

		// Result rows arrive in GlobalID order; sort them by name for a
		// stable, readable listing.
		slices.SortFunc(df.Records, func(a, b []any) int {
			return cmp.Compare(a[1].(string), b[1].(string))
		})
		for _, r := range df.Records {
			fmt.Println(r[0], r[1], r[2])
		}
		return nil
	})
	if err != nil {
		panic(err)
	}

	// Output:
	// 2021-03-01 00:00:00.000 Baz 1
	// 2021-03-01 00:00:00.000 Riderman 1
}

func ExampleTimeFormat() {
	f := tempograph.MustTimeFormat("yyyy[-MM]")
	t, err := f.Parse("2021-03")
	if err != nil {
		panic(err)
	}
	fmt.Println(tempograph.FormatTime(t))
	// Output: 2021-03-01 00:00:00.000
}
