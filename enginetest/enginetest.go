/*
Package enginetest provides a suite of tests designed to assess temporal
graph engines (e.g. in-memory, neo4j).

The tests operate on the specific graph engine via the [tempograph.Engine]
interface to check functional correctness and compliance with the behaviours
defined by that interface: identity resolution, perspective visibility,
windowing, degree counting, and the native algorithm contract.

Call enginetest.Run in its own test to invoke the test-suite:

	func TestEngine(t *testing.T) {
		// Create a new temporal graph engine to put under test.
		engine := memengine.New()
		defer engine.Close(context.Background())
		enginetest.Run(t, engine)
	}

The test cases in this suite focus on the basic graph operations:

  - Ingesting vertex and edge updates through a graph's identity resolution.
  - Observing the graph's state from different perspectives over time.

So, specific temporal graph engines are encouraged to perform additional
tests which are specific to the underlying storage.
*/
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"testing"

	tempograph "github.com/go-tempograph/go-tempograph"
)

type testCase struct {
	// Subtest name.
	name string
	// A path leading to the test-case's file and line in the source code.
	location string
	// A step executes ingestion on the tested engine through a Graph, so
	// identity resolution and update normalisation apply exactly as they
	// would in production. A nil step only runs the case's checks.
	step func(ctx context.Context, g *tempograph.Graph) error
	// A list of checks to run against the engine after the step has been
	// applied. Checks observe the graph only through the engine interface.
	checks []check
}

var cases = []testCase{
	{
		name:     "empty-graph",
		location: locateSource(),
		checks: []check{
			noLatestTime(),
			vertices(at(0)),
		},
	},
	{
		name:     "first-vertex",
		location: locateSource(),
		step: func(ctx context.Context, g *tempograph.Graph) error {
			return g.AddVertex(ctx, tempograph.Epoch(1), tempograph.Name("alice"),
				[]tempograph.Property{tempograph.ImmutableString("species", "human")}, "person")
		},
		checks: []check{
			latestTime(1),
			vertices(at(1), vertex("alice", "person", 0, 0, 0)),
			// Nothing is visible before its first update.
			vertices(at(0)),
		},
	},
	{
		name:     "repeated-name-resolves-to-same-vertex",
		location: locateSource(),
		step: func(ctx context.Context, g *tempograph.Graph) error {
			return g.AddVertex(ctx, tempograph.Epoch(3), tempograph.Name("alice"),
				[]tempograph.Property{tempograph.MutableInt("score", 10)}, "")
		},
		checks: []check{
			latestTime(3),
			vertices(at(3), vertex("alice", "person", 0, 0, 0)),
			property(at(3), "alice", "score", int64(10)),
		},
	},
	{
		name:     "edge-implies-endpoints",
		location: locateSource(),
		step: func(ctx context.Context, g *tempograph.Graph) error {
			return g.AddEdge(ctx, tempograph.Epoch(5), tempograph.Name("alice"), tempograph.Name("bob"), nil, "knows")
		},
		checks: []check{
			latestTime(5),
			vertices(at(5),
				vertex("alice", "person", 1, 1, 0),
				unnamed("bob", 1, 0, 1),
			),
		},
	},
	{
		name:     "window-hides-stale-history",
		location: locateSource(),
		step: func(ctx context.Context, g *tempograph.Graph) error {
			return g.AddVertex(ctx, tempograph.Epoch(2), tempograph.Name("carol"), nil, "person")
		},
		checks: []check{
			// The graph's latest time is its greatest update time, not the
			// most recently ingested one.
			latestTime(5),
			vertices(rolling(5, 2),
				vertex("alice", "person", 1, 1, 0),
				unnamed("bob", 1, 0, 1),
			),
			vertices(at(5),
				vertex("alice", "person", 1, 1, 0),
				unnamed("bob", 1, 0, 1),
				vertex("carol", "person", 0, 0, 0),
			),
		},
	},
	{
		name:     "past-perspective-excludes-future-edge",
		location: locateSource(),
		checks: []check{
			vertices(at(2),
				vertex("alice", "person", 0, 0, 0),
				vertex("carol", "person", 0, 0, 0),
			),
		},
	},
	{
		name:     "immutable-property-sticks",
		location: locateSource(),
		step: func(ctx context.Context, g *tempograph.Graph) error {
			err := g.AddVertex(ctx, tempograph.Epoch(7), tempograph.Name("alice"),
				[]tempograph.Property{tempograph.ImmutableString("species", "robot")}, "")
			if err == nil {
				return errors.New("expected redefining an immutable property to fail")
			}
			return nil
		},
		checks: []check{
			// The failed update must not land: no new stamp, no new value.
			latestTime(5),
			property(at(10), "alice", "species", "human"),
			vertices(at(10),
				vertex("alice", "person", 1, 1, 0),
				unnamed("bob", 1, 0, 1),
				vertex("carol", "person", 0, 0, 0),
			),
		},
	},
	{
		name:     "native-degree",
		location: locateSource(),
		checks: []check{
			degrees(at(5), degreeRow("alice", 1), gidDegreeRow("bob", 1), degreeRow("carol", 0)),
			degrees(rolling(5, 2), degreeRow("alice", 1), gidDegreeRow("bob", 1)),
		},
	},
	{
		name:     "clear-messages",
		location: locateSource(),
		checks: []check{
			clearMessages(),
			// Clearing an already-clear graph is a no-op.
			clearMessages(),
		},
	},
}

// Run executes a sequence of test cases on a temporal graph engine.
//
// We deliberately avoid receiving a contextual argument for each test to ensure
// that the test suite runs under neutral conditions without any external
// influences or timeouts. This approach is consistent across test cases because
// the intention is to test the correctness of operations, not their performance
// or context-dependent behaviours.
//
// The testing process requires all cases to execute in a strict sequence because
// the state of the graph at the end of one test is the starting point for the
// next. This sequential execution is crucial in evaluating whether the state
// progresses correctly over a series of updates, akin to the real-world use
// of an engine over time.
func Run(t *testing.T, engine tempograph.Engine) {
	t.Helper()

	// We deliberately use the background context because this test-suite does not
	// check performance. Also, engine implementations should not depend on specific
	// context values. When this assumption changes, this test-suite will have
	// changes accordingly as well.
	ctx := context.Background()

	// A single Graph ingests throughout the suite so the secondary index
	// sequence progresses across cases, just as it would over the lifetime of
	// a deployed graph.
	g := tempograph.NewGraph(engine)

	// All test-cases run in-order, on the same engine, because each case's checks
	// depend on the previous steps. Otherwise, we would not be able to check the
	// continuity of the engine across time.
	//
	// That is, a test case cannot run if the previous case had failed.
	for _, c := range cases {
		// We encourage developers to read the source code directly, especially when
		// failures are not clear enough. We'd put a lot of effort into making this suite
		// readable and understandable.
		t.Logf("Read the source for test-case %v at %v", c.name, c.location)
		if c.step != nil {
			if err := c.step(ctx, g); err != nil {
				t.Fatalf("Step %v failed: %v", c.name, err)
			}
		}
		// Each test-case specifies a set of checks to perform against the
		// engine's observable state.
		for _, check := range c.checks {
			if problem := check(ctx, engine); problem != "" {
				t.Errorf("Check %v: %v", c.name, problem)
			}
		}
	}
}

// Call this function to set the location of every test-case in the source file.
// The returned string is used to guide developers of temporal graph engines to
// the appropriate test-case.
func locateSource() (path string) {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		panic("runtime.Caller failed")
	}
	return fmt.Sprintf("%v:%v", file, line)
}
