package ingest_test

import (
	"context"
	"fmt"

	tempograph "github.com/go-tempograph/go-tempograph"
	"github.com/go-tempograph/go-tempograph/ingest"
	"github.com/go-tempograph/go-tempograph/memengine"
)

// We demonstrate how to use the Recorder to capture, transmit, and replay
// graph updates. It shows the complete workflow from recording operations to
// executing them on a graph, including encoding and decoding steps for
// transmission across process boundaries, while highlighting the defensive
// copy behaviour of the Steps method.
func ExampleRecorder() {
	ctx := context.Background()

	// Initialise a recorder to capture graph updates.
	var recorder ingest.Recorder

	// Build a sequence of updates: two people who have known each other
	// since t=3.
	fmt.Println("Recording steps:")
	recorder.AddVertex(1, ingest.ByName("alice"), []tempograph.Property{tempograph.MutableInt("age", 34)}, "person")
	recorder.AddVertex(2, ingest.ByName("bob"), nil, "person")
	recorder.AddEdge(3, ingest.ByName("alice"), ingest.ByName("bob"), nil, "knows")

	// Retrieve the recorded steps.
	steps := recorder.Steps()
	fmt.Printf("Recorded %d steps\n", len(steps))

	encoded, err := ingest.Encode(steps)
	if err != nil {
		panic(fmt.Sprintf("Failed to encode steps: %v", err))
	}

	// In a distributed scenario, the encoded bytes would be transmitted to
	// another process. Here we simulate that by simply using the encoded
	// bytes directly.

	// Decode the steps in the "receiving" process.
	fmt.Println("\nDecoding steps in receiving process:")
	decoded, err := ingest.Decode(encoded)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Decoded %d steps\n", len(decoded))

	// Replay the decoded steps into a graph backed by an in-memory engine.
	engine := memengine.New()
	defer engine.Close(ctx)
	g := tempograph.NewGraph(engine)
	if err := ingest.Replay(ctx, g, decoded); err != nil {
		panic(err)
	}

	// The replayed updates are fully visible at the batch's latest time.
	fmt.Println("\nReplayed graph:")
	states, err := engine.Vertices(ctx, tempograph.Perspective{Timestamp: 3})
	if err != nil {
		panic(err)
	}
	for _, v := range states {
		fmt.Println(v.Name, v.Type, "degree:", v.Degree)
	}

	// Clear the recorder and verify its state.
	recorder.Reset()
	fmt.Printf("\nSteps after reset: %d\n", len(recorder.Steps()))

	// Confirm the recorder remains functional after reset.
	recorder.AddVertex(4, ingest.ByName("carol"), nil, "person")
	fmt.Printf("Steps after recording a new step: %d\n", len(recorder.Steps()))

	// Unordered output:
	// Recording steps:
	// Recorded 3 steps
	//
	// Decoding steps in receiving process:
	// Decoded 3 steps
	//
	// Replayed graph:
	// alice person degree: 1
	// bob person degree: 1
	//
	// Steps after reset: 0
	// Steps after recording a new step: 1
}

// We demonstrate how Targets extracts the unique set of vertices a batch will
// touch. This function is essential for pre-replay analysis: validating
// identities, warming caches, or computing the minimal subgraph affected by
// the batch.
func ExampleTargets() {
	var recorder ingest.Recorder
	recorder.AddVertex(1, ingest.ByName("alice"), nil, "person")
	recorder.AddVertex(2, ingest.ByName("alice"), nil, "person") // Duplicate - but Targets yields each vertex only once.
	recorder.AddEdge(3, ingest.ByName("alice"), ingest.ByName("bob"), nil, "knows")
	recorder.AddEdge(4, ingest.ByName("bob"), ingest.ByName("carol"), nil, "knows")

	// The Targets function provides a deduplicated view of all vertices the
	// batch will touch, regardless of:
	//	- How many times a vertex appears in the steps
	//	- Whether the vertex is a source or a destination of an edge
	fmt.Println("Unique vertices touched by the batch:")
	for target := range ingest.Targets(recorder.Steps()) {
		fmt.Println(target.Name)
	}

	// Unordered output:
	// Unique vertices touched by the batch:
	// alice
	// bob
	// carol
}
