package memengine

import (
	"context"
	"fmt"
	"runtime"

	tempograph "github.com/go-tempograph/go-tempograph"
	"golang.org/x/sync/errgroup"
)

// A vertexProgram is the per-vertex body of one superstep round. It receives
// the round number, the vertex's state, the messages addressed to it during
// the previous round, and a send function for messaging other vertices in the
// next round. It reports whether the vertex changed state this round; a round
// in which no vertex is active and no messages are pending terminates the
// run.
type vertexProgram func(ctx context.Context, round int, v tempograph.VertexState, inbox []any, send func(to tempograph.GlobalID, msg any)) (active bool, err error)

// runSupersteps drives a message-passing algorithm over the given vertices:
// rounds execute until quiescence or maxRounds, and within a round the
// vertices are split across partitions that run concurrently.
//
// Per-partition activity counts cross the partition boundary untyped and fold
// into a single accumulator. The fold order across partitions is unspecified,
// which is safe because the sum merge is associative and commutative.
//
// Messages sent in the final round stay on the engine's board; the view layer
// clears them at the transform boundary.
func (e *Engine) runSupersteps(ctx context.Context, vertices []tempograph.VertexState, program vertexProgram, maxRounds int) error {
	for round := 0; round < maxRounds; round++ {
		inboxes := e.messages.Swap()
		partitions := partition(vertices, runtime.GOMAXPROCS(0))

		partials := make(chan any, len(partitions))
		grp, gctx := errgroup.WithContext(ctx)
		for _, part := range partitions {
			grp.Go(func() error {
				active := tempograph.SumAccumulator[int]()
				for _, v := range part {
					a, err := program(gctx, round, v, inboxes[v.ID], e.messages.Send)
					if err != nil {
						return fmt.Errorf("vertex %v: %w", v.ID, err)
					}
					if a {
						active.Merge(1)
					}
				}
				partials <- active.Value()
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return fmt.Errorf("superstep round %d: %w", round, err)
		}
		close(partials)

		total := tempograph.SumAccumulator[int]()
		for partial := range partials {
			if err := total.MergeValue(partial); err != nil {
				return fmt.Errorf("merge partition result: %w", err)
			}
		}
		if total.Value() == 0 && !e.messages.Pending() {
			return nil
		}
	}
	return nil
}

// partition splits the vertices into at most n contiguous, near-equal parts.
func partition(vertices []tempograph.VertexState, n int) [][]tempograph.VertexState {
	if n < 1 {
		n = 1
	}
	if n > len(vertices) {
		n = len(vertices)
	}
	parts := make([][]tempograph.VertexState, 0, n)
	for i := range n {
		lo, hi := i*len(vertices)/n, (i+1)*len(vertices)/n
		parts = append(parts, vertices[lo:hi])
	}
	return parts
}
