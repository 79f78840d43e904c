package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielorbach/go-component"
	tempograph "github.com/go-tempograph/go-tempograph"
	"gocloud.dev/pubsub"
)

// Stream returns a component.Proc that continuously receives encoded step
// batches from the subscription and replays them on the given graph.
//
// Batches replay in arrival order and each batch replays its steps in
// recorded order, so the graph's secondary-index sequence preserves the
// producer's submission order as long as a single subscriber drains the
// subscription.
func Stream(sub *pubsub.Subscription, g *tempograph.Graph) component.Proc {
	return func(l *component.L) {
		for l.Continue() {
			msg, err := sub.Receive(l.Context())
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					// we're shutting down
					return
				}
				l.Fatal(fmt.Errorf("receive: %w", err))
			}
			// always ack, even if we fail to decode.
			// otherwise, we might get stuck processing
			// the same failed message
			msg.Ack()

			steps, err := Decode(msg.Body)
			if err != nil {
				l.Fatal(fmt.Errorf("decode batch: %w", err))
			}

			if err := Replay(l.Context(), g, steps); err != nil {
				l.Fatal(fmt.Errorf("replay batch: %w", err))
			}
		}
	}
}

// Publish encodes the given steps as one batch message and sends it to the
// topic. Use it opposite a Stream subscriber to move ingestion across a
// process boundary.
func Publish(ctx context.Context, topic *pubsub.Topic, steps []Step) error {
	data, err := Encode(steps)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := topic.Send(ctx, &pubsub.Message{Body: data}); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
