package memengine

import (
	"sync"

	tempograph "github.com/go-tempograph/go-tempograph"
)

// A messageBoard holds the pending inter-vertex messages of an algorithm run.
// Supersteps deliver into it concurrently from all partitions; at a round
// boundary the whole board is swapped out at once, so a round only ever reads
// the messages of the previous round.
//
// The zero value is ready for use. A messageBoard is safe for concurrent use.
type messageBoard struct {
	mu sync.Mutex
	m  map[tempograph.GlobalID][]any
}

// Send appends a message to the given vertex's queue.
func (b *messageBoard) Send(to tempograph.GlobalID, msg any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.m == nil {
		b.m = make(map[tempograph.GlobalID][]any)
	}
	b.m[to] = append(b.m[to], msg)
}

// Swap returns all pending queues and leaves the board empty, so further
// sends accumulate for the next round.
func (b *messageBoard) Swap() map[tempograph.GlobalID][]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.m
	b.m = nil
	return m
}

// Clear drops all pending messages.
func (b *messageBoard) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m = nil
}

// Pending reports whether any vertex has undelivered messages.
func (b *messageBoard) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.m) > 0
}
