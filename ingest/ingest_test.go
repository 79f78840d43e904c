package ingest_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gocloud.dev/pubsub/mempubsub"

	tempograph "github.com/go-tempograph/go-tempograph"
	"github.com/go-tempograph/go-tempograph/ingest"
)

// A faultyStore accepts updates until its budget runs out, then fails every
// subsequent update.
type faultyStore struct {
	budget int
	got    []tempograph.Update
}

var errBudget = errors.New("store budget exhausted")

func (s *faultyStore) accept(u tempograph.Update) error {
	if s.budget == 0 {
		return errBudget
	}
	s.budget--
	s.got = append(s.got, u)
	return nil
}

func (s *faultyStore) AddVertexUpdate(ctx context.Context, u tempograph.Update) error {
	return s.accept(u)
}

func (s *faultyStore) AddEdgeUpdate(ctx context.Context, u tempograph.Update) error {
	return s.accept(u)
}

func TestReplayPreservesRecordingOrder(t *testing.T) {
	var recorder ingest.Recorder
	recorder.AddVertex(10, ingest.ByName("alice"), nil, "person")
	recorder.AddEdge(20, ingest.ByName("alice"), ingest.ByID(7), nil, "knows")

	// Round-trip the batch through its wire encoding before replaying, like
	// a distributed deployment would.
	data, err := ingest.Encode(recorder.Steps())
	if err != nil {
		t.Fatal(err)
	}
	steps, err := ingest.Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	store := &faultyStore{budget: len(steps)}
	if err := ingest.Replay(context.Background(), tempograph.NewGraph(store), steps); err != nil {
		t.Fatal(err)
	}

	want := []tempograph.Update{
		{
			Kind:           tempograph.VertexUpdate,
			Time:           10,
			SecondaryIndex: 0,
			EntityType:     "person",
			Src:            tempograph.AssignID("alice"),
			Properties:     []tempograph.Property{tempograph.ImmutableString("name", "alice")},
		},
		{
			Kind:           tempograph.EdgeUpdate,
			Time:           20,
			SecondaryIndex: 1,
			EntityType:     "knows",
			Src:            tempograph.AssignID("alice"),
			Dst:            7,
		},
	}
	if diff := cmp.Diff(want, store.got); diff != "" {
		t.Errorf("updates mismatch (-want +got):\n%v", diff)
	}
}

func TestReplayStopsAtFirstFailure(t *testing.T) {
	var recorder ingest.Recorder
	recorder.AddVertex(1, ingest.ByName("alice"), nil, "")
	recorder.AddVertex(2, ingest.ByName("bob"), nil, "")
	recorder.AddVertex(3, ingest.ByName("carol"), nil, "")

	store := &faultyStore{budget: 1}
	err := ingest.Replay(context.Background(), tempograph.NewGraph(store), recorder.Steps())
	if !errors.Is(err, errBudget) {
		t.Fatalf("Replay = %v, want wrapped %v", err, errBudget)
	}
	// The error names the failing step so producers can triage the batch.
	if !strings.Contains(err.Error(), "step 1") {
		t.Errorf("Replay error %q does not name step 1", err)
	}
	// Earlier steps stay applied, later steps are never attempted.
	if len(store.got) != 1 {
		t.Errorf("store received %d updates, want 1", len(store.got))
	}
}

func TestPublishedBatchSurvivesTheWire(t *testing.T) {
	ctx := context.Background()
	topic := mempubsub.NewTopic()
	defer topic.Shutdown(ctx)
	sub := mempubsub.NewSubscription(topic, time.Minute)
	defer sub.Shutdown(ctx)

	var recorder ingest.Recorder
	recorder.AddVertex(1, ingest.ByName("alice"), nil, "person")
	recorder.AddEdge(2, ingest.ByName("alice"), ingest.ByName("bob"), nil, "knows")
	if err := ingest.Publish(ctx, topic, recorder.Steps()); err != nil {
		t.Fatal(err)
	}

	msg, err := sub.Receive(ctx)
	if err != nil {
		t.Fatal(err)
	}
	msg.Ack()

	steps, err := ingest.Decode(msg.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 {
		t.Fatalf("decoded %d steps, want 2", len(steps))
	}

	// The decoded batch replays like the original would have.
	store := &faultyStore{budget: len(steps)}
	if err := ingest.Replay(ctx, tempograph.NewGraph(store), steps); err != nil {
		t.Fatal(err)
	}
	if len(store.got) != 2 {
		t.Errorf("store received %d updates, want 2", len(store.got))
	}
}

func TestStepsReturnsDefensiveCopy(t *testing.T) {
	var recorder ingest.Recorder
	recorder.AddVertex(1, ingest.ByName("alice"), nil, "")

	steps := recorder.Steps()
	steps[0] = nil
	if got := recorder.Steps(); got[0] == nil {
		t.Error("mutating the returned slice reached the recorder's state")
	}
}
