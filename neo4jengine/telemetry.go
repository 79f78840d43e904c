package neo4jengine

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-tempograph/go-tempograph/neo4jengine")
var meter = otel.Meter("github.com/go-tempograph/go-tempograph/neo4jengine")

var (
	// clearedMessages counts inter-vertex message nodes detached from the
	// graph between transformations. A steadily growing value on a graph that
	// runs no message-passing algorithms hints at a leaking procedure.
	clearedMessages metric.Int64Counter
)

func init() {
	// We're initiating the metric instruments on the otel meter. Encounter an error
	// during an instrument's initialisation, triggering a panic. This scenario
	// should not occur, if it does, it is likely related to the attributes applied
	// on the instrument.
	var err error
	clearedMessages, err = meter.Int64Counter(
		"graph_cleared_messages_counter",
		metric.WithDescription("how many pending inter-vertex messages were detached between transformations"),
	)
	if err != nil {
		s := fmt.Sprintf("engine: failed to init 'graph_cleared_messages_counter' instrument: %v", err)
		panic(s)
	}
}

// attributeSet carries the target database on metric measurements so graphs
// sharing a server remain distinguishable.
func attributeSet(database string) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(
		attribute.String("neo4j.database", database),
	))
}
