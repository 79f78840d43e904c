package tempograph

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-tempograph/go-tempograph")
var meter = otel.Meter("github.com/go-tempograph/go-tempograph")

const (
	// updateKindAttribute labels ingestion records with "vertex" or "edge",
	// allowing both collective examination of ingestion throughput and
	// individual analysis per update kind.
	updateKindAttribute = "update.kind"
	// algorithmAttribute labels transform records with the name of the applied
	// algorithm.
	algorithmAttribute = "algorithm"
)

var (
	// ingestedUpdates counts the updates forwarded to the engine's update
	// primitives. Each record is associated with the updateKindAttribute.
	ingestedUpdates metric.Int64Counter
	// transformDuration measures the duration of a single algorithm transform,
	// including the clearing of message queues at its end.
	//
	// Each record is associated with the algorithmAttribute.
	transformDuration metric.Float64Histogram
	// transformFailures counts transforms that returned an error.
	//
	// Each record is associated with the algorithmAttribute.
	transformFailures metric.Int64Counter
)

func init() {
	var err error
	ingestedUpdates, err = meter.Int64Counter(
		"graph.ingestion.updates",
		metric.WithDescription("The number of normalised updates forwarded to the engine's vertex/edge update primitives."),
	)
	if err != nil {
		panic("tempograph: failed to init 'graph.ingestion.updates' instrument")
	}

	transformDuration, err = meter.Float64Histogram(
		"view.transform.duration",
		metric.WithDescription("The duration of a single algorithm transform, including clearing the inter-vertex message queues at the end of the algorithm."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic("tempograph: failed to init 'view.transform.duration' instrument")
	}

	transformFailures, err = meter.Int64Counter(
		"view.transform.failures",
		metric.WithDescription("The number of algorithm transforms that have failed."),
	)
	if err != nil {
		panic("tempograph: failed to init 'view.transform.failures' instrument")
	}
}

// measureTransform measures a transform using the transformDuration and
// transformFailures instruments. A successful transform records its duration;
// a failed one increments the failure counter.
//
// Each record is labelled with the applied algorithm's name, allowing
// collective analysis of all transforms as well as detailed analysis per
// algorithm.
func measureTransform(ctx context.Context, algorithm string, succeeded bool, d time.Duration) {
	attrs := attribute.NewSet(attribute.String(algorithmAttribute, algorithm))
	if succeeded {
		// We use floating-point division here for higher precision (instead of
		// the Millisecond method).
		duration := float64(d) / float64(time.Millisecond)
		transformDuration.Record(ctx, duration, metric.WithAttributeSet(attrs))
	} else {
		transformFailures.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
}
