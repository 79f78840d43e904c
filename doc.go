// Package tempograph provides the ingestion and analysis model for temporal
// graphs; A temporal graph is a graph whose vertices and edges carry the full
// history of their updates, so that the graph can be observed as it was at any
// point in time, or across bounded windows of time.
//
// The package turns timestamped vertex/edge calls into consistently ordered,
// normalised Update records and delegates their storage to an external graph
// engine (see the Engine interface and the memengine and neo4jengine
// packages). On top of an ingested graph, a TemporalGraph view applies
// transformation algorithms - either engine-native or user-defined - while
// tracking which algorithm produced the view, and tabulates per-perspective
// results into one uniform DataFrame.
//
// Two guarantees underpin everything downstream: a textual vertex name always
// resolves to the same numeric GlobalID, and updates submitted without an
// explicit secondary index are ordered exactly as submitted.
package tempograph
