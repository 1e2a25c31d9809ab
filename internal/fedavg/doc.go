// Package fedavg implements federated averaging as a pluggable
// aggcore.Aggregator.
//
// # Overview
//
// Federated averaging combines N clients' locally-trained weight vectors
// into one global vector by taking the elementwise mean. This package
// implements exactly that, with no staleness weighting, no partial-round
// handling, and no collaborator-count gate: whatever has been added via
// AddWeights since the previous Aggregate call is what gets averaged.
//
// # Wire Format
//
// A Weights blob is a sequence of IEEE-754 float32 values, little-endian,
// with no header or length prefix; len(blob) must be a multiple of 4.
// This matches the convention used elsewhere for this style of
// aggregator.
//
// # Concurrency
//
// AddWeights and Aggregate are called only from the Service loop
// goroutine in this repository's usage, never concurrently with each
// other. The internal mutex guards against callers that don't hold to
// that pattern.
package fedavg
