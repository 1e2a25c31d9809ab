// Package coordinatorrpc implements the aggregator's coordinator-facing
// RPC surface: an inbound AggregatorControl gRPC service (Select,
// Aggregate) the coordinator dials into, and an outbound call
// (EndTraining) the aggregator makes back to the coordinator's own
// Training service.
//
// # Overview
//
// This package is a bridge, not a brain: Server translates every inbound
// call into an aggcore.Command and waits for aggcore.Service's reply;
// CoordinatorClient does the mirror image for the one outbound call.
// Neither type contains any of the credentials-table/artifact/aggregation
// logic; that all lives in internal/aggcore.
//
// # Wire Protocol
//
// There is no protoc/protoc-gen-go-grpc step in this environment, so the
// request/response types in messages.go are plain JSON-tagged Go structs,
// and codec.go registers a grpc-go encoding.Codec ("json") that
// (de)serializes them with encoding/json. service_desc.go hand-writes the
// grpc.ServiceDesc and handler functions that protoc-gen-go-grpc would
// otherwise generate. Every client call must pass
// grpc.CallContentSubtype("json") so the server selects the matching
// codec.
//
// # Health Monitoring
//
// HealthMonitor polls the coordinator's HTTP /health endpoint on a
// ticker and tracks consecutive failures, adapted from the teacher's
// internal/coordinator.HealthMonitor (which tracked a set of storage
// nodes) down to the single coordinator endpoint this aggregator talks
// to.
package coordinatorrpc
