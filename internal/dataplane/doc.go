// Package dataplane is the client-facing HTTP transport for the
// aggregator's data plane: downloading the current global model and
// uploading locally-trained weights. See internal/coordinatorrpc for the
// coordinator-facing control plane.
//
// # Overview
//
//	client --GET /v1/model?client_id&token--> Server --> aggcore.Handle.Download
//	client --PUT /v1/model?client_id&token--> Server --> aggcore.Handle.Upload
//
// Server holds no state of its own beyond the *aggcore.Handle it was
// built with; all authorization and bookkeeping decisions are made by
// the aggcore.Service loop on the other end of that handle.
//
// # Error Mapping
//
// An unauthorized download reports 404, not 401/403: the spec treats
// "no such (client, round) pairing" and "unknown client" identically,
// and a 404 avoids leaking which case applies. An upload never reports
// its credential outcome to the client at all; see SPEC_FULL.md §9 for
// why that silence is intentional.
package dataplane
