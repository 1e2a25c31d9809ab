// Package aggcore implements the aggregator's core: a single event loop
// that multiplexes coordinator commands, client data-plane traffic, and
// an in-flight aggregation computation, while owning all of the
// aggregator's mutable state.
//
// # Overview
//
// The aggregator sits between a coordinator (which decides who trains
// this round) and a pool of clients (which train locally and exchange
// weights with the aggregator). This package is the part of the
// aggregator that actually owns the per-round state: which clients are
// currently authorized, what the current global model looks like, and
// whether an aggregation computation is running right now.
//
// # Architecture
//
//	                 +----------------------+
//	  coordinator --> |   RPC receiver       | --\
//	  (Select,        +----------------------+    \
//	   Aggregate)                                  v
//	                                         +-------------+      +-------------+
//	  clients     --> +----------------------+ Service loop | --> | Aggregator  |
//	  (download,      |   API receiver       | (this pkg)   |     | capability  |
//	   upload)        +----------------------+-------------+      +-------------+
//	                                                |
//	                                                v
//	                                        credentials table
//	                                        global artifact
//	                                        aggregation tracker
//
// Service is the only type in this package that mutates shared state.
// Everything else either produces input for it (apiReceiver,
// rpcreceiver's Command values) or is a read-only handle onto it
// (Handle).
//
// # Concurrency and Synchronization
//
// There is exactly one goroutine that ever reads or writes the
// credentials table, the artifact store, or the aggregation tracker: the
// one running Service.Run. No mutex protects them, because nothing else
// ever touches them — the single-writer discipline is the
// synchronization mechanism. Two other kinds of goroutines exist:
//
//   - the apiReceiver's forwarding goroutine, which only ever reads from
//     its two input channels and writes to its output channel;
//   - one goroutine per accepted upload (spawned by dispatchRequest),
//     which waits on the channel the Aggregator returned and then makes
//     one outbound RPC call. It touches no Service-owned state.
//
// Communication with the loop is exclusively through channels: Handle's
// two send-only channels for data-plane traffic, and the RPC command
// channel for coordinator traffic. Every command and every download
// request carries its own one-shot reply channel, closed by the loop once
// handled (after at most one send), which is how a caller learns the loop
// is done with its request without needing a response value in the
// common "rejected" case. Upload requests carry no reply channel; their
// outcome is reported only to the coordinator.
//
// # Dispatch Priority
//
// On every wakeup, Service.Run drains the RPC command channel to
// exhaustion first, then the API request channel to exhaustion, then
// makes one non-blocking check of any in-flight aggregation. This keeps
// coordinator control-plane traffic (which is rare and administratively
// significant) from queuing up behind a burst of client data-plane
// traffic (which is comparatively high-volume and already
// credential-gated).
//
// # Limitations and Future Work
//
//   - No defense against a coordinator that sends Aggregate while an
//     aggregation is already in flight; the newer one silently replaces
//     the tracker. See SPEC_FULL.md §9.
//   - No per-client concurrency limiting (a client could in principle
//     have two uploads in flight at once); see the TODO in service.go.
package aggcore
