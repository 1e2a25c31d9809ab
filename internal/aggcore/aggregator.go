package aggcore

import "context"

// Aggregator is the pluggable capability the Service loop delegates the
// actual model math to. The core never looks inside a Weights blob; it
// only ever calls AddWeights and Aggregate and reacts to the channels
// they return.
//
// Both methods must return promptly: AddWeights is called once per
// accepted upload and must not block the Service loop while it runs (the
// work it represents happens on the channel it returns, typically from a
// goroutine the implementation spawns), and Aggregate must likewise
// return immediately, with the actual computation surfacing later on the
// returned channel.
//
// An Aggregate call that is still pending when a second Aggregate call
// arrives is not an error the core defends against: the Service loop
// calls Aggregate again and replaces its tracker with the newer call's
// channel (see Service in service.go), so implementations cannot assume
// at most one Aggregate call is outstanding at a time.
type Aggregator interface {
	// AddWeights ingests one client's uploaded weights. The returned
	// channel receives exactly one value (nil on success, non-nil on
	// failure) and is then closed.
	AddWeights(ctx context.Context, blob Weights) <-chan error

	// Aggregate computes a new global artifact from whatever weights
	// have been added since the last call to Aggregate (or since
	// startup, for the first call). The returned channel receives
	// exactly one AggregateResult and is then closed. It is safe, and
	// expected, to poll the channel with a non-blocking receive.
	Aggregate(ctx context.Context) <-chan AggregateResult
}

// AggregateResult is the single value an Aggregate channel carries before
// closing.
type AggregateResult struct {
	Blob Weights
	Err  error
}
