// Package fedavg provides a default aggcore.Aggregator implementation
// that averages client weight updates elementwise (federated averaging).
// See doc.go for the full writeup.
package fedavg

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/fedcore/aggregator/internal/aggcore"
	"github.com/fedcore/aggregator/internal/storage"
)

// ErrDimensionMismatch is returned when an uploaded weight vector does
// not have the same number of float32 elements as vectors already
// accumulated for the round.
var ErrDimensionMismatch = errors.New("fedavg: weight vector dimension mismatch")

// ErrOddByteLength is returned when a weight blob's length is not a
// multiple of 4 (one float32 = 4 bytes), so it cannot be decoded.
var ErrOddByteLength = errors.New("fedavg: weight blob length is not a multiple of 4")

// Averager implements aggcore.Aggregator using plain federated averaging:
// every weight vector added since the last Aggregate call contributes
// equally to the elementwise mean. Unlike the reference implementation it
// is modeled on, it does not wait for a fixed collaborator count or poll
// on a timer; it aggregates whatever has been added the moment Aggregate
// is called, which matches this repository's loop-driven (rather than
// round-timer-driven) design.
//
// Weight vectors are encoded as little-endian float32 sequences, the
// same wire convention used elsewhere in federated-averaging
// implementations for this kind of aggregator.
type Averager struct {
	mu      sync.Mutex
	updates [][]float32

	// history, if non-nil, is used to persist each round's aggregated
	// blob under a key derived from the round number, purely for
	// operator inspection; Aggregate's correctness does not depend on
	// it.
	history *storage.MemoryStore
	round   int
}

// NewAverager constructs an Averager. history may be nil; pass
// storage.NewMemoryStore() to retain a per-round snapshot of aggregated
// weights for later inspection.
func NewAverager(history *storage.MemoryStore) *Averager {
	return &Averager{history: history}
}

// AddWeights decodes blob as a little-endian float32 vector and queues it
// for the next aggregation. The returned channel always carries its
// result synchronously, since decoding is cheap, but still follows the
// channel-future contract aggcore.Aggregator requires.
func (a *Averager) AddWeights(_ context.Context, blob aggcore.Weights) <-chan error {
	ch := make(chan error, 1)

	floats, err := decodeFloats(blob)
	if err != nil {
		ch <- err
		close(ch)
		return ch
	}

	a.mu.Lock()
	if len(a.updates) > 0 && len(a.updates[0]) != len(floats) {
		a.mu.Unlock()
		ch <- fmt.Errorf("%w: got %d elements, want %d", ErrDimensionMismatch, len(floats), len(a.updates[0]))
		close(ch)
		return ch
	}
	a.updates = append(a.updates, floats)
	a.mu.Unlock()

	ch <- nil
	close(ch)
	return ch
}

// Aggregate computes the elementwise mean of every vector added since the
// previous call, re-encodes it as a little-endian float32 blob, resets
// the accumulator, and optionally persists the result to history.
func (a *Averager) Aggregate(_ context.Context) <-chan aggcore.AggregateResult {
	out := make(chan aggcore.AggregateResult, 1)

	a.mu.Lock()
	updates := a.updates
	a.updates = nil
	round := a.round
	a.round++
	a.mu.Unlock()

	go func() {
		result := a.aggregate(round, updates)
		out <- result
		close(out)
	}()

	return out
}

func (a *Averager) aggregate(round int, updates [][]float32) aggcore.AggregateResult {
	if len(updates) == 0 {
		return aggcore.AggregateResult{Blob: nil}
	}

	dim := len(updates[0])
	mean := make([]float32, dim)
	for _, u := range updates {
		for i, v := range u {
			mean[i] += v
		}
	}
	n := float32(len(updates))
	for i := range mean {
		mean[i] /= n
	}

	blob := encodeFloats(mean)

	if a.history != nil {
		_ = a.history.Put(strconv.Itoa(round), blob)
	}

	return aggcore.AggregateResult{Blob: aggcore.Weights(blob)}
}

// Round returns the weights blob persisted for the aggregation round
// identified by key (the decimal round number Aggregate assigned it), or
// false if no history store is configured or no round with that key has
// been persisted yet. It's the read side of the write in aggregate above,
// and the only way anything outside this package observes history.
func (a *Averager) Round(key string) (aggcore.Weights, bool) {
	if a.history == nil {
		return nil, false
	}
	blob, err := a.history.Get(key)
	if err != nil {
		return nil, false
	}
	return aggcore.Weights(blob), true
}

// Rounds lists the round keys persisted so far, or nil if no history
// store is configured.
func (a *Averager) Rounds() []string {
	if a.history == nil {
		return nil
	}
	return a.history.List()
}

func decodeFloats(blob aggcore.Weights) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, ErrOddByteLength
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

func encodeFloats(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
