package aggcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAggregator is a hand-controlled Aggregator for tests. Each call to
// Aggregate gets its own dedicated, lazily-created result channel (keyed
// by call order) so that resolving call N can never race with a
// different goroutine servicing call M.
type fakeAggregator struct {
	mu      sync.Mutex
	added   []Weights
	addErr  error
	calls   int
	results []chan AggregateResult
}

func newFakeAggregator() *fakeAggregator {
	return &fakeAggregator{}
}

func (f *fakeAggregator) AddWeights(_ context.Context, blob Weights) <-chan error {
	f.mu.Lock()
	f.added = append(f.added, blob)
	err := f.addErr
	f.mu.Unlock()

	ch := make(chan error, 1)
	ch <- err
	close(ch)
	return ch
}

// resultChanLocked returns the dedicated channel for call index i,
// creating it if this is the first reference to it (from either
// Aggregate or the test calling resolve).
func (f *fakeAggregator) resultChanLocked(i int) chan AggregateResult {
	for i >= len(f.results) {
		f.results = append(f.results, make(chan AggregateResult, 1))
	}
	return f.results[i]
}

func (f *fakeAggregator) Aggregate(_ context.Context) <-chan AggregateResult {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	in := f.resultChanLocked(idx)
	f.mu.Unlock()

	out := make(chan AggregateResult, 1)
	go func() {
		result := <-in
		out <- result
		close(out)
	}()
	return out
}

// resolve supplies the result for the call-th Aggregate invocation
// (0-indexed, in call order).
func (f *fakeAggregator) resolve(call int, result AggregateResult) {
	f.mu.Lock()
	ch := f.resultChanLocked(call)
	f.mu.Unlock()
	ch <- result
}

// fakeNotifier records every EndTraining call it receives.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []endTrainingCall
	ready chan struct{}
}

type endTrainingCall struct {
	id      ClientID
	success bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ready: make(chan struct{}, 16)}
}

func (n *fakeNotifier) EndTraining(_ context.Context, id ClientID, success bool) error {
	n.mu.Lock()
	n.calls = append(n.calls, endTrainingCall{id: id, success: success})
	n.mu.Unlock()
	n.ready <- struct{}{}
	return nil
}

func (n *fakeNotifier) waitForCall(t *testing.T) endTrainingCall {
	t.Helper()
	select {
	case <-n.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for EndTraining call")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[len(n.calls)-1]
}

// testHarness wires a Service up to an in-memory Command channel and
// runs it in the background for the duration of a test.
type testHarness struct {
	t           *testing.T
	rpc         chan Command
	handle      *Handle
	aggregator  *fakeAggregator
	notifier    *fakeNotifier
	cancel      context.CancelFunc
	done        chan struct{}
	aggregateNo int
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	rpc := make(chan Command, DefaultChannelCapacity)
	aggregator := newFakeAggregator()
	notifier := newFakeNotifier()
	svc, handle := NewService(rpc, aggregator, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	h := &testHarness{t: t, rpc: rpc, handle: handle, aggregator: aggregator, notifier: notifier, cancel: cancel, done: done}
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func (h *testHarness) selectClient(id ClientID, token Token) {
	h.t.Helper()
	reply := make(chan struct{})
	h.rpc <- &SelectCommand{ID: id, Token: token, Reply: reply}
	select {
	case <-reply:
	case <-time.After(2 * time.Second):
		h.t.Fatal("timed out waiting for select acknowledgment")
	}
}

func (h *testHarness) aggregate(result AggregateResult) Weights {
	h.t.Helper()
	reply := make(chan Weights, 1)
	h.rpc <- &AggregateCommand{Reply: reply}
	h.aggregator.resolve(h.aggregateNo, result)
	h.aggregateNo++
	select {
	case blob, ok := <-reply:
		if !ok {
			return nil
		}
		return blob
	case <-time.After(2 * time.Second):
		h.t.Fatal("timed out waiting for aggregate response")
		return nil
	}
}

// S1: a client with valid credentials can download the current artifact.
func TestDownload_Authorized(t *testing.T) {
	h := newTestHarness(t)
	h.selectClient("client-1", "tok-1")
	h.aggregate(AggregateResult{Blob: Weights("v1")})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	blob, ok := h.handle.Download(ctx, Credentials{ID: "client-1", Token: "tok-1"})
	require.True(t, ok)
	assert.Equal(t, Weights("v1"), blob)
}

// Invariant 1: a download with the wrong token is rejected silently (no
// value on the reply channel, not an error value).
func TestDownload_WrongToken_Rejected(t *testing.T) {
	h := newTestHarness(t)
	h.selectClient("client-1", "tok-1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	blob, ok := h.handle.Download(ctx, Credentials{ID: "client-1", Token: "wrong"})
	assert.False(t, ok)
	assert.Nil(t, blob)
}

// Invariant 1: a download from a client never selected is rejected.
func TestDownload_UnknownClient_Rejected(t *testing.T) {
	h := newTestHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	blob, ok := h.handle.Download(ctx, Credentials{ID: "ghost", Token: "tok"})
	assert.False(t, ok)
	assert.Nil(t, blob)
}

// S2/S3: an authorized upload reaches the Aggregator and the coordinator
// is notified of the outcome.
func TestUpload_Authorized_NotifiesCoordinator(t *testing.T) {
	h := newTestHarness(t)
	h.selectClient("client-1", "tok-1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.handle.Upload(ctx, Credentials{ID: "client-1", Token: "tok-1"}, Weights("local-weights"))
	require.NoError(t, err)

	call := h.notifier.waitForCall(t)
	assert.Equal(t, ClientID("client-1"), call.id)
	assert.True(t, call.success)
}

// An upload rejected by the aggregator still notifies the coordinator,
// with success=false.
func TestUpload_AggregatorRejects_NotifiesFailure(t *testing.T) {
	h := newTestHarness(t)
	h.aggregator.addErr = errors.New("malformed weights")
	h.selectClient("client-1", "tok-1")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.handle.Upload(ctx, Credentials{ID: "client-1", Token: "tok-1"}, Weights("bad"))
	require.NoError(t, err)

	call := h.notifier.waitForCall(t)
	assert.False(t, call.success)
}

// Invariant 1: an upload with bad credentials is dropped silently and
// never reaches the aggregator or the notifier.
func TestUpload_Unauthorized_DroppedSilently(t *testing.T) {
	h := newTestHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.handle.Upload(ctx, Credentials{ID: "ghost", Token: "tok"}, Weights("data"))
	require.NoError(t, err)

	select {
	case <-h.notifier.ready:
		t.Fatal("notifier should not have been called for an unauthorized upload")
	case <-time.After(100 * time.Millisecond):
	}

	h.aggregator.mu.Lock()
	defer h.aggregator.mu.Unlock()
	assert.Empty(t, h.aggregator.added)
}

// Invariant 2: Aggregate clears the credentials table before the round
// starts, so a client selected only in the prior round loses access.
func TestAggregate_ClearsCredentialsTable(t *testing.T) {
	h := newTestHarness(t)
	h.selectClient("client-1", "tok-1")
	h.aggregate(AggregateResult{Blob: Weights("v1")})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, ok := h.handle.Download(ctx, Credentials{ID: "client-1", Token: "tok-1"})
	assert.False(t, ok, "credentials from the previous round must not survive an aggregation")
}

// Invariant 3/S4: the artifact is replaced atomically and the new value
// is what subsequent downloads observe.
func TestAggregate_ReplacesArtifact(t *testing.T) {
	h := newTestHarness(t)
	h.aggregate(AggregateResult{Blob: Weights("v1")})

	h.selectClient("client-1", "tok-1")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	blob, ok := h.handle.Download(ctx, Credentials{ID: "client-1", Token: "tok-1"})
	require.True(t, ok)
	assert.Equal(t, Weights("v1"), blob)

	h.aggregate(AggregateResult{Blob: Weights("v2")})
	h.selectClient("client-2", "tok-2")
	blob, ok = h.handle.Download(ctx, Credentials{ID: "client-2", Token: "tok-2"})
	require.True(t, ok)
	assert.Equal(t, Weights("v2"), blob)
}

// S5: a failed aggregation leaves the prior artifact untouched and closes
// the reply channel without a value.
func TestAggregate_Failure_LeavesArtifactUnchanged(t *testing.T) {
	h := newTestHarness(t)
	h.aggregate(AggregateResult{Blob: Weights("v1")})

	reply := make(chan Weights, 1)
	h.rpc <- &AggregateCommand{Reply: reply}
	h.aggregator.resolve(h.aggregateNo, AggregateResult{Err: errors.New("boom")})
	h.aggregateNo++

	select {
	case blob, ok := <-reply:
		assert.False(t, ok)
		assert.Nil(t, blob)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for failed aggregate reply to close")
	}

	h.selectClient("client-1", "tok-1")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	blob, ok := h.handle.Download(ctx, Credentials{ID: "client-1", Token: "tok-1"})
	require.True(t, ok)
	assert.Equal(t, Weights("v1"), blob)
}

// Invariant 4 / S6: a second Aggregate while one is in flight replaces
// the tracker rather than queuing; only the newer result is ever
// observed by the first reply's caller's downstream effects (the first
// reply channel never resolves, which is documented, unguarded
// behavior).
func TestAggregate_SecondCommandReplacesTracker(t *testing.T) {
	h := newTestHarness(t)

	firstReply := make(chan Weights, 1)
	h.rpc <- &AggregateCommand{Reply: firstReply}

	secondReply := make(chan Weights, 1)
	h.rpc <- &AggregateCommand{Reply: secondReply}

	// Both RPC commands are drained and dispatched before either is
	// resolved, so call 0 belongs to firstReply's command and call 1 to
	// secondReply's; each has its own dedicated result channel, so
	// resolving them in either order is race-free.
	h.aggregator.resolve(0, AggregateResult{Blob: Weights("ignored")})
	h.aggregator.resolve(1, AggregateResult{Blob: Weights("v2")})

	select {
	case blob, ok := <-secondReply:
		require.True(t, ok)
		assert.Equal(t, Weights("v2"), blob)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second aggregate reply")
	}
}

// Terminal shutdown: closing the RPC channel stops Run.
func TestRun_StopsWhenRPCChannelCloses(t *testing.T) {
	rpc := make(chan Command)
	aggregator := newFakeAggregator()
	notifier := newFakeNotifier()
	svc, _ := NewService(rpc, aggregator, notifier)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()

	close(rpc)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after the rpc channel closed")
	}
}
