package aggcore

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/fedcore/aggregator/internal/metrics"
)

// DefaultChannelCapacity bounds the handle-facing channels (uploads and
// downloads) that NewService creates; the RPC command channel is created
// and sized by the caller. The original design called these "unbounded";
// Go has no unbounded channel primitive, and an ever-growing slice-backed
// queue trades one availability problem for a worse one, so this package
// uses a generously-sized buffered channel instead. See SPEC_FULL.md §9.
const DefaultChannelCapacity = 256

// EndTrainingNotifier is called once per accepted upload, after the
// configured Aggregator has finished ingesting it, to report the outcome
// back to the coordinator. Implementations must not block for long; the
// Service loop itself never waits on this call, only the per-upload
// goroutine that invokes it does.
type EndTrainingNotifier interface {
	EndTraining(ctx context.Context, id ClientID, success bool) error
}

// aggregationTracker remembers the at-most-one in-flight aggregation:
// the channel the Aggregator returned and the reply channel owed to the
// coordinator's Aggregate RPC.
type aggregationTracker struct {
	result <-chan AggregateResult
	reply  chan<- Weights
}

// Service is the aggregator's single-threaded event loop. It owns the
// credentials table, the current global artifact, and the in-flight
// aggregation tracker; no other goroutine may touch any of them. See
// doc.go for the full design and internal/aggcore's grounding in
// _examples/original_source/rust/src/aggregator/service.rs.
type Service struct {
	aggregator Aggregator
	notifier   EndTrainingNotifier

	rpc  <-chan Command
	api  *apiReceiver
	logs *log.Entry

	creds    credentialsTable
	artifact artifactStore
	tracker  *aggregationTracker
}

// NewService constructs a Service. rpc is the inbound command stream from
// the coordinator transport (internal/coordinatorrpc.Server); it is
// closed by the transport when the coordinator's RPC connection drops.
// aggregator is the pluggable aggregation capability (internal/fedavg's
// Averager, typically). notifier reports per-upload outcomes back to the
// coordinator.
func NewService(rpc <-chan Command, aggregator Aggregator, notifier EndTrainingNotifier) (*Service, *Handle) {
	uploads := make(chan *uploadSubmission, DefaultChannelCapacity)
	downloads := make(chan *downloadSubmission, DefaultChannelCapacity)
	ctx := context.Background()
	svc := &Service{
		aggregator: aggregator,
		notifier:   notifier,
		rpc:        rpc,
		api:        newAPIReceiver(ctx, uploads, downloads),
		logs:       log.WithField("component", "aggcore.Service"),
		creds:      newCredentialsTable(),
	}
	handle := &Handle{uploads: uploads, downloads: downloads}
	return svc, handle
}

// Run blocks until the RPC or API stream ends, dispatching every command
// and request it sees along the way. Callers typically invoke Run in its
// own goroutine and treat its return as "the coordinator connection (or
// the service handle) went away, time to shut down."
func (s *Service) Run(ctx context.Context) {
	s.logs.Info("aggregator service loop starting")
	defer s.logs.Info("aggregator service loop stopped")

	for {
		// Priority 1: drain every pending RPC command before looking
		// at anything else.
		if done := s.drainRPC(); done {
			return
		}

		// Priority 2: drain every pending API request.
		if done := s.drainAPI(); done {
			return
		}

		// Priority 3: poll the in-flight aggregation, if any, once.
		s.pollAggregation()

		// Nothing was immediately ready on any source; block until
		// the next thing arrives, still honoring RPC > API priority
		// by re-entering the loop (and its drain-to-exhaustion
		// behavior) as soon as anything wakes us.
		select {
		case cmd, ok := <-s.rpc:
			if !ok {
				s.logs.Warn("coordinator rpc stream closed")
				return
			}
			s.dispatchCommand(cmd)
		case req, ok := <-s.api.out:
			if !ok {
				s.logs.Warn("api stream closed")
				return
			}
			s.dispatchRequest(req)
		case result, ok := <-s.trackerChan():
			if ok {
				s.completeAggregation(result)
			}
		case <-ctx.Done():
			return
		}
	}
}

// drainRPC consumes every RPC command currently buffered, without
// blocking. It returns true if the RPC stream has ended.
func (s *Service) drainRPC() bool {
	for {
		select {
		case cmd, ok := <-s.rpc:
			if !ok {
				s.logs.Warn("coordinator rpc stream closed")
				return true
			}
			s.dispatchCommand(cmd)
		default:
			return false
		}
	}
}

// drainAPI consumes every data-plane request currently buffered, without
// blocking. It returns true if the API stream has ended.
func (s *Service) drainAPI() bool {
	for {
		select {
		case req, ok := <-s.api.out:
			if !ok {
				s.logs.Warn("api stream closed")
				return true
			}
			s.dispatchRequest(req)
		default:
			return false
		}
	}
}

// trackerChan returns the in-flight aggregation's result channel, or a
// nil channel (which blocks forever and is therefore ignored by select)
// when no aggregation is in flight.
func (s *Service) trackerChan() <-chan AggregateResult {
	if s.tracker == nil {
		return nil
	}
	return s.tracker.result
}

// pollAggregation makes one non-blocking attempt to receive the in-flight
// aggregation's result, used from the hot drain loop so a ready result
// doesn't have to wait for the next blocking select.
func (s *Service) pollAggregation() {
	ch := s.trackerChan()
	if ch == nil {
		return
	}
	select {
	case result, ok := <-ch:
		if ok {
			s.completeAggregation(result)
		}
	default:
	}
}

func (s *Service) completeAggregation(result AggregateResult) {
	reply := s.tracker.reply
	s.tracker = nil

	metrics.AggregationInFlight.Set(0)

	if result.Err != nil {
		metrics.AggregationsTotal.WithLabelValues("failure").Inc()
		s.logs.WithError(result.Err).Error("aggregation failed")
		close(reply)
		return
	}

	metrics.AggregationsTotal.WithLabelValues("success").Inc()
	s.artifact.replace(result.Blob)
	reply <- s.artifact.current()
	close(reply)
	s.logs.WithField("bytes", len(result.Blob)).Info("aggregation complete, artifact replaced")
}

func (s *Service) dispatchCommand(cmd Command) {
	switch c := cmd.(type) {
	case *SelectCommand:
		s.creds.selectClient(c.ID, c.Token)
		metrics.SelectsTotal.Inc()
		metrics.CredentialsTableSize.Set(float64(s.creds.size()))
		s.logs.WithField("client_id", c.ID).Info("client selected for round")
		close(c.Reply)

	case *AggregateCommand:
		// Invariant 2: clear the table before aggregation begins.
		s.creds.clear()
		metrics.CredentialsTableSize.Set(0)
		metrics.AggregationInFlight.Set(1)
		s.logs.Info("aggregation round starting, credentials table cleared")
		result := s.aggregator.Aggregate(context.Background())
		s.tracker = &aggregationTracker{result: result, reply: c.Reply}

	default:
		s.logs.Warnf("unknown command type %T", cmd)
	}
}

func (s *Service) dispatchRequest(req Request) {
	switch r := req.(type) {
	case *DownloadRequest:
		if !s.creds.authorized(r.Creds.ID, r.Creds.Token) {
			metrics.DownloadsTotal.WithLabelValues("rejected").Inc()
			s.logs.WithField("client_id", r.Creds.ID).Debug("download rejected: not authorized")
			close(r.Reply)
			return
		}
		metrics.DownloadsTotal.WithLabelValues("accepted").Inc()
		r.Reply <- s.artifact.current()
		close(r.Reply)

	case *UploadRequest:
		if !s.creds.authorized(r.Creds.ID, r.Creds.Token) {
			metrics.UploadOutcomesTotal.WithLabelValues("rejected").Inc()
			s.logs.WithField("client_id", r.Creds.ID).Debug("upload rejected: not authorized")
			return
		}
		errCh := s.aggregator.AddWeights(context.Background(), r.Blob)
		go s.awaitIngestion(r.Creds.ID, errCh)

	default:
		s.logs.Warnf("unknown request type %T", req)
	}
}

// awaitIngestion runs in its own goroutine per accepted upload: it waits
// for the Aggregator to finish ingesting the blob, then reports the
// outcome to the coordinator. It touches no Service-owned state.
func (s *Service) awaitIngestion(id ClientID, errCh <-chan error) {
	err := <-errCh
	success := err == nil
	if success {
		metrics.UploadOutcomesTotal.WithLabelValues("ingested").Inc()
	} else {
		metrics.UploadOutcomesTotal.WithLabelValues("failed").Inc()
		s.logs.WithError(err).WithField("client_id", id).Warn("aggregator rejected uploaded weights")
	}
	if notifyErr := s.notifier.EndTraining(context.Background(), id, success); notifyErr != nil {
		s.logs.WithError(notifyErr).WithField("client_id", id).Warn("failed to notify coordinator of training outcome")
	}
}

// TODO: track client IDs currently mid-upload/download to reject a
// second concurrent request from the same client, once a concrete abuse
// case motivates it.
