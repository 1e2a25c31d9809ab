package coordinatorrpc

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/fedcore/aggregator/internal/aggcore"
)

// Server implements AggregatorControlServer by translating each gRPC call
// into an aggcore.Command and posting it onto the Service loop's command
// channel, then waiting for the loop's reply. It is grounded on
// _examples/original_source/rust/src/aggregator/service.rs's
// rpc::Request construction (one command variant per coordinator RPC,
// each carrying its own one-shot reply channel).
type Server struct {
	commands chan<- aggcore.Command
}

// NewServer returns a Server that posts commands onto commands. commands
// should be the same channel passed as the rpc argument to
// aggcore.NewService; this package does not construct that channel
// itself so that cmd/aggregator can size and own it alongside the rest
// of the Service wiring.
func NewServer(commands chan<- aggcore.Command) *Server {
	return &Server{commands: commands}
}

// Select registers one client for the current round.
func (s *Server) Select(ctx context.Context, req *SelectRequest) (*SelectResponse, error) {
	reply := make(chan struct{}, 1)
	cmd := &aggcore.SelectCommand{
		ID:    aggcore.ClientID(req.ClientID),
		Token: aggcore.Token(req.Token),
		Reply: reply,
	}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case <-reply:
		return &SelectResponse{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Aggregate starts an aggregation round and waits for it to complete (or
// be abandoned) before replying to the coordinator. Each call is tagged
// with a request ID purely for log correlation, since a round can take
// long enough that its start and completion log lines land far apart.
func (s *Server) Aggregate(ctx context.Context, _ *AggregateRequest) (*AggregateResponse, error) {
	requestID := uuid.New().String()
	logs := log.WithField("request_id", requestID)

	reply := make(chan aggcore.Weights, 1)
	cmd := &aggcore.AggregateCommand{Reply: reply}

	logs.Info("aggregate request received")

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case _, ok := <-reply:
		if !ok {
			logs.Warn("aggregate command's reply channel closed without a result")
			return &AggregateResponse{Error: "aggregation failed"}, nil
		}
		logs.Info("aggregate request complete")
		return &AggregateResponse{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ AggregatorControlServer = (*Server)(nil)
