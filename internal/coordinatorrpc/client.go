package coordinatorrpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/fedcore/aggregator/internal/aggcore"
)

// CoordinatorClient reports per-client training outcomes back to the
// coordinator. It implements aggcore.EndTrainingNotifier.
type CoordinatorClient struct {
	conn *grpc.ClientConn
}

// NewCoordinatorClient wraps an already-dialed connection to the
// coordinator's Training service.
func NewCoordinatorClient(conn *grpc.ClientConn) *CoordinatorClient {
	return &CoordinatorClient{conn: conn}
}

// EndTraining reports whether client id's upload was accepted. There is
// no generated client stub available in this environment (no
// protoc-gen-go-grpc step), so this calls ClientConn.Invoke directly with
// the jsonCodec content-subtype, exactly what a generated stub's method
// body would do.
func (c *CoordinatorClient) EndTraining(ctx context.Context, id aggcore.ClientID, success bool) error {
	req := &EndTrainingRequest{ClientID: string(id), Success: success}
	resp := new(EndTrainingResponse)
	return c.conn.Invoke(ctx, endTrainingMethod, req, resp, grpc.CallContentSubtype(codecName))
}

var _ aggcore.EndTrainingNotifier = (*CoordinatorClient)(nil)
