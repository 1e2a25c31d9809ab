package coordinatorrpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedcore/aggregator/internal/aggcore"
)

func TestServer_Select_PostsCommandAndWaitsForAck(t *testing.T) {
	commands := make(chan aggcore.Command, 1)
	srv := NewServer(commands)

	done := make(chan struct{})
	go func() {
		defer close(done)
		resp, err := srv.Select(context.Background(), &SelectRequest{ClientID: "c1", Token: "t1"})
		assert.NoError(t, err)
		assert.NotNil(t, resp)
	}()

	select {
	case cmd := <-commands:
		sel, ok := cmd.(*aggcore.SelectCommand)
		require.True(t, ok)
		assert.Equal(t, aggcore.ClientID("c1"), sel.ID)
		assert.Equal(t, aggcore.Token("t1"), sel.Token)
		close(sel.Reply)
	case <-time.After(time.Second):
		t.Fatal("Select did not post a command")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Select did not return after its command was acknowledged")
	}
}

func TestServer_Aggregate_Success(t *testing.T) {
	commands := make(chan aggcore.Command, 1)
	srv := NewServer(commands)

	respCh := make(chan *AggregateResponse, 1)
	go func() {
		resp, err := srv.Aggregate(context.Background(), &AggregateRequest{})
		assert.NoError(t, err)
		respCh <- resp
	}()

	cmd := (<-commands).(*aggcore.AggregateCommand)
	cmd.Reply <- aggcore.Weights("new-model")
	close(cmd.Reply)

	select {
	case resp := <-respCh:
		assert.Empty(t, resp.Error)
	case <-time.After(time.Second):
		t.Fatal("Aggregate did not return")
	}
}

func TestServer_Aggregate_FailureReportsError(t *testing.T) {
	commands := make(chan aggcore.Command, 1)
	srv := NewServer(commands)

	respCh := make(chan *AggregateResponse, 1)
	go func() {
		resp, err := srv.Aggregate(context.Background(), &AggregateRequest{})
		assert.NoError(t, err)
		respCh <- resp
	}()

	cmd := (<-commands).(*aggcore.AggregateCommand)
	close(cmd.Reply)

	select {
	case resp := <-respCh:
		assert.NotEmpty(t, resp.Error)
	case <-time.After(time.Second):
		t.Fatal("Aggregate did not return")
	}
}

func TestServer_Select_ContextCanceledBeforePost(t *testing.T) {
	commands := make(chan aggcore.Command) // unbuffered, nobody reads
	srv := NewServer(commands)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := srv.Select(ctx, &SelectRequest{ClientID: "c1", Token: "t1"})
	assert.ErrorIs(t, err, context.Canceled)
}
