package aggcore

import "context"

// Handle is the data-plane transport's entry point into a running
// Service. It is a pair of send-only channels and is cheap to copy;
// internal/dataplane holds one per listener.
type Handle struct {
	uploads   chan<- *uploadSubmission
	downloads chan<- *downloadSubmission
}

// Download requests the current global artifact on behalf of a client.
// It returns (nil, false) if the credentials are not authorized, or if
// ctx is done before the loop replies.
func (h *Handle) Download(ctx context.Context, creds Credentials) (Weights, bool) {
	reply := make(chan Weights, 1)
	sub := &downloadSubmission{creds: creds, reply: reply}

	select {
	case h.downloads <- sub:
	case <-ctx.Done():
		return nil, false
	}

	select {
	case blob, ok := <-reply:
		return blob, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Upload submits a client's locally-trained weights. It returns once the
// submission has been accepted onto the service's internal queue; it
// does not wait for the aggregator to finish ingesting the weights, nor
// for the coordinator to be notified of the outcome. A non-nil error
// means ctx expired before the submission could be queued; it does not
// mean the upload was rejected for bad credentials (that rejection is
// silent, by design — see SPEC_FULL.md §9).
func (h *Handle) Upload(ctx context.Context, creds Credentials, blob Weights) error {
	sub := &uploadSubmission{creds: creds, blob: blob.Clone()}
	select {
	case h.uploads <- sub:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
