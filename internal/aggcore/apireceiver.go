package aggcore

import "context"

// uploadSubmission is what Handle.Upload posts to the loop.
type uploadSubmission struct {
	creds Credentials
	blob  Weights
}

// downloadSubmission is what Handle.Download posts to the loop. reply is
// a one-shot channel: the loop sends the current artifact and closes it
// on success, or closes it without sending on an authorization failure.
type downloadSubmission struct {
	creds Credentials
	reply chan Weights
}

// Request is the sealed union of data-plane requests the Service loop
// dispatches. The two concrete types are *UploadRequest and
// *DownloadRequest.
type Request interface {
	isRequest()
}

// UploadRequest is a client's attempt to submit locally-trained weights.
type UploadRequest struct {
	Creds Credentials
	Blob  Weights
}

func (*UploadRequest) isRequest() {}

// DownloadRequest is a client's attempt to fetch the current global
// artifact. Reply is closed by the loop after at most one send.
type DownloadRequest struct {
	Creds Credentials
	Reply chan<- Weights
}

func (*DownloadRequest) isRequest() {}

// apiReceiver fans the two handle-facing producer channels into a single
// ordered stream of Request values, the Go analogue of the original
// implementation's `download_requests_rx.map(...).merge(upload_requests_rx
// .map(...))` stream combinator. Go's select already picks pseudo-randomly
// among ready cases, so no explicit fairness bookkeeping is needed here.
type apiReceiver struct {
	out chan Request
}

// newAPIReceiver starts the forwarding goroutine and returns the receiver.
// It closes out once both uploads and downloads are closed.
func newAPIReceiver(ctx context.Context, uploads <-chan *uploadSubmission, downloads <-chan *downloadSubmission) *apiReceiver {
	r := &apiReceiver{out: make(chan Request)}
	go r.run(ctx, uploads, downloads)
	return r
}

func (r *apiReceiver) run(ctx context.Context, uploads <-chan *uploadSubmission, downloads <-chan *downloadSubmission) {
	defer close(r.out)
	for uploads != nil || downloads != nil {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-uploads:
			if !ok {
				uploads = nil
				continue
			}
			select {
			case r.out <- &UploadRequest{Creds: u.creds, Blob: u.blob}:
			case <-ctx.Done():
				return
			}
		case d, ok := <-downloads:
			if !ok {
				downloads = nil
				continue
			}
			select {
			case r.out <- &DownloadRequest{Creds: d.creds, Reply: d.reply}:
			case <-ctx.Done():
				return
			}
		}
	}
}
