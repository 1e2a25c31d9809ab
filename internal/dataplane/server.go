// Package dataplane implements the client-facing HTTP surface: clients
// download the current global artifact and upload their locally-trained
// weights here, authenticated by the (client_id, token) pair the
// coordinator issued them. See doc.go for the full writeup.
package dataplane

import (
	"encoding/json"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fedcore/aggregator/internal/aggcore"
	"github.com/fedcore/aggregator/internal/metrics"
)

// maxUploadBytes caps how much a single upload request body may contain,
// so a malicious or buggy client cannot exhaust aggregator memory with
// one request.
const maxUploadBytes = 64 << 20 // 64 MiB

// History is the read-only view onto aggregation history the data plane
// exposes for operator inspection. *fedavg.Averager implements it; a nil
// History means no history store was configured, and the round-inspection
// endpoints report that as 404 rather than panicking.
type History interface {
	// Round returns the weights blob persisted for the given round key,
	// or false if it hasn't been persisted.
	Round(key string) (aggcore.Weights, bool)
	// Rounds lists the round keys persisted so far.
	Rounds() []string
}

// Server exposes the data plane over HTTP, following the teacher's
// net/http.ServeMux + manual encode/decode style rather than a web
// framework (see DESIGN.md).
type Server struct {
	handle  *aggcore.Handle
	history History
	mux     *http.ServeMux
}

// NewServer builds a Server backed by handle. history may be nil, in which
// case the round-inspection endpoints always report 404. Call Handler to
// obtain the http.Handler to serve.
func NewServer(handle *aggcore.Handle, history History) *Server {
	s := &Server{handle: handle, history: history, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /v1/model", s.handleDownload)
	s.mux.HandleFunc("PUT /v1/model", s.handleUpload)
	s.mux.HandleFunc("GET /v1/rounds", s.handleListRounds)
	s.mux.HandleFunc("GET /v1/rounds/{round}", s.handleGetRound)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// Handler returns the http.Handler for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Mux returns the underlying *http.ServeMux so callers can register
// additional routes (such as /metrics) alongside the data plane's own.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

// handleDownload serves GET /v1/model?client_id=&token=.
//
// Responses:
//   - 200 with the raw artifact bytes on success
//   - 400 if client_id or token is missing
//   - 404 if the credentials are not authorized for the current round
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentialsFromQuery(r)
	if !ok {
		http.Error(w, "missing client_id or token", http.StatusBadRequest)
		return
	}

	blob, ok := s.handle.Download(r.Context(), creds)
	if !ok {
		http.Error(w, "not authorized for the current round", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(blob); err != nil {
		log.WithError(err).Warn("failed to write download response body")
	}
}

// handleUpload serves PUT /v1/model?client_id=&token=, with the body
// carrying the raw weight bytes.
//
// Responses:
//   - 202 once the upload has been queued for ingestion (this does not
//     mean the aggregator accepted it — that outcome is reported to the
//     coordinator asynchronously, not to the client)
//   - 400 if client_id or token is missing, or the body can't be read
//   - 413 if the body exceeds maxUploadBytes
//   - 504 if the request context ends before the upload is queued
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	creds, ok := credentialsFromQuery(r)
	if !ok {
		http.Error(w, "missing client_id or token", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) > maxUploadBytes {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if err := s.handle.Upload(r.Context(), creds, aggcore.Weights(body)); err != nil {
		http.Error(w, "upload timed out", http.StatusGatewayTimeout)
		return
	}

	metrics.UploadsTotal.Inc()
	w.WriteHeader(http.StatusAccepted)
}

// handleListRounds serves GET /v1/rounds, an operator endpoint listing the
// round keys the configured history store has persisted.
//
// Responses:
//   - 200 with a JSON array of round keys (empty if no history store is
//     configured)
func (s *Server) handleListRounds(w http.ResponseWriter, _ *http.Request) {
	var rounds []string
	if s.history != nil {
		rounds = s.history.Rounds()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rounds); err != nil {
		log.WithError(err).Warn("failed to write rounds list response body")
	}
}

// handleGetRound serves GET /v1/rounds/{round}, an operator endpoint
// returning a previously aggregated round's weights for inspection. Unlike
// /v1/model this carries no client credentials check; it is meant for
// operator tooling, not training clients.
//
// Responses:
//   - 200 with the raw weights bytes for that round
//   - 404 if no history store is configured, or the round isn't persisted
func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "no history store configured", http.StatusNotFound)
		return
	}
	blob, ok := s.history.Round(r.PathValue("round"))
	if !ok {
		http.Error(w, "round not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(blob); err != nil {
		log.WithError(err).Warn("failed to write round response body")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func credentialsFromQuery(r *http.Request) (aggcore.Credentials, bool) {
	id := r.URL.Query().Get("client_id")
	token := r.URL.Query().Get("token")
	if id == "" || token == "" {
		return aggcore.Credentials{}, false
	}
	return aggcore.Credentials{ID: aggcore.ClientID(id), Token: aggcore.Token(token)}, true
}
