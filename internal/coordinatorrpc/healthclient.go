package coordinatorrpc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fedcore/aggregator/internal/cluster"
)

// ConnectionHealth tracks the observed health of the aggregator's
// connection to the coordinator. Adapted from the teacher's per-node
// NodeHealth/HealthMonitor pair, narrowed from "a set of storage nodes"
// to "the single coordinator this aggregator reports to."
type ConnectionHealth struct {
	LastCheck        time.Time
	LastHealthy      time.Time
	Status           string
	ConsecutiveFails int
}

// HealthMonitor periodically probes the coordinator's HTTP health
// endpoint and tracks consecutive failures, the same select-loop and
// failure-threshold shape as the teacher's
// internal/coordinator.HealthMonitor, narrowed to one target.
type HealthMonitor struct {
	addr        string
	checkFunc   func(addr string) error
	onUnhealthy func()

	mu          sync.RWMutex
	health      ConnectionHealth
	interval    time.Duration
	maxFailures int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHealthMonitor creates a monitor for the coordinator at addr (an
// "http(s)://host:port" base URL, or a bare "host:port"), checking every
// interval and marking the connection unhealthy after 3 consecutive
// failures.
func NewHealthMonitor(addr string, interval time.Duration) *HealthMonitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &HealthMonitor{
		addr:        addr,
		interval:    interval,
		maxFailures: 3,
		health:      ConnectionHealth{Status: "unknown"},
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetOnUnhealthy sets the callback invoked (in its own goroutine) the
// moment the connection transitions into the unhealthy state.
func (h *HealthMonitor) SetOnUnhealthy(callback func()) {
	h.onUnhealthy = callback
}

// SetCheckFunction overrides the default HTTP health check, for tests.
func (h *HealthMonitor) SetCheckFunction(checkFunc func(addr string) error) {
	h.checkFunc = checkFunc
}

// Start blocks, performing health checks on a ticker, until ctx or the
// monitor's own context is canceled.
func (h *HealthMonitor) Start(ctx context.Context) {
	h.wg.Add(1)
	defer h.wg.Done()

	if h.checkFunc == nil {
		h.checkFunc = h.defaultHealthCheck
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	log.WithField("interval", h.interval).Info("coordinator health monitor started")

	h.check()

	for {
		select {
		case <-ticker.C:
			h.check()
		case <-ctx.Done():
			log.Info("coordinator health monitor stopping: context canceled")
			return
		case <-h.ctx.Done():
			log.Info("coordinator health monitor stopping: internal cancellation")
			return
		}
	}
}

// Stop cancels the monitor and waits for Start to return.
func (h *HealthMonitor) Stop() {
	h.cancel()
	h.wg.Wait()
}

func (h *HealthMonitor) check() {
	err := h.checkFunc(h.addr)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.health.LastCheck = time.Now()

	if err != nil {
		h.health.ConsecutiveFails++
		log.WithError(err).
			WithField("attempt", h.health.ConsecutiveFails).
			WithField("max", h.maxFailures).
			Warn("coordinator health check failed")

		if h.health.ConsecutiveFails >= h.maxFailures {
			previous := h.health.Status
			h.health.Status = "unhealthy"
			if previous != "unhealthy" && h.onUnhealthy != nil {
				go h.onUnhealthy()
			}
		}
		return
	}

	if h.health.Status == "unhealthy" {
		log.Info("coordinator connection recovered")
	}
	h.health.Status = "healthy"
	h.health.ConsecutiveFails = 0
	h.health.LastHealthy = time.Now()
}

// defaultHealthCheck reuses cluster.GetJSON, the teacher's shared
// HTTP-plus-JSON-decode helper for inter-service health and status
// queries, pointed at the coordinator's /health endpoint instead of a
// storage node's.
func (h *HealthMonitor) defaultHealthCheck(addr string) error {
	url := addr
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		url = fmt.Sprintf("http://%s", addr)
	}
	if !strings.HasSuffix(url, "/health") {
		url = strings.TrimRight(url, "/") + "/health"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var status struct {
		Status string `json:"status"`
	}
	if err := cluster.GetJSON(ctx, url, &status); err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	return nil
}

// Health returns a copy of the current connection health.
func (h *HealthMonitor) Health() ConnectionHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health
}

// IsHealthy reports whether the coordinator connection is currently
// considered healthy.
func (h *HealthMonitor) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health.Status == "healthy"
}
