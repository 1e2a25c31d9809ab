// Package config loads the aggregator's runtime configuration from
// environment variables, following the teacher's getenv-with-default
// idiom rather than a flags/viper-style configuration library.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds everything cmd/aggregator needs to wire up a Service.
type Config struct {
	// GRPCAddr is the listen address for the coordinator-facing
	// AggregatorControl gRPC service.
	GRPCAddr string
	// HTTPAddr is the listen address for the client-facing data plane.
	HTTPAddr string
	// CoordinatorAddr is the coordinator's Training gRPC endpoint, used
	// for the outbound EndTraining call.
	CoordinatorAddr string
	// CoordinatorHealthAddr is the coordinator's HTTP health endpoint,
	// polled by coordinatorrpc.HealthMonitor.
	CoordinatorHealthAddr string
	// HealthCheckInterval is how often the coordinator connection is
	// health-checked.
	HealthCheckInterval time.Duration
	// ChannelCapacity bounds the RPC command channel cmd/aggregator
	// creates; the handle-facing channels use
	// aggcore.DefaultChannelCapacity.
	ChannelCapacity int
}

// Load reads Config from the environment, applying the same defaults a
// local single-binary deployment would want.
func Load() Config {
	return Config{
		GRPCAddr:              getenv("AGGREGATOR_GRPC_ADDR", ":9443"),
		HTTPAddr:              getenv("AGGREGATOR_HTTP_ADDR", ":8443"),
		CoordinatorAddr:       getenv("AGGREGATOR_COORDINATOR_ADDR", "localhost:8081"),
		CoordinatorHealthAddr: getenv("AGGREGATOR_COORDINATOR_HEALTH_ADDR", "localhost:8080"),
		HealthCheckInterval:   getenvDuration("AGGREGATOR_HEALTH_CHECK_INTERVAL", 10*time.Second),
		ChannelCapacity:       getenvInt("AGGREGATOR_CHANNEL_CAPACITY", 256),
	}
}

// getenv retrieves an environment variable with a default fallback
// value.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
