// Package main implements the federated learning aggregator service.
//
// The aggregator sits between a coordinator and a fleet of transient
// training clients. It maintains the current global model artifact and
// the credentials of clients selected for the in-progress round, and
// runs pluggable aggregation (federated averaging by default) whenever
// the coordinator asks it to.
//
// Architecture:
//
//	┌───────────────────────────────────────────────┐
//	│                  aggregator                    │
//	├───────────────────────────────────────────────┤
//	│  gRPC  (coordinator-facing, control plane):    │
//	│    AggregatorControl.Select                    │
//	│    AggregatorControl.Aggregate                 │
//	│  HTTP  (client-facing, data plane):            │
//	│    GET  /v1/model                              │
//	│    PUT  /v1/model                               │
//	│    GET  /v1/rounds                             │
//	│    GET  /v1/rounds/{round}                     │
//	│    GET  /health                                │
//	│    GET  /metrics                               │
//	├───────────────────────────────────────────────┤
//	│  aggcore.Service   single-threaded event loop  │
//	│  fedavg.Averager   pluggable aggregation        │
//	└───────────────────────────────────────────────┘
//
// Configuration is environment-based; see internal/config.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/fedcore/aggregator/internal/aggcore"
	"github.com/fedcore/aggregator/internal/config"
	"github.com/fedcore/aggregator/internal/coordinatorrpc"
	"github.com/fedcore/aggregator/internal/dataplane"
	"github.com/fedcore/aggregator/internal/fedavg"
	"github.com/fedcore/aggregator/internal/logging"
	"github.com/fedcore/aggregator/internal/storage"
)

func main() {
	logging.Configure()
	cfg := config.Load()

	conn, err := grpc.NewClient(cfg.CoordinatorAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.WithError(err).Fatal("failed to dial coordinator")
	}
	defer conn.Close()
	notifier := coordinatorrpc.NewCoordinatorClient(conn)

	averager := fedavg.NewAverager(storage.NewMemoryStore())

	rpcCommands := make(chan aggcore.Command, cfg.ChannelCapacity)
	svc, handle := aggcore.NewService(rpcCommands, averager, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	grpcServer := grpc.NewServer()
	coordinatorrpc.RegisterAggregatorControlServer(grpcServer, coordinatorrpc.NewServer(rpcCommands))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatal("failed to bind gRPC listener")
	}
	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("aggregator control plane listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("grpc server stopped")
		}
	}()

	dataSrv := dataplane.NewServer(handle, averager)
	httpMux := dataSrv.Mux()
	httpMux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("aggregator data plane listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	health := coordinatorrpc.NewHealthMonitor(cfg.CoordinatorHealthAddr, cfg.HealthCheckInterval)
	health.SetOnUnhealthy(func() {
		log.Warn("coordinator connection unhealthy")
	})
	go health.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutdown signal received")
	health.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown error")
	}
	grpcServer.GracefulStop()
	log.Info("aggregator stopped")
}
