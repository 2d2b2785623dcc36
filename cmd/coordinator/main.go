package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quantarax/otelcoordinator/internal/config"
	"github.com/quantarax/otelcoordinator/internal/coordinator"
	"github.com/quantarax/otelcoordinator/internal/diagnostics"
	"github.com/quantarax/otelcoordinator/internal/forksafe"
	"github.com/quantarax/otelcoordinator/internal/ipcqueue"
	"github.com/quantarax/otelcoordinator/internal/telemetry"
	"github.com/quantarax/otelcoordinator/internal/vendorhook"
)

const version = "0.1.0"

func main() {
	diagAddr := flag.String("diag-addr", "127.0.0.1:8081", "Diagnostics server address (health, metrics, debug)")
	queueKind := flag.String("queue-kind", "posix", "IPC queue backend: posix or memory")
	flag.Parse()

	logger := telemetry.NewLogger("otelcoordinator", version, os.Stdout)
	logger.Info("otelcoordinator starting")

	if shutdown, err := telemetry.InitTracing(context.Background(), "otelcoordinator"); err != nil {
		logger.Error(err, "failed to initialize tracing")
	} else {
		defer shutdown(context.Background())
	}

	defaults := &vendorhook.Defaults{}
	vendorhook.Apply(defaults)
	if vendorhook.Registered() {
		logger.Info("vendor hook applied")
	}

	chain := config.NewDefaultChain()
	if provider, ok := defaults.ConfigProvider.(config.Provider); ok {
		chain.Register(defaults.ConfigProviderPriority, provider)
	}
	storage := config.NewStorage(config.NewManager(chain, config.Metadata))
	storage.Watch(func(snap *config.Snapshot, changed []string) {
		logger.ConfigChanged(snap.Revision, changed)
	})

	metrics := diagnostics.NewMetrics(prometheus.DefaultRegisterer)
	metrics.ConfigRevision.Set(float64(storage.Current().Revision))

	kind := ipcqueue.KindPosix
	if *queueKind == "memory" {
		kind = ipcqueue.KindMemory
	}
	queue, err := ipcqueue.New(kind)
	if err != nil {
		logger.Fatal(err, "failed to construct IPC queue")
	}
	defer queue.Close()

	forksafeRegistry := forksafe.NewRegistry()

	// The HTTP transport and OpAMP client are owned by the process
	// embedding this subsystem; this binary exercises the coordinator
	// loop standalone, so neither is wired here.
	coord := coordinator.New(queue, nil, storage, logger, metrics, forksafeRegistry)

	health := diagnostics.NewHealthChecker(version)
	health.RegisterCheck("ipc_queue", diagnostics.IPCQueueCheck(func() error {
		// Placeholder: the Queue interface exposes no non-destructive
		// probe; a real readiness check would need a ping primitive
		// added to ipcqueue.Queue.
		return nil
	}))
	health.RegisterCheck("workers", diagnostics.WorkerRegistryCheck(coord.WorkerRegistry().Count))

	mux := diagnostics.NewMux(defaults.DiagnosticsPrefix, health, metrics, storage.Current)
	diagServer := &http.Server{Addr: *diagAddr, Handler: mux}
	go func() {
		logger.Info("diagnostics server listening on " + *diagAddr)
		if err := diagServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(err, "diagnostics server stopped unexpectedly")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Info("coordinator loop running")
	if err := coord.Run(ctx); err != nil && err != context.Canceled {
		logger.Error(err, "coordinator loop exited with error")
	}

	_ = diagServer.Shutdown(context.Background())
	logger.Info("otelcoordinator stopped")
}
