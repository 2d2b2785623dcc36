package coordinator

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quantarax/otelcoordinator/internal/chunkproc"
	"github.com/quantarax/otelcoordinator/internal/command"
	"github.com/quantarax/otelcoordinator/internal/config"
	"github.com/quantarax/otelcoordinator/internal/diagnostics"
	"github.com/quantarax/otelcoordinator/internal/forksafe"
	"github.com/quantarax/otelcoordinator/internal/ipcqueue"
	"github.com/quantarax/otelcoordinator/internal/transport"
)

type fakeTransport struct {
	initCalls []string
}

func (f *fakeTransport) InitializeConnection(url, endpointHash, contentType string, headers []transport.Header, timeoutMS, maxRetries, retryDelayMS int, ssl transport.SSLOptions) error {
	f.initCalls = append(f.initCalls, endpointHash)
	return nil
}

func (f *fakeTransport) Enqueue(endpointHash string, payload []byte) error { return nil }

func newTestStorage(t *testing.T) *config.Storage {
	t.Helper()
	chain := config.NewDefaultChain()
	mgr := config.NewManager(chain, config.Metadata)
	return config.NewStorage(mgr)
}

func TestRunDispatchesReassembledCommand(t *testing.T) {
	queue := ipcqueue.NewMemQueue()
	defer queue.Close()

	ft := &fakeTransport{}
	storage := newTestStorage(t)
	metrics := diagnostics.NewMetrics(prometheus.NewRegistry())

	c := New(queue, ft, storage, nil, metrics, forksafe.NewRegistry())

	sender := chunkproc.NewSender(1, queue)
	cmd := command.EstablishConnection{URL: "https://example.com", EndpointHash: "abc"}
	buf, err := command.Encode(cmd)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := sender.SendPayload(buf); err != nil {
		t.Fatalf("SendPayload: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	deadline := time.After(1500 * time.Millisecond)
	for {
		if len(ft.initCalls) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for dispatch, got calls: %v", ft.initCalls)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	if ft.initCalls[0] != "abc" {
		t.Fatalf("expected InitializeConnection for abc, got %v", ft.initCalls)
	}
}

// withParentGone overrides parentProcessGone for the duration of a test,
// since simulating a real reparent-to-init would require spawning and
// orphaning a child process.
func withParentGone(t *testing.T, gone bool) {
	t.Helper()
	prev := parentProcessGone
	parentProcessGone = func() bool { return gone }
	t.Cleanup(func() { parentProcessGone = prev })
}

func TestRunPrunesDeadWorkers(t *testing.T) {
	withParentGone(t, true)

	queue := ipcqueue.NewMemQueue()
	defer queue.Close()

	storage := newTestStorage(t)
	metrics := diagnostics.NewMetrics(prometheus.NewRegistry())
	c := New(queue, nil, storage, nil, metrics, forksafe.NewRegistry())

	self := os.Getpid()
	const deadPID = 1 << 30
	c.WorkerRegistry().Register(self, os.Getppid())
	c.WorkerRegistry().Register(deadPID, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = c.Run(ctx)

	if !c.WorkerRegistry().Has(self) {
		t.Fatal("expected self to remain registered (still alive)")
	}
	if c.WorkerRegistry().Has(deadPID) {
		t.Fatal("expected dead worker pid to be pruned by the periodic task")
	}
}

func TestRunDoesNotPruneWhileParentAlive(t *testing.T) {
	withParentGone(t, false)

	queue := ipcqueue.NewMemQueue()
	defer queue.Close()

	storage := newTestStorage(t)
	metrics := diagnostics.NewMetrics(prometheus.NewRegistry())
	c := New(queue, nil, storage, nil, metrics, forksafe.NewRegistry())

	const deadPID = 1 << 30
	c.WorkerRegistry().Register(deadPID, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = c.Run(ctx)

	if !c.WorkerRegistry().Has(deadPID) {
		t.Fatal("expected liveness sweep to be skipped while parent is alive")
	}
}

func TestRunExitsWhenParentGoneAndNoWorkersRemain(t *testing.T) {
	withParentGone(t, true)

	queue := ipcqueue.NewMemQueue()
	defer queue.Close()

	storage := newTestStorage(t)
	metrics := diagnostics.NewMetrics(prometheus.NewRegistry())
	c := New(queue, nil, storage, nil, metrics, forksafe.NewRegistry())

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("expected Run to self-exit once parent is gone and no workers remain")
	}
}
