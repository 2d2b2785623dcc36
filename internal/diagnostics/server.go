package diagnostics

import (
	"net/http"
	"net/http/pprof"

	"github.com/quantarax/otelcoordinator/internal/config"
)

// NewMux builds the coordinator's diagnostics HTTP surface: health,
// metrics, the effective-configuration dump, and pprof profiling
// endpoints. prefix namespaces the debug endpoints (e.g. the vendor
// hook can override it); an empty prefix defaults to "/debug".
func NewMux(prefix string, health *HealthChecker, metrics *Metrics, current func() *config.Snapshot) *http.ServeMux {
	if prefix == "" {
		prefix = "/debug"
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", health.Handler())
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc(prefix+"/info", InfoHandler(current))
	mux.HandleFunc(prefix+"/pprof/", pprof.Index)
	mux.HandleFunc(prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc(prefix+"/pprof/profile", pprof.Profile)
	mux.HandleFunc(prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandleFunc(prefix+"/pprof/trace", pprof.Trace)
	return mux
}
