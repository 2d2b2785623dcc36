package diagnostics

import (
	"encoding/json"
	"net/http"

	"github.com/quantarax/otelcoordinator/internal/config"
)

// InfoHandler serves the effective configuration as a JSON object of
// key -> value, with secret-flagged options redacted by
// (*config.Snapshot).Get. current is called per request so the handler
// always reflects the latest published snapshot.
func InfoHandler(current func() *config.Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := current()
		out := struct {
			Revision uint64            `json:"revision"`
			Options  map[string]string `json:"options"`
		}{
			Revision: snap.Revision,
			Options:  make(map[string]string, len(snap.Keys())),
		}
		for _, key := range snap.Keys() {
			v, _ := snap.Get(key)
			out.Options[key] = v
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
