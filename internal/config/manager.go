package config

// Manager resolves the static Metadata table against a ProviderChain
// and produces revisioned Snapshots. It owns no goroutines; callers
// decide when to re-resolve (on a timer, on OpAMP delivery, on SIGHUP).
type Manager struct {
	chain    *ProviderChain
	metadata []OptionMetadata
}

// NewManager builds a Manager over chain, resolving the given metadata
// table (normally config.Metadata).
func NewManager(chain *ProviderChain, metadata []OptionMetadata) *Manager {
	return &Manager{chain: chain, metadata: metadata}
}

// ApplyFiles forwards newly delivered config files to every provider
// in the chain capable of parsing them (dynamic, ini).
func (m *Manager) ApplyFiles(files ConfigFiles) {
	m.chain.Update(files)
}

// resolve walks the metadata table against the chain, returning the
// fully resolved value set. Every option resolves to something: the
// default provider guarantees Get never returns ok=false overall, but
// resolve tolerates it doing so anyway by falling back to meta.Default.
func (m *Manager) resolve() map[string]string {
	values := make(map[string]string, len(m.metadata))
	for _, meta := range m.metadata {
		v, ok := m.chain.Get(meta)
		if !ok {
			v = meta.Default
		}
		values[meta.Key] = v
	}
	return values
}

// UpdateIfChanged resolves the current provider state and, if it
// differs from prev (or prev is the zero-revision snapshot), returns a
// new Snapshot with Revision = prev.Revision+1. If nothing changed it
// returns prev unchanged and ok=false.
//
// The very first call against a zero-revision snapshot always
// publishes revision 1, even if every resolved value happens to equal
// the snapshot's zero-valued fields, since "no snapshot yet" and
// "snapshot with all-empty values" must be distinguishable.
func (m *Manager) UpdateIfChanged(prev *Snapshot) (next *Snapshot, ok bool) {
	if prev == nil {
		prev = emptySnapshot()
	}
	resolved := m.resolve()

	first := prev.Revision == 0
	changed := first
	if !changed {
		for k, v := range resolved {
			if prev.values[k] != v {
				changed = true
				break
			}
		}
	}
	if !changed {
		return prev, false
	}

	return &Snapshot{Revision: prev.Revision + 1, values: resolved}, true
}
