package config

import "sort"

// Snapshot is an immutable, revisioned view of every known option's
// resolved value. Consumers hold onto a *Snapshot freely; it is never
// mutated in place once published — Manager builds a new one and the
// old one is left alone.
type Snapshot struct {
	Revision uint64
	values   map[string]string
}

// emptySnapshot is the zero state a Manager starts diffing against.
func emptySnapshot() *Snapshot {
	return &Snapshot{}
}

// Get returns key's resolved value, redacted to "***" if the option is
// flagged secret, along with whether the key is known at all.
func (s *Snapshot) Get(key string) (string, bool) {
	v, ok := s.values[key]
	if !ok {
		return "", false
	}
	if meta, found := Lookup(key); found && meta.Secret {
		return "***", true
	}
	return v, true
}

// raw returns the unredacted value, for internal use (diffing,
// resolving into typed config structs downstream).
func (s *Snapshot) raw(key string) string { return s.values[key] }

// Keys returns every known option key in a stable, sorted order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Diff returns the keys whose resolved value differs between prev and
// s. A nil prev (no prior snapshot) reports every key in s as changed.
func (s *Snapshot) Diff(prev *Snapshot) []string {
	var changed []string
	for _, key := range s.Keys() {
		if prev == nil {
			changed = append(changed, key)
			continue
		}
		if prev.raw(key) != s.raw(key) {
			changed = append(changed, key)
		}
	}
	return changed
}

// clone returns a deep copy suitable as the starting point for the
// next revision's diffing.
func (s *Snapshot) clone() *Snapshot {
	values := make(map[string]string, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return &Snapshot{Revision: s.Revision, values: values}
}
