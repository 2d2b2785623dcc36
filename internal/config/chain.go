package config

import "sort"

type chainEntry struct {
	priority int
	provider Provider
}

// ProviderChain holds an ordered list of (priority, provider) pairs
// and resolves each option against the highest-priority provider that
// has an opinion on it. Once a provider returns ok=true, no
// lower-priority provider is consulted for that option.
type ProviderChain struct {
	entries []chainEntry
}

// NewProviderChain builds an empty chain.
func NewProviderChain() *ProviderChain {
	return &ProviderChain{}
}

// Register inserts provider at the given priority, re-sorting the
// chain so Get always walks highest-to-lowest priority. Ties resolve
// in registration order (stable sort).
func (c *ProviderChain) Register(priority int, provider Provider) {
	c.entries = append(c.entries, chainEntry{priority: priority, provider: provider})
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].priority > c.entries[j].priority
	})
}

// Get resolves meta against the chain, highest priority first.
func (c *ProviderChain) Get(meta OptionMetadata) (string, bool) {
	for _, e := range c.entries {
		if v, ok := e.provider.Get(meta); ok {
			return v, true
		}
	}
	return "", false
}

// Update notifies every provider in the chain of newly delivered
// config files. Providers that don't parse files ignore the call.
func (c *ProviderChain) Update(files ConfigFiles) {
	for _, e := range c.entries {
		e.provider.Update(files)
	}
}

// NewDefaultChain builds the chain described by the resolution order
// dynamic > ini > env > default, with room for a vendor-registered
// provider to slot in anywhere via Register.
func NewDefaultChain() *ProviderChain {
	c := NewProviderChain()
	c.Register(PriorityDynamic, NewDynamicProvider())
	c.Register(PriorityIni, NewIniProvider())
	c.Register(PriorityEnv, NewEnvProvider())
	c.Register(PriorityDefault, NewDefaultProvider())
	return c
}
