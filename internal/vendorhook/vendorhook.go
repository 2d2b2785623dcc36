// Package vendorhook implements the weak vendor-customization hook: a
// process-init registration slot a vendor build can fill to override
// default behavior (an extra config.Provider, the diagnostics debug
// path prefix), rather than the weak-symbol linker trick
// the hook is conceptually descended from. Go has no equivalent of a
// weak symbol resolved at link time, so the slot is a plain registry
// checked at startup: if nothing registered, the default applies.
package vendorhook

import "sync"

// Hook is called during coordinator startup, after defaults are built
// but before they are wired together, so it can swap out individual
// components.
type Hook func(d *Defaults)

// Defaults exposes the parts of the coordinator's default wiring a
// vendor hook is allowed to override. Fields are optional: a hook only
// sets the ones it cares about.
type Defaults struct {
	// ConfigProviderPriority and ConfigProvider, if both set, register
	// an extra provider into the default config.ProviderChain.
	ConfigProviderPriority int
	ConfigProvider         any // config.Provider; any to avoid an import cycle

	// DiagnosticsPrefix overrides the default "/debug" HTTP path
	// prefix the diagnostics server mounts under.
	DiagnosticsPrefix string
}

var (
	mu   sync.Mutex
	hook Hook
)

// Register installs h as the vendor hook. Calling Register more than
// once replaces the previous hook; there is exactly one vendor build
// per binary, so last-write-wins is sufficient and keeps this simple.
func Register(h Hook) {
	mu.Lock()
	defer mu.Unlock()
	hook = h
}

// Apply runs the registered hook against d, if any. Safe to call even
// when no hook was ever registered.
func Apply(d *Defaults) {
	mu.Lock()
	h := hook
	mu.Unlock()
	if h != nil {
		h(d)
	}
}

// Registered reports whether a vendor hook has been installed.
func Registered() bool {
	mu.Lock()
	defer mu.Unlock()
	return hook != nil
}
