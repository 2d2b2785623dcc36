package config

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"sync"
)

// Provider resolves a single option's value from one configuration
// source. Get reports ok=false when the source has no opinion on the
// option; Update is called whenever new ConfigFiles arrive so the
// provider can re-parse its backing file, and is a no-op for sources
// that aren't file-backed.
type Provider interface {
	Get(meta OptionMetadata) (value string, ok bool)
	Update(files ConfigFiles)
}

// Priority levels for the built-in providers. Higher wins. A vendor
// hook registering a custom provider picks its own priority to slot
// in anywhere in this order.
const (
	PriorityDynamic = 300
	PriorityIni     = 200
	PriorityEnv     = 100
	PriorityDefault = 0
)

// fileMapProvider resolves values from a key=value file delivered via
// ConfigFiles, keyed by a per-option name selected by keyFor. It also
// supports direct injection via Set, used by tests and by any caller
// that already has parsed values rather than raw file bytes.
type fileMapProvider struct {
	mu       sync.RWMutex
	values   map[string]string
	fileName string
	keyFor   func(OptionMetadata) string
}

func newFileMapProvider(fileName string, keyFor func(OptionMetadata) string) *fileMapProvider {
	return &fileMapProvider{fileName: fileName, keyFor: keyFor}
}

func (p *fileMapProvider) Get(meta OptionMetadata) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[p.keyFor(meta)]
	return v, ok
}

func (p *fileMapProvider) Update(files ConfigFiles) {
	content, ok := files[p.fileName]
	if !ok {
		return
	}
	parsed := parseKeyValueLines(content)
	p.mu.Lock()
	p.values = parsed
	p.mu.Unlock()
}

// Set directly injects a value, bypassing file parsing. Used by tests
// and by callers wiring config from something other than ConfigFiles.
func (p *fileMapProvider) Set(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values == nil {
		p.values = make(map[string]string)
	}
	p.values[key] = value
}

// NewDynamicProvider returns the provider backed by OpAMP-delivered
// remote configuration, keyed by OptionMetadata.DynamicName.
func NewDynamicProvider() *fileMapProvider {
	return newFileMapProvider(dynamicConfigFile, func(m OptionMetadata) string { return m.DynamicName })
}

// NewIniProvider returns the provider backed by the distro ini file,
// keyed by OptionMetadata.IniName.
func NewIniProvider() *fileMapProvider {
	return newFileMapProvider(iniConfigFile, func(m OptionMetadata) string { return m.IniName })
}

// envProvider resolves values from the process environment.
type envProvider struct{}

// NewEnvProvider returns the provider backed by os.Getenv.
func NewEnvProvider() Provider { return envProvider{} }

func (envProvider) Get(meta OptionMetadata) (string, bool) {
	if meta.EnvName == "" {
		return "", false
	}
	return os.LookupEnv(meta.EnvName)
}

func (envProvider) Update(ConfigFiles) {}

// defaultProvider always resolves to the compiled-in default, so it
// anchors the bottom of the chain and nothing should ever be
// registered below it.
type defaultProvider struct{}

// NewDefaultProvider returns the provider backed by OptionMetadata.Default.
func NewDefaultProvider() Provider { return defaultProvider{} }

func (defaultProvider) Get(meta OptionMetadata) (string, bool) { return meta.Default, true }

func (defaultProvider) Update(ConfigFiles) {}

// parseKeyValueLines parses newline-delimited "key=value" pairs,
// ignoring blank lines and lines starting with '#' or ';'.
func parseKeyValueLines(content []byte) map[string]string {
	out := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}
