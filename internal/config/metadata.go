// Package config implements the prioritized configuration resolution
// pipeline: a chain of value providers (dynamic, ini, env, default)
// composed behind a manager that publishes immutable, revisioned
// snapshots.
package config

// OptionMetadata describes one configuration option and the
// source-specific key each provider looks it up by. The metadata table
// is static; values differ per source because the upstream systems
// feeding each provider (remote config, an ini file, the process
// environment) each have their own naming convention for the same
// logical setting.
type OptionMetadata struct {
	Key         string // canonical name used in the published Snapshot
	DynamicName string // key under which the dynamic provider looks this up
	IniName     string // key under which the ini provider looks this up
	EnvName     string // environment variable name
	Default     string
	Secret      bool
}

// ConfigFiles maps filename to opaque content delivered by OpAMP. It is
// opaque to the ProviderChain; only providers that opt in (the dynamic
// and ini providers here) parse it.
type ConfigFiles map[string][]byte

const (
	dynamicConfigFile = "otel-dynamic.conf"
	iniConfigFile     = "opentelemetry.ini"
)

// Metadata is the static table of known options.
var Metadata = []OptionMetadata{
	{
		Key:         "bootstrap_php_part_file",
		DynamicName: "bootstrap_php_part_file",
		IniName:     "opentelemetry_distro.bootstrap_php_part_file",
		EnvName:     "OTEL_PHP_BOOTSTRAP_PHP_PART_FILE",
		Default:     "",
	},
	{
		Key:         "exporter_otlp_insecure",
		DynamicName: "exporter_otlp_insecure",
		IniName:     "opentelemetry.exporter_otlp_insecure",
		EnvName:     "OTEL_EXPORTER_OTLP_INSECURE",
		Default:     "false",
	},
	{
		Key:         "exporter_otlp_endpoint",
		DynamicName: "exporter_otlp_endpoint",
		IniName:     "opentelemetry.exporter_otlp_endpoint",
		EnvName:     "OTEL_EXPORTER_OTLP_ENDPOINT",
		Default:     "http://localhost:4318",
	},
	{
		Key:         "distribution_name",
		DynamicName: "distribution_name",
		IniName:     "opentelemetry_distro.distribution_name",
		EnvName:     "OTEL_PHP_DISTRIBUTION_NAME",
		Default:     "otelcoordinator",
	},
	{
		Key:         "distribution_version",
		DynamicName: "distribution_version",
		IniName:     "opentelemetry_distro.distribution_version",
		EnvName:     "OTEL_PHP_DISTRIBUTION_VERSION",
		Default:     "0.0.0-dev",
	},
	{
		Key:         "coordinator_cleanup_interval_ms",
		DynamicName: "coordinator_cleanup_interval_ms",
		IniName:     "opentelemetry_distro.coordinator_cleanup_interval_ms",
		EnvName:     "OTEL_COORDINATOR_CLEANUP_INTERVAL_MS",
		Default:     "60000",
	},
	{
		Key:         "coordinator_partial_max_age_ms",
		DynamicName: "coordinator_partial_max_age_ms",
		IniName:     "opentelemetry_distro.coordinator_partial_max_age_ms",
		EnvName:     "OTEL_COORDINATOR_PARTIAL_MAX_AGE_MS",
		Default:     "10000",
	},
	{
		Key:         "otlp_headers_auth_token",
		DynamicName: "otlp_headers_auth_token",
		IniName:     "opentelemetry.otlp_headers_auth_token",
		EnvName:     "OTEL_EXPORTER_OTLP_HEADERS_AUTH_TOKEN",
		Default:     "",
		Secret:      true,
	},
}

// Lookup returns the metadata entry for key, if any.
func Lookup(key string) (OptionMetadata, bool) {
	for _, m := range Metadata {
		if m.Key == key {
			return m, true
		}
	}
	return OptionMetadata{}, false
}
