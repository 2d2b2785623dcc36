package telemetry

// Redact masks a secret value for logging or diagnostic display. Empty
// strings pass through unmasked since there is nothing to leak and
// "***" would misleadingly suggest a value is set.
func Redact(value string) string {
	if value == "" {
		return ""
	}
	return "***"
}
