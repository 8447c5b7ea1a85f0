package application

import "log/slog"

// ResolveLogger falls back to the process default so command and worker
// code can log without nil checks at every call site.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
