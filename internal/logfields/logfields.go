package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPage       = "page"
	KeyRoute      = "route"
	KeySection    = "section"
	KeyPlugin     = "plugin"
	KeyPhase      = "phase"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Page(name string) slog.Attr        { return slog.String(KeyPage, name) }
func Route(route string) slog.Attr      { return slog.String(KeyRoute, route) }
func Section(id string) slog.Attr       { return slog.String(KeySection, id) }
func Plugin(name string) slog.Attr      { return slog.String(KeyPlugin, name) }
func Phase(name string) slog.Attr       { return slog.String(KeyPhase, name) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
