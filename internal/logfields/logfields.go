package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyRunName     = "run"
	KeyModule      = "module"
	KeyPublication = "publication"
	KeySiteID      = "site_id"
	KeyRecord      = "record"
	KeyKey         = "key"
	KeyURL         = "url"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyPath        = "path"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func RunName(n string) slog.Attr        { return slog.String(KeyRunName, n) }
func Module(name string) slog.Attr      { return slog.String(KeyModule, name) }
func Publication(id string) slog.Attr   { return slog.String(KeyPublication, id) }
func SiteID(id string) slog.Attr        { return slog.String(KeySiteID, id) }
func Record(id string) slog.Attr        { return slog.String(KeyRecord, id) }
func Key(k string) slog.Attr            { return slog.String(KeyKey, k) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
