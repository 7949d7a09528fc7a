package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyPathname   = "pathname"
	KeyDocType    = "doc_type"
	KeyAsset      = "asset"
	KeyKind       = "kind"
	KeyHref       = "href"
	KeyDirective  = "directive"
	KeyCount      = "count"
	KeyEvent      = "event"
	KeySchedule   = "schedule"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Pathname(p string) slog.Attr     { return slog.String(KeyPathname, p) }
func DocType(t string) slog.Attr      { return slog.String(KeyDocType, t) }
func Asset(a string) slog.Attr        { return slog.String(KeyAsset, a) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Href(h string) slog.Attr         { return slog.String(KeyHref, h) }
func Directive(name string) slog.Attr { return slog.String(KeyDirective, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Event(op string) slog.Attr       { return slog.String(KeyEvent, op) }
func Schedule(every string) slog.Attr { return slog.String(KeySchedule, every) }
func Since(start time.Time) slog.Attr {
	return DurationMS(float64(time.Since(start).Microseconds()) / 1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
