package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyPath       = "path"
	KeyName       = "name"
	KeyKind       = "kind"
	KeyFailure    = "failure"
	KeyStep       = "step"
	KeyTool       = "tool"
	KeyOutcome    = "outcome"
	KeyCount      = "count"
	KeyURL        = "url"
	KeyBranch     = "branch"
	KeyTrigger    = "trigger"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr      { return slog.String(KeyRunID, id) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Name(n string) slog.Attr        { return slog.String(KeyName, n) }
func Kind(k string) slog.Attr        { return slog.String(KeyKind, k) }
func Failure(f string) slog.Attr     { return slog.String(KeyFailure, f) }
func Step(s string) slog.Attr        { return slog.String(KeyStep, s) }
func Tool(t string) slog.Attr        { return slog.String(KeyTool, t) }
func Outcome(o string) slog.Attr     { return slog.String(KeyOutcome, o) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func URL(u string) slog.Attr         { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr      { return slog.String(KeyBranch, b) }
func Trigger(t string) slog.Attr     { return slog.String(KeyTrigger, t) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
