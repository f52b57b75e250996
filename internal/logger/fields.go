package logger

import (
	"log/slog"
)

// Standard field keys for structured logging. Use these keys consistently
// across all log statements so aggregator/dpi/steer lines stay greppable.
const (
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	KeySubsystem = "subsystem" // aggregator, dpi, steer, msgtree
	KeyPolicy    = "policy"    // steering policy name
	KeyStaMAC    = "sta_mac"
	KeyBssid     = "bssid"
	KeyAttr      = "attr"      // DPI attribute name
	KeyPlugin    = "plugin"    // DPI plugin name
	KeyWindow    = "window"    // aggregator window index
	KeyFlowKey   = "flow_key"  // report key of a flow

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyCount      = "count"
	KeyState      = "state" // FSM state name
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr { return slog.String(KeySpanID, id) }

// Subsystem returns a slog.Attr naming the emitting component
func Subsystem(name string) slog.Attr { return slog.String(KeySubsystem, name) }

// Policy returns a slog.Attr naming a steering policy
func Policy(name string) slog.Attr { return slog.String(KeyPolicy, name) }

// StaMAC returns a slog.Attr for a station MAC address
func StaMAC(mac string) slog.Attr { return slog.String(KeyStaMAC, mac) }

// Bssid returns a slog.Attr for a BSSID
func Bssid(bssid string) slog.Attr { return slog.String(KeyBssid, bssid) }

// Attr returns a slog.Attr naming a DPI attribute
func Attr(name string) slog.Attr { return slog.String(KeyAttr, name) }

// Plugin returns a slog.Attr naming a DPI plugin
func Plugin(name string) slog.Attr { return slog.String(KeyPlugin, name) }

// Window returns a slog.Attr for a report window index
func Window(idx int) slog.Attr { return slog.Int(KeyWindow, idx) }

// FlowKey returns a slog.Attr for a flow's report key
func FlowKey(key string) slog.Attr { return slog.String(KeyFlowKey, key) }

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Count returns a slog.Attr for a generic count
func Count(n int) slog.Attr { return slog.Int(KeyCount, n) }

// State returns a slog.Attr naming an FSM state
func State(name string) slog.Attr { return slog.String(KeyState, name) }
