// File: metrics.go
package switchboard

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

var (
	MetricMessageDispatched = []string{"message", "dispatched"}
	MetricMessageDropped    = []string{"message", "dropped"}
	MetricMailboxDepth      = []string{"mailbox", "depth"}
	MetricAsyncCheckSent    = []string{"async", "check", "sent"}
	MetricAsyncNotReady     = []string{"async", "not_ready"}
	MetricDispatchLatency   = []string{"dispatch", "latency"}
	MetricRunFatal          = []string{"run", "fatal"}
	MetricIdleSleep         = []string{"run", "idle"}
)

// TelemetryLabel names a dimension shared by metrics and logs.
type TelemetryLabel string

var (
	LabelPid        TelemetryLabel = "pid"
	LabelSender     TelemetryLabel = "sender"
	LabelIdentifier TelemetryLabel = "identifier"
	LabelKind       TelemetryLabel = "kind"
	LabelDependency TelemetryLabel = "dependency"
	LabelError      TelemetryLabel = "error"
)

func (lab TelemetryLabel) M(val string) metrics.Label {
	return metrics.Label{Name: string(lab), Value: val}
}

func (lab TelemetryLabel) L(val any) slog.Attr {
	return slog.Attr{
		Key:   string(lab),
		Value: slog.AnyValue(val),
	}
}

// newMetrics builds an isolated go-metrics instance so several Environments
// in one process do not share the global one.
func newMetrics(sink metrics.MetricSink) (*metrics.Metrics, error) {
	conf := metrics.DefaultConfig("switchboard")
	conf.EnableHostname = false
	conf.EnableHostnameLabel = false
	conf.EnableRuntimeMetrics = false
	return metrics.New(conf, sink)
}
