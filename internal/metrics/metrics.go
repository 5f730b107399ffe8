package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	MessagesReceived  atomic.Int64
	MessagesMalformed atomic.Int64
	MessagesUnmapped  atomic.Int64
	TelemetrySaved    atomic.Int64
	TelemetryFailures atomic.Int64
	AlertsCreated     atomic.Int64
	AlertsRefreshed   atomic.Int64
	AlertsResolved    atomic.Int64
	AlertFailures     atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "bridge_messages_received_total %d\n", MessagesReceived.Load())
	fmt.Fprintf(w, "bridge_messages_malformed_total %d\n", MessagesMalformed.Load())
	fmt.Fprintf(w, "bridge_messages_unmapped_total %d\n", MessagesUnmapped.Load())
	fmt.Fprintf(w, "bridge_telemetry_saved_total %d\n", TelemetrySaved.Load())
	fmt.Fprintf(w, "bridge_telemetry_save_failures_total %d\n", TelemetryFailures.Load())
	fmt.Fprintf(w, "bridge_alerts_created_total %d\n", AlertsCreated.Load())
	fmt.Fprintf(w, "bridge_alerts_refreshed_total %d\n", AlertsRefreshed.Load())
	fmt.Fprintf(w, "bridge_alerts_resolved_total %d\n", AlertsResolved.Load())
	fmt.Fprintf(w, "bridge_alert_failures_total %d\n", AlertFailures.Load())
}
