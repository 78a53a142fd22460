package messaging

import (
	"time"

	"teleopedge/engine"
)

// WindowCounters accumulates per-window activity between telemetry reports.
type WindowCounters struct {
	Results           uint64 `json:"results"`
	Detected          uint64 `json:"detected"`
	Errors            uint64 `json:"errors"`
	TransportSwitches uint64 `json:"transport_switches"`
}

// TelemetryReport is the periodic report published to the telemetry topic.
type TelemetryReport struct {
	ReportID string         `json:"report_id"`
	NodeID   string         `json:"node_id"`
	Time     time.Time      `json:"time"`
	Status   engine.Status  `json:"status"`
	Window   WindowCounters `json:"window"`
}
