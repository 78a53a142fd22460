package track

import (
	"encoding/json"
	"time"
)

// imageMessage is the client→server streaming message carrying one frame.
type imageMessage struct {
	Type         string `json:"type"`
	Data         string `json:"data"`
	TrackingMode string `json:"tracking_mode"`
	RobotType    string `json:"robot_type"`
	Timestamp    string `json:"timestamp"`
}

// inboundMessage is the minimal decode of a server→client streaming message.
type inboundMessage struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// trackRequest is the fallback POST /api/track body.
type trackRequest struct {
	ImageData    string `json:"image_data"`
	TrackingMode string `json:"tracking_mode"`
	RobotType    string `json:"robot_type"`
	Timestamp    string `json:"timestamp"`
}

// ResultPayload mirrors the inference service's tracking result body. The
// fingertip and robot-control structures are carried opaquely; interpreting
// them is the consumer's concern.
type ResultPayload struct {
	Success          bool            `json:"success"`
	Timestamp        string          `json:"timestamp"`
	HandDetected     bool            `json:"hand_detected"`
	Fingertips       json.RawMessage `json:"fingertips,omitempty"`
	RobotControl     json.RawMessage `json:"robot_control,omitempty"`
	RobotType        string          `json:"robot_type,omitempty"`
	ProcessingTimeMs float64         `json:"processing_time_ms"`
}

// FrameEnvelope is one captured frame offered to the client for
// transmission. Seq is a client-side monotonically increasing correlation
// id; the service does not echo it, so streaming results are matched to the
// oldest pending envelope in send order.
type FrameEnvelope struct {
	Seq          uint64
	Payload      []byte
	TrackingMode string
	RobotType    string
	SentAt       time.Time
}

// TrackingResult is one matched inference result delivered to the consumer.
type TrackingResult struct {
	Seq              uint64        `json:"seq"`
	Detected         bool          `json:"detected"`
	Payload          ResultPayload `json:"payload"`
	ProcessingTimeMs float64       `json:"processing_time_ms"`
	LatencyMs        float64       `json:"latency_ms"`
	QueueDepth       int           `json:"queue_depth"`
}

func wireTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
