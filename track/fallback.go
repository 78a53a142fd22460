package track

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const trackPath = "/api/track"

// httpTransport is the fallback variant: one blocking POST round trip per
// frame, no persistent connection state.
type httpTransport struct {
	url    string
	client http.Client
	sink   resultSink
}

// newHTTPTransport builds the fallback transport. timeout bounds each round
// trip.
func newHTTPTransport(baseURL string, timeout time.Duration, sink resultSink) *httpTransport {
	return &httpTransport{
		url:    strings.TrimSuffix(baseURL, "/") + trackPath,
		client: http.Client{Timeout: timeout},
		sink:   sink,
	}
}

func (t *httpTransport) Kind() TransportKind { return TransportFallback }

// Open is a no-op: there is no connection to establish.
func (t *httpTransport) Open(ctx context.Context) error { return nil }

// Live is vacuously true; each Send stands alone.
func (t *httpTransport) Live() bool { return true }

// Close is a no-op.
func (t *httpTransport) Close(normal bool) {}

// Send performs the round trip and delivers the result to the sink before
// returning. Callers that must not block run Send on its own goroutine.
func (t *httpTransport) Send(ctx context.Context, frame *FrameEnvelope) error {
	payload, err := t.roundTrip(ctx, frame)
	if err != nil {
		return err
	}
	t.sink.handleFallbackResult(frame, payload, time.Now())
	return nil
}

func (t *httpTransport) roundTrip(ctx context.Context, frame *FrameEnvelope) (ResultPayload, error) {
	body, err := json.Marshal(trackRequest{
		ImageData:    string(frame.Payload),
		TrackingMode: frame.TrackingMode,
		RobotType:    frame.RobotType,
		Timestamp:    wireTimestamp(frame.SentAt),
	})
	if err != nil {
		return ResultPayload{}, &TransportError{Kind: ErrProtocol, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return ResultPayload{}, &TransportError{Kind: ErrProtocol, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return ResultPayload{}, &TransportError{Kind: classifyNetErr(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ResultPayload{}, &TransportError{
			Kind: classifyStatus(resp.StatusCode),
			Err:  fmt.Errorf("track endpoint returned %d", resp.StatusCode),
		}
	}

	var payload ResultPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ResultPayload{}, &TransportError{
			Kind: ErrProtocol,
			Err:  fmt.Errorf("decode track response: %w", err),
		}
	}
	return payload, nil
}
