package track

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// TransportErrorKind classifies transport failures uniformly across both
// transport variants.
type TransportErrorKind int

const (
	ErrTimeout TransportErrorKind = iota + 1
	ErrRefused
	ErrNetworkUnavailable
	ErrProtocol
)

func (k TransportErrorKind) String() string {
	switch k {
	case ErrTimeout:
		return "timeout"
	case ErrRefused:
		return "refused"
	case ErrNetworkUnavailable:
		return "network_unavailable"
	case ErrProtocol:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// TransportError wraps a transport failure with its classification.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrorKind classifies client-level failures surfaced through the emitter.
type ErrorKind int

const (
	ErrConnectTimeout ErrorKind = iota + 1
	ErrTransportClosed
	// ErrSendRejectedBackpressure names a frame dropped at admission. The
	// client recovers locally and never emits it; it is reserved so telemetry
	// consumers can classify the drop counter alongside emitted error kinds.
	ErrSendRejectedBackpressure
	ErrSendFailedTransport
	ErrReconnectExhausted
	ErrParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrConnectTimeout:
		return "connect_timeout"
	case ErrTransportClosed:
		return "transport_closed"
	case ErrSendRejectedBackpressure:
		return "send_rejected_backpressure"
	case ErrSendFailedTransport:
		return "send_failed_transport"
	case ErrReconnectExhausted:
		return "reconnect_exhausted"
	case ErrParse:
		return "parse_error"
	default:
		return "unknown"
	}
}

// classifyNetErr maps a dial/read/write error onto the transport taxonomy.
func classifyNetErr(err error) TransportErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrRefused
	}
	return ErrNetworkUnavailable
}

// classifyStatus maps a non-200 fallback response onto the transport taxonomy.
func classifyStatus(code int) TransportErrorKind {
	switch {
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ErrTimeout
	case code >= 400 && code < 500:
		return ErrRefused
	case code >= 500:
		return ErrNetworkUnavailable
	default:
		return ErrProtocol
	}
}
