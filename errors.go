package torstream

import (
	"errors"
	"fmt"
)

// Destination encoding errors.
// These are returned (wrapped in an *Error with KindEncoding) before any
// network I/O happens, so a caller never pays a round trip for a
// destination that could not be put on the wire in the first place.
var (
	// ErrEmptyHost is returned when the destination host is empty.
	ErrEmptyHost = errors.New("destination host is empty")

	// ErrHostTooLong is returned when the destination host exceeds 255
	// bytes. The SOCKS5 domain-name address form carries a single length
	// octet (RFC 1928 section 4), so longer names cannot be encoded.
	ErrHostTooLong = errors.New("destination host exceeds 255 bytes")

	// ErrInvalidPort is returned when the destination port is zero or
	// otherwise outside the valid TCP port range.
	ErrInvalidPort = errors.New("destination port is invalid")

	// ErrInvalidProxyAddress is returned when the proxy address is not a
	// valid IP address and port pair.
	ErrInvalidProxyAddress = errors.New("proxy address is invalid")
)

// Kind classifies a connection failure so callers can react to the
// failure mode rather than parsing error strings.
//
// Design decision: We use a Kind field on a single error type rather than
// one sentinel per failure because connect errors always carry an
// underlying cause that must be preserved; errors.Is against an *Error
// with the wanted Kind gives programmatic matching without losing it.
type Kind int

const (
	// KindUnknown is the zero value. It is never produced by this package.
	KindUnknown Kind = iota

	// KindConnectionRefused means no process accepted the TCP connection
	// at the proxy address. Callers should interpret this as "Tor is not
	// running" and must not retry automatically.
	KindConnectionRefused

	// KindTransport means a generic network failure (reset, timeout,
	// unreachable host) interrupted the handshake.
	KindTransport

	// KindProtocol means the proxy was reachable but replied with a
	// non-success SOCKS5 status or malformed handshake data. The engine's
	// original error is available via Unwrap.
	KindProtocol

	// KindEncoding means the destination could not be encoded into the
	// SOCKS5 wire format. No network I/O was performed.
	KindEncoding
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindConnectionRefused:
		return "connection refused"
	case KindTransport:
		return "transport failure"
	case KindProtocol:
		return "protocol failure"
	case KindEncoding:
		return "encoding failure"
	default:
		return "unknown"
	}
}

// Error is the error type returned by Connect and ConnectWithAddress.
// It wraps the underlying cause and classifies it with a Kind.
type Error struct {
	// Kind classifies the failure. See the Kind constants.
	Kind Kind

	// Dest is the destination in "host:port" form, when it was known at
	// the point of failure.
	Dest string

	// Err is the underlying cause from the SOCKS5 engine, the network
	// stack, or destination validation.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Dest != "" {
		return fmt.Sprintf("torstream: connect %s: %s: %v", e.Dest, e.Kind, e.Err)
	}
	return fmt.Sprintf("torstream: %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error. A target *Error matches
// when its Kind is equal, so callers can write:
//
//	if errors.Is(err, &torstream.Error{Kind: torstream.KindConnectionRefused}) {
//		fmt.Fprintln(os.Stderr, "connection refused; is Tor running?")
//	}
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && e.Kind == other.Kind
}
