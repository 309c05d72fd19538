package torstream

import (
	"errors"
	"io"
	"net"
	"net/netip"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultProxyPort is the Tor daemon's standard SocksPort.
const DefaultProxyPort = 9050

// defaultProxyAddress is computed once at first use and never mutated,
// so concurrent readers need no synchronization.
var defaultProxyAddress = sync.OnceValue(func() netip.AddrPort {
	return netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, 1}), DefaultProxyPort)
})

// DefaultProxyAddress returns the default Tor SOCKS5 proxy address,
// 127.0.0.1:9050. The proxy address is configured in the SocksPort line
// of the Tor configuration (/etc/tor/torrc).
func DefaultProxyAddress() netip.AddrPort {
	return defaultProxyAddress()
}

// TorStream is a stream proxied over the Tor network. Once connected it
// behaves exactly like the net.Conn it wraps: every method is pure
// delegation with no buffering, framing, or transformation, so error and
// partial-transfer semantics are those of the underlying transport.
//
// A TorStream always wraps a socket that has completed the SOCKS5
// handshake; there is no observable "connecting" state. The stream owns
// exactly one socket and is not safe for unsynchronized concurrent use,
// same as a raw net.Conn.
type TorStream struct {
	conn net.Conn
}

// TorStream adds nothing to the net.Conn contract.
var _ net.Conn = (*TorStream)(nil)

// Connect opens a stream to the destination through the Tor proxy at the
// default address (see DefaultProxyAddress). It is shorthand for
// ConnectWithAddress(DefaultProxyAddress(), dest).
func Connect(dest Destination) (*TorStream, error) {
	return ConnectWithAddress(DefaultProxyAddress(), dest)
}

// ConnectWithAddress opens a stream to the destination through the Tor
// SOCKS5 proxy at proxyAddr.
//
// The handshake (TCP dial, no-auth negotiation, CONNECT request, reply
// validation) is delegated to the SOCKS5 engine in golang.org/x/net/proxy.
// Named hosts are sent in the SOCKS5 domain-name form so that the proxy
// resolves them; .onion names therefore never touch the local resolver.
//
// On failure the returned error is a *Error whose Kind distinguishes a
// refused proxy connection ("Tor is not running"), transport faults,
// protocol-level rejections, and destination encoding problems. No
// partially connected stream is ever returned, and nothing is retried.
func ConnectWithAddress(proxyAddr netip.AddrPort, dest Destination) (*TorStream, error) {
	// Validate the destination before touching the network.
	target, err := dest.targetAddr()
	if err != nil {
		return nil, err
	}

	if !proxyAddr.Addr().IsValid() || proxyAddr.Port() == 0 {
		return nil, &Error{Kind: KindEncoding, Dest: target, Err: ErrInvalidProxyAddress}
	}

	// Auth is nil: the Tor SocksPort does not require authentication.
	dialer, err := proxy.SOCKS5("tcp", proxyAddr.String(), nil, proxy.Direct)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Dest: target, Err: err}
	}

	conn, err := dialer.Dial("tcp", target)
	if err != nil {
		return nil, &Error{Kind: classify(err), Dest: target, Err: err}
	}

	return &TorStream{conn: conn}, nil
}

// classify maps a SOCKS5 engine failure to an error Kind.
//
// The engine wraps every failure in a *net.OpError. Failures that
// originate in the OS or the transport carry a syscall or timeout error
// inside; a SOCKS5 reply rejection carries only the engine's own message,
// which is what is left after the transport causes are ruled out.
func classify(err error) Kind {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransport
	}

	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return KindTransport
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return KindTransport
	}

	return KindProtocol
}

// Read reads from the underlying socket.
func (s *TorStream) Read(b []byte) (int, error) {
	return s.conn.Read(b)
}

// Write writes to the underlying socket.
func (s *TorStream) Write(b []byte) (int, error) {
	return s.conn.Write(b)
}

// Close closes the underlying socket.
func (s *TorStream) Close() error {
	return s.conn.Close()
}

// LocalAddr returns the local address of the underlying socket. This is
// the local end of the connection to the proxy, not to the destination.
func (s *TorStream) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// RemoteAddr returns the remote address of the underlying socket. This
// is the proxy's address; the destination is only known to the proxy.
func (s *TorStream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// SetDeadline sets the read and write deadlines on the underlying socket.
func (s *TorStream) SetDeadline(t time.Time) error {
	return s.conn.SetDeadline(t)
}

// SetReadDeadline sets the read deadline on the underlying socket.
func (s *TorStream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline on the underlying socket.
func (s *TorStream) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

// NetConn returns the underlying socket without transferring ownership.
// Use it to reach socket-specific operations; the stream remains valid.
func (s *TorStream) NetConn() net.Conn {
	return s.conn
}

// Unwrap consumes the stream and returns ownership of the underlying
// socket. The stream must not be used afterwards; the socket continues
// to carry the tunneled connection and the caller is responsible for
// closing it.
func (s *TorStream) Unwrap() net.Conn {
	conn := s.conn
	s.conn = nil
	return conn
}
