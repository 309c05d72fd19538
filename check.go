package torstream

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"time"
)

// Proxy check errors, returned by ProxyStatus.Err.
var (
	// ErrProxyNotSOCKS5 is returned when something answered at the proxy
	// address but did not speak the SOCKS5 protocol, for example an HTTP
	// proxy or an unrelated service on port 9050.
	ErrProxyNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection could be
	// established to the proxy address. Tor is probably not running.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrProxyTimeout is returned when the proxy did not answer the probe
	// in time.
	ErrProxyTimeout = errors.New("timeout probing proxy")
)

// checkProxyTimeout bounds the whole probe. The probe never leaves the
// local machine, so a short deadline is enough.
const checkProxyTimeout = 2 * time.Second

// SOCKS5 wire constants used by the probe.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
	socks5CmdConnect   = 0x01
	socks5AddrDomain   = 0x03
)

// probeOnion is a synthetic hidden-service name used by the probe. The
// connection is expected to fail; the probe only verifies that the proxy
// processes a SOCKS5 CONNECT for a domain-form address, which a fake
// proxy cannot mimic by accident.
const probeOnion = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.onion"

// ProxyStatus is the result of probing a proxy address with CheckProxy.
type ProxyStatus int

const (
	// ProxyStatusOK means the address answered with a well-formed SOCKS5
	// no-auth handshake and processed a CONNECT request.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusNotSOCKS5 means something answered but it either does
	// not speak SOCKS5 or demands authentication, which Tor's SocksPort
	// does not.
	ProxyStatusNotSOCKS5

	// ProxyStatusCannotConnect means the TCP connection to the address
	// failed outright.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout means the probe deadline expired.
	ProxyStatusTimeout
)

// String returns a human-readable description of the status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusNotSOCKS5:
		return "not a SOCKS5 proxy"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Err returns the error corresponding to the status, or nil for
// ProxyStatusOK.
func (s ProxyStatus) Err() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusNotSOCKS5:
		return ErrProxyNotSOCKS5
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}

// CheckProxy probes the given address and reports whether a SOCKS5 proxy
// is listening there. It performs the version/no-auth negotiation and a
// CONNECT request for a synthetic .onion name; any well-formed reply,
// success or failure, proves the peer is a working SOCKS5 proxy.
//
// CheckProxy is a diagnostic for "is Tor running?" messages. Connect and
// ConnectWithAddress do not call it; they report failures through their
// own error kinds.
func CheckProxy(ctx context.Context, proxyAddr netip.AddrPort) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", proxyAddr.String())
	if err != nil {
		if ctx.Err() != nil {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Version negotiation: offer the no-auth method only.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	method := make([]byte, 2)
	if _, err := io.ReadFull(conn, method); err != nil {
		if isTimeout(err) {
			return ProxyStatusTimeout
		}
		return ProxyStatusNotSOCKS5
	}
	if method[0] != socks5Version {
		return ProxyStatusNotSOCKS5
	}
	if method[1] == socks5AuthNoAccept || method[1] != socks5AuthNone {
		return ProxyStatusNotSOCKS5
	}

	// CONNECT for the synthetic onion name. Tor answers a failure reply
	// (host unreachable or general failure) for a nonexistent service,
	// which is all the probe needs.
	req := []byte{socks5Version, socks5CmdConnect, 0x00, socks5AddrDomain, byte(len(probeOnion))}
	req = append(req, probeOnion...)
	req = append(req, 0x00, 0x50) // port 80
	if _, err := conn.Write(req); err != nil {
		return ProxyStatusCannotConnect
	}

	reply := make([]byte, 4)
	if _, err := io.ReadFull(conn, reply); err != nil {
		if isTimeout(err) {
			return ProxyStatusTimeout
		}
		return ProxyStatusNotSOCKS5
	}
	if reply[0] != socks5Version {
		return ProxyStatusNotSOCKS5
	}

	return ProxyStatusOK
}

// isTimeout reports whether err is a deadline expiry.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
