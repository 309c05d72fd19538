package torstream

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// maxHostLength is the longest hostname encodable in a SOCKS5 request.
// The domain-name address form carries a single length octet.
const maxHostLength = 255

// Destination identifies the endpoint the proxy should connect to.
//
// The set of implementations is closed: HostPort for named hosts that the
// proxy resolves (this is what makes .onion services reachable, since an
// onion name must never hit the local resolver), and AddrPort for IP
// literals. Both validate eagerly, so an unencodable destination fails
// before any network I/O.
type Destination interface {
	// targetAddr returns the "host:port" form handed to the SOCKS5
	// engine after validating that the destination fits the SOCKS5
	// wire format.
	targetAddr() (string, error)

	// String returns the destination in "host:port" form without
	// validation, for diagnostics.
	fmt.Stringer
}

// hostPort is the domain-name destination variant.
type hostPort struct {
	host string
	port uint16
}

// HostPort returns a Destination for a named host and port. The host is
// passed to the proxy unresolved, so it may be a DNS name, an IP literal,
// or a .onion name.
func HostPort(host string, port uint16) Destination {
	return hostPort{host: host, port: port}
}

func (d hostPort) targetAddr() (string, error) {
	if d.host == "" {
		return "", &Error{Kind: KindEncoding, Err: ErrEmptyHost}
	}
	if len(d.host) > maxHostLength {
		return "", &Error{Kind: KindEncoding, Dest: d.String(), Err: ErrHostTooLong}
	}
	if d.port == 0 {
		return "", &Error{Kind: KindEncoding, Dest: d.String(), Err: ErrInvalidPort}
	}
	return d.String(), nil
}

// String returns the destination in "host:port" form.
func (d hostPort) String() string {
	return net.JoinHostPort(d.host, strconv.Itoa(int(d.port)))
}

// addrPort is the IP-literal destination variant.
type addrPort struct {
	ap netip.AddrPort
}

// AddrPort returns a Destination for an IP address and port.
func AddrPort(ap netip.AddrPort) Destination {
	return addrPort{ap: ap}
}

func (d addrPort) targetAddr() (string, error) {
	if !d.ap.Addr().IsValid() {
		return "", &Error{Kind: KindEncoding, Err: ErrEmptyHost}
	}
	if d.ap.Port() == 0 {
		return "", &Error{Kind: KindEncoding, Dest: d.String(), Err: ErrInvalidPort}
	}
	return d.String(), nil
}

// String returns the destination in "host:port" form.
func (d addrPort) String() string {
	return d.ap.String()
}

// ParseDestination parses a destination in "host:port" form. IP literals
// (including bracketed IPv6) produce the IP variant; anything else
// produces the named-host variant, leaving resolution to the proxy.
func ParseDestination(s string) (Destination, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return nil, &Error{Kind: KindEncoding, Dest: s, Err: err}
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return nil, &Error{Kind: KindEncoding, Dest: s, Err: ErrInvalidPort}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return AddrPort(netip.AddrPortFrom(addr, uint16(port))), nil
	}

	dest := HostPort(host, uint16(port))
	// Surface length violations at parse time rather than connect time.
	if _, err := dest.targetAddr(); err != nil {
		return nil, err
	}
	return dest, nil
}
