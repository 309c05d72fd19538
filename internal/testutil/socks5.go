package testutil

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/txthinking/socks5"
)

// StartSOCKS5Proxy starts a SOCKS5 proxy on a loopback port that
// performs a no-auth CONNECT handshake with each client and then pipes
// bytes to backendAddr. The destination requested by the client is
// accepted but otherwise ignored, which lets tests CONNECT to names that
// resolve nowhere (onion-style names, synthetic test hosts). The
// returned wait function closes the listener and blocks until all
// connections are done.
func StartSOCKS5Proxy(t *testing.T, ctx context.Context, backendAddr string) (net.Listener, func()) {
	t.Helper()

	return StartAcceptLoopServer(t, ctx, func(c net.Conn) {
		if _, ok := handshakeSOCKS5(c); !ok {
			return
		}

		d := net.Dialer{}
		dst, err := d.DialContext(ctx, "tcp", backendAddr)
		if err != nil {
			_, _ = socks5.NewReply(socks5.RepHostUnreachable, socks5.ATYPIPv4,
				[]byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(c)
			return
		}
		defer dst.Close()

		a, addr, port, err := socks5.ParseAddress(dst.LocalAddr().String())
		if err != nil {
			return
		}
		if a == socks5.ATYPDomain {
			addr = addr[1:]
		}
		if _, err := socks5.NewReply(socks5.RepSuccess, a, addr, port).WriteTo(c); err != nil {
			return
		}

		go func() {
			_, _ = io.Copy(dst, c)
			_ = dst.Close()
		}()
		_, _ = io.Copy(c, dst)
	})
}

// StartFailingSOCKS5Proxy starts a single-connection SOCKS5 proxy that
// completes the no-auth negotiation and then rejects the CONNECT request
// with the given reply code (e.g. socks5.RepConnectionRefused).
func StartFailingSOCKS5Proxy(t *testing.T, ctx context.Context, rep byte) (net.Listener, func()) {
	t.Helper()

	return StartSingleAcceptServer(t, ctx, func(c net.Conn) {
		if _, ok := handshakeSOCKS5(c); !ok {
			return
		}
		_, _ = socks5.NewReply(rep, socks5.ATYPIPv4,
			[]byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(c)
	})
}

// handshakeSOCKS5 runs the server side of the no-auth negotiation and
// reads the CONNECT request. It returns false when the client did not
// follow the protocol.
func handshakeSOCKS5(c net.Conn) (*socks5.Request, bool) {
	if _, err := socks5.NewNegotiationRequestFrom(c); err != nil {
		return nil, false
	}
	if _, err := socks5.NewNegotiationReply(socks5.MethodNone).WriteTo(c); err != nil {
		return nil, false
	}

	req, err := socks5.NewRequestFrom(c)
	if err != nil {
		return nil, false
	}
	if req.Cmd != socks5.CmdConnect {
		_, _ = socks5.NewReply(socks5.RepCommandNotSupported, socks5.ATYPIPv4,
			[]byte{0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00}).WriteTo(c)
		return nil, false
	}
	return req, true
}
