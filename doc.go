// Package torstream proxies TCP connections over the Tor network.
//
// The package is a thin wrapper around the SOCKS5 client in
// golang.org/x/net/proxy. It adds a process-wide default for the Tor
// daemon's SocksPort (127.0.0.1:9050), a small destination model that
// guarantees hostnames are resolved by the proxy rather than locally
// (required for .onion services), and a stream facade with exact
// net.Conn semantics.
//
// # Usage
//
// If a Tor daemon is listening on the default address, connect with:
//
//	stream, err := torstream.Connect(torstream.HostPort("www.example.com", 80))
//	if err != nil {
//		// err is a *torstream.Error; inspect err.Kind to tell
//		// "Tor is not running" apart from protocol failures.
//	}
//	defer stream.Close()
//
//	// The stream is used like a normal TCP connection.
//	_, err = stream.Write([]byte("GET / HTTP/1.1\r\nConnection: Close\r\nHost: www.example.com\r\n\r\n"))
//
// A non-default proxy address is passed explicitly:
//
//	stream, err := torstream.ConnectWithAddress(addr, torstream.HostPort("example.onion", 80))
//
// Callers that need the raw socket can borrow it with NetConn (for
// deadlines and socket options) or take ownership with Unwrap.
//
// # What this package does not do
//
// No connection pooling, no retry, no proxy authentication, and no
// ControlPort integration (circuit rotation, hidden service creation).
// Each stream corresponds to exactly one SOCKS5 CONNECT handshake and
// one socket. Tor itself is configured outside this package, typically
// via the SocksPort line in /etc/tor/torrc.
package torstream
