package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/torstream"
	"github.com/nao1215/torstream/internal/log"
)

// torProxyEnv is the environment variable consulted for the proxy
// address when no positional argument is given.
const torProxyEnv = "TOR_PROXY"

// runCheckCmd executes the connectivity checks.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose = false
	}
	logger := log.NewLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(logger)

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	proxyAddr, err := resolveProxyAddress(arg)
	if err != nil {
		return err
	}

	clearTarget, err := cmd.Flags().GetString("clear-target")
	if err != nil {
		return err
	}
	onionTarget, err := cmd.Flags().GetString("onion-target")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Tor proxy address %s\n", proxyAddr)

	// Fail fast with a precise diagnosis when the proxy itself is the
	// problem, before spending circuit time on the fetches.
	switch status := torstream.CheckProxy(cmd.Context(), proxyAddr); status {
	case torstream.ProxyStatusOK:
		logger.Debug("proxy probe succeeded", "proxy", proxyAddr.String())
	case torstream.ProxyStatusCannotConnect:
		return fmt.Errorf("%w at %s; is Tor running?", status.Err(), proxyAddr)
	default:
		return fmt.Errorf("proxy probe failed: %w", status.Err())
	}

	// The two checks are independent; run them on separate circuits and
	// report every failure rather than stopping at the first.
	var g errgroup.Group
	g.Go(func() error {
		return runHTTPCheck(cmd, logger, proxyAddr, clearTarget, "clear web", timeout)
	})
	g.Go(func() error {
		return runHTTPCheck(cmd, logger, proxyAddr, onionTarget, "hidden service", timeout)
	})
	return g.Wait()
}

// resolveProxyAddress picks the proxy address from the positional
// argument, the TOR_PROXY environment variable, or the package default,
// in that order. Hostname forms such as "localhost:9050" are resolved
// locally; that is fine because this is the proxy's own address, never a
// destination.
func resolveProxyAddress(arg string) (netip.AddrPort, error) {
	s := arg
	if s == "" {
		s = os.Getenv(torProxyEnv)
	}
	if s == "" {
		return torstream.DefaultProxyAddress(), nil
	}

	tcpAddr, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid proxy address %q: %w", s, err)
	}
	ap := tcpAddr.AddrPort()
	// Unmap is a no-op on Go versions where AddrPort already returns an
	// unmapped address; older versions return the IPv4-mapped IPv6 form.
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port()), nil
}

// runHTTPCheck fetches "/" from target through the proxy and verifies an
// HTTP 200 status line. The label names the check in output and errors.
func runHTTPCheck(cmd *cobra.Command, logger *slog.Logger, proxyAddr netip.AddrPort, target, label string, timeout time.Duration) error {
	dest, err := torstream.ParseDestination(target)
	if err != nil {
		return fmt.Errorf("%s check: %w", label, err)
	}

	host, _, err := net.SplitHostPort(target)
	if err != nil {
		return fmt.Errorf("%s check: %w", label, err)
	}
	warnOnionTarget(logger, host)

	logger.Debug("connecting", "check", label, "target", target)

	stream, err := torstream.ConnectWithAddress(proxyAddr, dest)
	if err != nil {
		if errors.Is(err, &torstream.Error{Kind: torstream.KindConnectionRefused}) {
			return fmt.Errorf("%s check: connection refused; is Tor running?", label)
		}
		return fmt.Errorf("%s check: %w", label, err)
	}
	defer stream.Close()

	if err := stream.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("%s check: %w", label, err)
	}

	request := fmt.Sprintf("GET / HTTP/1.1\r\nConnection: Close\r\nHost: %s\r\n\r\n", host)
	if _, err := stream.Write([]byte(request)); err != nil {
		return fmt.Errorf("%s check: send request: %w", label, err)
	}

	// Connection: Close makes the server end the response with EOF.
	response, err := io.ReadAll(stream)
	if err != nil {
		return fmt.Errorf("%s check: read response: %w", label, err)
	}

	statusLine, _, _ := strings.Cut(string(response), "\r\n")
	if !strings.HasPrefix(statusLine, "HTTP/1.1 200") && !strings.HasPrefix(statusLine, "HTTP/1.0 200") {
		return fmt.Errorf("%s check: unexpected response %q (%d bytes total)", label, statusLine, len(response))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s check successful\n", label)
	return nil
}

// warnOnionTarget logs a warning when an onion target cannot work (v2)
// or does not pass v3 checksum validation. The check still runs; Tor has
// the final word on what resolves.
func warnOnionTarget(logger *slog.Logger, host string) {
	if !torstream.IsOnionHost(host) {
		return
	}
	switch {
	case torstream.IsV2Address(host):
		logger.Warn("v2 onion addresses were retired in 2021 and cannot be reached", "target", host)
	case !torstream.IsValidV3Address(host):
		logger.Warn("target does not look like a valid v3 onion address", "target", host)
	}
}
