package main

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/torstream"
	"github.com/nao1215/torstream/internal/testutil"
)

// TestResolveProxyAddress tests the argument > environment > default
// resolution order.
func TestResolveProxyAddress(t *testing.T) {
	// No t.Parallel: subtests mutate the TOR_PROXY environment variable.

	t.Run("argument wins", func(t *testing.T) {
		t.Setenv(torProxyEnv, "127.0.0.1:9150")

		addr, err := resolveProxyAddress("127.0.0.1:19050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if addr.String() != "127.0.0.1:19050" {
			t.Errorf("expected 127.0.0.1:19050, got %s", addr)
		}
	})

	t.Run("environment variable is the fallback", func(t *testing.T) {
		t.Setenv(torProxyEnv, "127.0.0.1:9150")

		addr, err := resolveProxyAddress("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if addr.String() != "127.0.0.1:9150" {
			t.Errorf("expected 127.0.0.1:9150, got %s", addr)
		}
	})

	t.Run("defaults to the torstream default", func(t *testing.T) {
		t.Setenv(torProxyEnv, "")

		addr, err := resolveProxyAddress("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if addr != torstream.DefaultProxyAddress() {
			t.Errorf("expected %s, got %s", torstream.DefaultProxyAddress(), addr)
		}
	})

	t.Run("hostname form is resolved", func(t *testing.T) {
		t.Setenv(torProxyEnv, "")

		addr, err := resolveProxyAddress("localhost:9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if addr.Port() != 9050 {
			t.Errorf("expected port 9050, got %d", addr.Port())
		}
		if !addr.Addr().IsLoopback() {
			t.Errorf("expected loopback address, got %s", addr.Addr())
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		t.Setenv(torProxyEnv, "")

		if _, err := resolveProxyAddress("not an address"); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

// TestCheckCommand runs the full command against a mock SOCKS5 proxy
// backed by a canned HTTP responder.
func TestCheckCommand(t *testing.T) {
	t.Parallel()

	t.Run("both checks pass against a working proxy", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		httpLn, waitHTTP := startCannedHTTPServer(t, ctx, "HTTP/1.1 200 OK\r\nConnection: close\r\n\r\nOK")
		proxyLn, waitProxy := testutil.StartSOCKS5Proxy(t, ctx, httpLn.Addr().String())

		var out, errOut bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{
			proxyLn.Addr().String(),
			"--clear-target", "www.example.com:80",
			"--onion-target", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqd.onion:80",
			"--timeout", "5s",
		})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v (stderr: %s)", err, errOut.String())
		}

		output := out.String()
		if !strings.Contains(output, "clear web check successful") {
			t.Errorf("expected clear web success in output, got %q", output)
		}
		if !strings.Contains(output, "hidden service check successful") {
			t.Errorf("expected hidden service success in output, got %q", output)
		}

		waitProxy()
		waitHTTP()
	})

	t.Run("reports is-Tor-running when nothing listens", func(t *testing.T) {
		t.Parallel()

		// Reserve a port and release it so nothing listens there.
		ln, err := net.Listen("tcp", "127.0.0.1:0") //nolint:noctx // test code
		if err != nil {
			t.Fatal(err)
		}
		addr := ln.Addr().String()
		if err := ln.Close(); err != nil {
			t.Fatal(err)
		}

		var out, errOut bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{addr})

		err = cmd.Execute()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "is Tor running?") {
			t.Errorf("expected 'is Tor running?' diagnostic, got %v", err)
		}
	})

	t.Run("fails on a non-200 response", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		httpLn, waitHTTP := startCannedHTTPServer(t, ctx, "HTTP/1.1 503 Service Unavailable\r\nConnection: close\r\n\r\n")
		proxyLn, waitProxy := testutil.StartSOCKS5Proxy(t, ctx, httpLn.Addr().String())

		var out, errOut bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{proxyLn.Addr().String(), "--timeout", "5s"})

		if err := cmd.Execute(); err == nil {
			t.Fatal("expected error, got nil")
		}

		waitProxy()
		waitHTTP()
	})
}

// startCannedHTTPServer starts a TCP server that reads an HTTP request
// through the blank line and answers with the canned response, for every
// connection, then closes.
func startCannedHTTPServer(t *testing.T, ctx context.Context, response string) (net.Listener, func()) {
	t.Helper()

	return testutil.StartAcceptLoopServer(t, ctx, func(c net.Conn) {
		r := bufio.NewReader(c)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if line == "\r\n" {
				break
			}
		}
		_, _ = c.Write([]byte(response))
	})
}
