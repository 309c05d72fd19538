package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Default check targets. The onion target is DuckDuckGo's well-known v3
// hidden service; the original wikileaks-style v2 targets stopped working
// when v2 addresses were retired in 2021.
const (
	defaultClearTarget = "www.example.com:80"
	defaultOnionTarget = "duckduckgogg42xjoc72x3sjasowoarfbgcmvfimaftt6twagswzczad.onion:80"

	// defaultCheckTimeout bounds each fetch. Hidden services routinely
	// take tens of seconds to answer on a cold circuit.
	defaultCheckTimeout = 60 * time.Second
)

// NewRootCmd creates the root command for torcheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "torcheck [proxy-address]",
		Short: "Check connectivity through a local Tor SOCKS5 proxy",
		Long: `torcheck verifies that a Tor SOCKS5 proxy is reachable and working.

It probes the proxy address for a SOCKS5 handshake, then fetches one
clear-web page and one hidden-service page through the tunnel and
reports pass/fail for each.

The proxy address is taken from the first argument, then from the
TOR_PROXY environment variable, and defaults to 127.0.0.1:9050 (the
SocksPort line in /etc/tor/torrc).

Examples:
  # Check the default proxy address
  torcheck

  # Check a Tor Browser proxy
  torcheck 127.0.0.1:9150

  # Same, via environment variable
  TOR_PROXY=127.0.0.1:9150 torcheck`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runCheckCmd,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.Flags().String("clear-target", defaultClearTarget,
		"host:port fetched for the clear-web check")
	cmd.Flags().String("onion-target", defaultOnionTarget,
		"host:port fetched for the hidden-service check")
	cmd.Flags().DurationP("timeout", "t", defaultCheckTimeout,
		"Timeout for each check")

	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
