// Package main provides the torcheck CLI.
//
// torcheck verifies that a local Tor SOCKS5 proxy is reachable and
// working by fetching one clear-web page and one hidden-service page
// through it.
//
// Usage:
//
//	torcheck
//	torcheck 127.0.0.1:9150
//	TOR_PROXY=127.0.0.1:9150 torcheck
//
// See --help for all available options.
package main

// main is the entry point for torcheck.
func main() {
	Execute()
}
