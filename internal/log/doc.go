// Package log provides slog-based logging for the torcheck CLI with
// automatic masking of onion addresses.
//
// Hidden-service names identify who a user talks to, so they are treated
// like any other credential: diagnostic logs are often pasted into bug
// reports and chat, and an onion address in a stray log line can
// deanonymize a contact long after the fact. The PrivacyHandler masks
// v2 and v3 onion hostnames in log attributes before they reach the
// underlying handler, even in verbose mode.
//
// The torstream library itself never logs; this package exists for the
// CLI layer only.
package log
