package torstream

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// OnionSuffix is the common suffix of all onion addresses.
const OnionSuffix = ".onion"

// onionV3Pattern matches v3 onion addresses: 56 base32 characters
// (lowercase a-z and digits 2-7) plus the suffix.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// onionV2Pattern matches the retired v2 format: 16 base32 characters.
var onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)

// checksumPrefix is defined by the Tor rendezvous specification.
var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether host names a Tor hidden service, i.e. ends
// in ".onion". It does not validate the address beyond the suffix.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), OnionSuffix)
}

// IsValidV3Address reports whether address is a well-formed v3 onion
// address, including checksum verification.
//
// The full check matters because Tor itself rejects addresses with bad
// checksums; validating locally lets a caller report a typo before
// spending a handshake on it.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(
		strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil {
		return false
	}

	// 32 bytes ed25519 public key, 2 bytes checksum, 1 byte version.
	if len(decoded) != 35 {
		return false
	}
	pubkey := decoded[:32]
	checksum := decoded[32:34]
	version := decoded[34]

	if version != 0x03 {
		return false
	}

	// Checksum = first 2 bytes of SHA3-256(".onion checksum" || pubkey || version).
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	hash := sha3.Sum256(data)

	return checksum[0] == hash[0] && checksum[1] == hash[1]
}

// IsV2Address reports whether address matches the v2 onion format. V2
// addresses were retired from the Tor network in October 2021; detecting
// them lets callers explain why such a destination cannot work.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}
