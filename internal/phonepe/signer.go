// Package phonepe implements the signing scheme and HTTP client for the
// PhonePe payment gateway (hermes API surface).
package phonepe

import (
	"crypto/sha256"
	"encoding/hex"
)

// API path suffixes mixed into the checksum. The pay and status suffixes are
// distinct on purpose: a signature computed for one endpoint must never
// validate against the other.
const (
	PayPath    = "/pg/v1/pay"
	StatusPath = "/pg/v1/status"
)

const xVerifySeparator = "###"

// Sign computes the hex SHA-256 digest over base64Body + pathSuffix + saltKey,
// concatenated in exactly that order. Deterministic and side-effect free; any
// change to a single byte of the body yields a different digest.
func Sign(base64Body, pathSuffix, saltKey string) string {
	sum := sha256.Sum256([]byte(base64Body + pathSuffix + saltKey))
	return hex.EncodeToString(sum[:])
}

// XVerify assembles the X-VERIFY header value the gateway expects:
// the digest followed by "###" and the salt key index.
func XVerify(digest, saltIndex string) string {
	return digest + xVerifySeparator + saltIndex
}
