package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex SHA-256 of data, used to identify a loaded rule table.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
