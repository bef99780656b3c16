package mint

import (
	"encoding/hex"
	"strings"
)

// hexToBytes converts a hex string (with or without "0x" prefix) to bytes.
func hexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	return hex.DecodeString(s)
}

// bytesToHex converts bytes to a 0x-prefixed hex string.
func bytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
