// Package digest computes the content digest shared with the Gateway and
// recorded on-chain. The digest is keccak-256 over the UTF-8 bytes of the
// prompt, with no salt, so the same content always produces the same digest
// across processes and restarts and can be matched against a later on-chain
// record.
package digest

import (
	"github.com/ethereum/go-ethereum/crypto"

	promptmint "github.com/promptmint/promptmint"
)

// Hash returns the keccak-256 digest of the content string. Total over any
// input, including the empty string.
func Hash(content string) promptmint.Digest {
	var d promptmint.Digest
	copy(d[:], crypto.Keccak256([]byte(content)))
	return d
}
