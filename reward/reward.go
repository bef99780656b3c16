// Package reward implements the canonical binary encoding of reward amounts.
// The encoding is part of what the Gateway cryptographically authorizes and
// what the mint contract decodes, so it must be stable: each amount is one
// 32-byte big-endian (ABI uint256) word, and a multi-variant schedule is the
// ordered concatenation of its words. "No reward" encodes to the empty byte
// string.
package reward

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
)

// WordSize is the width of one encoded reward value.
const WordSize = 32

// maxUint256 bounds encodable values to one ABI word.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Encode returns the canonical encoding of an ordered reward schedule.
// A single amount is a one-element schedule. Any negative amount normalizes
// the whole encoding to the empty no-reward sentinel rather than failing;
// callers that want strict behavior must validate before encoding.
func Encode(amounts ...*big.Int) []byte {
	if len(amounts) == 0 {
		return []byte{}
	}
	for _, a := range amounts {
		if a == nil || a.Sign() < 0 {
			return []byte{}
		}
	}
	out := make([]byte, 0, len(amounts)*WordSize)
	for _, a := range amounts {
		out = append(out, math.PaddedBigBytes(a, WordSize)...)
	}
	return out
}

// Decode reverses Encode. The empty sentinel decodes to an empty schedule.
func Decode(data []byte) ([]*big.Int, error) {
	if len(data)%WordSize != 0 {
		return nil, fmt.Errorf("reward encoding length %d is not a multiple of %d", len(data), WordSize)
	}
	amounts := make([]*big.Int, 0, len(data)/WordSize)
	for off := 0; off < len(data); off += WordSize {
		amounts = append(amounts, new(big.Int).SetBytes(data[off:off+WordSize]))
	}
	return amounts, nil
}

// EncodeHex returns the canonical encoding as a 0x-prefixed hex string, the
// form embedded in authorization requests.
func EncodeHex(amounts ...*big.Int) string {
	return "0x" + hex.EncodeToString(Encode(amounts...))
}

// Validate rejects schedules the pipeline must not accept: nil or negative
// amounts, and amounts that do not fit one uint256 word.
func Validate(amounts ...*big.Int) error {
	for i, a := range amounts {
		if a == nil {
			return fmt.Errorf("reward amount %d is nil", i)
		}
		if a.Sign() < 0 {
			return fmt.Errorf("reward amount %d is negative", i)
		}
		if a.Cmp(maxUint256) > 0 {
			return fmt.Errorf("reward amount %d exceeds uint256", i)
		}
	}
	return nil
}
