package promptmint

import (
	"encoding/hex"
	"math/big"
	"time"
)

// Digest is the keccak-256 hash of prompt content. It is the only
// prompt-derived value that ever leaves the process: the Gateway, the
// ledger's status queries, and all logs see the digest, never the content.
type Digest [32]byte

// Hex returns the digest as a 0x-prefixed hex string.
func (d Digest) Hex() string {
	return "0x" + hex.EncodeToString(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}

// ParseDigest parses a 0x-prefixed 32-byte hex string into a Digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, Errorf(ErrCodeInputValidation, "invalid digest hex: %v", err)
	}
	if len(raw) != 32 {
		return d, Errorf(ErrCodeInputValidation, "digest must be 32 bytes, got %d", len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// AuthorizationRequest is the payload sent to the Gateway. It carries the
// content digest only; the raw prompt must never appear in this struct or
// in any log derived from it.
type AuthorizationRequest struct {
	Digest        string `json:"digest"`        // 0x-prefixed hex of the content digest
	Beneficiary   string `json:"beneficiary"`   // reward recipient address (hex)
	RewardAmount  string `json:"rewardAmount"`  // canonical reward encoding (hex)
	SignerContext string `json:"signerContext"` // address the proof is bound to
	ChainID       uint64 `json:"chainId"`
	Timestamp     int64  `json:"timestamp"` // unix seconds at request build time
}

// AuthorizationProof is the signature proof issued by the Gateway. It is
// owned by the mint attempt that requested it and used at most once; replay
// after expiry or after the transaction lands is rejected on-chain.
type AuthorizationProof struct {
	Signature string `json:"signature"`        // hex signature bytes
	Nonce     string `json:"nonce,omitempty"`  // proof-specific nonce, if issued
	Expiry    int64  `json:"expiry,omitempty"` // unix seconds, if issued
}

// QuotaSnapshot is the Gateway's view of the caller's remaining quota,
// returned opportunistically alongside successful authorizations.
type QuotaSnapshot struct {
	Used      int64     `json:"used"`
	Limit     int64     `json:"limit"`
	ResetsAt  time.Time `json:"resetsAt"`
	Plan      string    `json:"plan,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Receipt is the result of a mined transaction.
type Receipt struct {
	Status      uint64 `json:"status"`
	BlockNumber uint64 `json:"blockNumber"`
	TxHash      string `json:"transactionHash"`
	GasUsed     uint64 `json:"gasUsed"`
}

// TxStatusSuccess is the receipt status of a successful transaction.
const TxStatusSuccess = uint64(1)

// MintResult is returned to the caller after a confirmed submission.
type MintResult struct {
	TransactionHash string `json:"transactionHash"`
	Digest          string `json:"digest"`
	BlockNumber     uint64 `json:"blockNumber"`
}

// ForwardRequest is the ERC-2771 forwarding envelope executed by the
// on-chain forwarder on behalf of the original signer.
type ForwardRequest struct {
	From     string `json:"from"`     // original signer (hex address)
	To       string `json:"to"`       // target contract (hex address)
	Value    string `json:"value"`    // wei, decimal string
	Gas      string `json:"gas"`      // gas limit for the inner call, decimal string
	Nonce    string `json:"nonce"`    // per-chain forwarder nonce, decimal string
	Deadline string `json:"deadline"` // unix seconds, decimal string
	Data     string `json:"data"`     // hex-encoded inner calldata
}

// TypedDataDomain is the EIP-712 domain separator.
type TypedDataDomain struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	ChainID           *big.Int `json:"chainId"`
	VerifyingContract string   `json:"verifyingContract"`
}

// TypedDataField is one field of an EIP-712 struct type.
type TypedDataField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SigningPayload is the EIP-712 domain/types/message triple handed to an
// external signer during meta-transaction Phase A. No submission happens
// until the signature over exactly this payload comes back in Phase B.
type SigningPayload struct {
	Domain      TypedDataDomain             `json:"domain"`
	Types       map[string][]TypedDataField `json:"types"`
	PrimaryType string                      `json:"primaryType"`
	Message     map[string]interface{}      `json:"message"`
	Request     ForwardRequest              `json:"request"`
}

// MintState is the shared submission-mode state machine. Every attempt moves
// Hashed -> Authorized -> Submitted -> Confirmed; any failed transition is
// terminal at Failed.
type MintState string

const (
	StateHashed     MintState = "hashed"
	StateAuthorized MintState = "authorized"
	StateSubmitted  MintState = "submitted"
	StateConfirmed  MintState = "confirmed"
	StateFailed     MintState = "failed"
)
