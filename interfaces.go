package promptmint

import (
	"context"
	"math/big"
)

// TxOptions carries the explicit transaction parameters the pipeline
// controls. Nonce always comes from the nonce allocator, never from the
// ledger client's own bookkeeping, so that concurrent submissions cannot
// collide. GasLimit zero means estimate.
type TxOptions struct {
	Nonce    uint64
	GasLimit uint64
}

// Ledger is the opaque submit-transaction / wait-for-receipt capability the
// pipeline consumes. One instance per configured chain. Implementations wrap
// an RPC client; the pipeline never sees the transport.
type Ledger interface {
	// ChainID returns the chain this ledger instance talks to.
	ChainID() *big.Int

	// SignerAddress returns the submitting wallet's address.
	SignerAddress() string

	// PendingNonce returns the account's next transaction sequence number,
	// including pending transactions. Used to seed the nonce allocator.
	PendingNonce(ctx context.Context, address string) (uint64, error)

	// ReadContract executes a read-only contract call.
	ReadContract(ctx context.Context, address string, abiJSON []byte, functionName string, args ...interface{}) (interface{}, error)

	// WriteContract signs and submits a contract transaction with the given
	// options and returns the transaction hash.
	WriteContract(ctx context.Context, opts TxOptions, address string, abiJSON []byte, functionName string, args ...interface{}) (string, error)

	// WaitForReceipt blocks until the transaction is mined or ctx expires.
	WaitForReceipt(ctx context.Context, txHash string) (*Receipt, error)

	// TokenBalance returns the reward-token balance of an address.
	TokenBalance(ctx context.Context, tokenAddress, holder string) (*big.Int, error)
}

// GatewayClient requests authorization proofs from the external Gateway.
type GatewayClient interface {
	// RequestAuthorization submits a digest plus metadata and returns a
	// signature proof. Transient failures are retried internally with
	// backoff; fatal classifications return immediately.
	RequestAuthorization(ctx context.Context, req AuthorizationRequest) (*AuthorizationProof, error)

	// Quota returns the most recent quota snapshot seen from the Gateway,
	// or nil if none has been observed.
	Quota() *QuotaSnapshot
}

// NonceSource hands out exclusive per-chain sequence numbers. Allocate and
// the backing increment are one atomic unit; two concurrent calls for the
// same chain never return the same value.
type NonceSource interface {
	Allocate(chainID uint64) (uint64, error)
	Peek(chainID uint64) (uint64, bool)
}
