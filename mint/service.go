// Package mint implements the authorization-and-submission pipeline: hash
// the prompt, obtain an authorization proof from the Gateway, build a
// mode-specific transaction, submit it, and wait for the receipt. The three
// submission modes (direct, meta-transaction relay, operator-signed proxy)
// share one pipeline and differ only in how the transaction is built and who
// signs it.
package mint

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	promptmint "github.com/promptmint/promptmint"
	"github.com/promptmint/promptmint/digest"
	"github.com/promptmint/promptmint/ledger"
	"github.com/promptmint/promptmint/reward"
)

// Chain binds one configured chain's ledger handle to its deployed
// contracts.
type Chain struct {
	Ledger            promptmint.Ledger
	TokenContract     string
	ForwarderContract string
}

// Config assembles the service's collaborators. Everything is injected:
// the service owns no global state.
type Config struct {
	Gateway promptmint.GatewayClient
	Chains  map[uint64]Chain

	// TxNonces allocates submission-wallet account nonces.
	TxNonces promptmint.NonceSource

	// ForwarderNonces allocates per-chain forwarder nonces for
	// meta-transaction envelopes.
	ForwarderNonces promptmint.NonceSource

	// MetaTxValidity is how long a prepared forward request stays
	// signable (optional, defaults to 1 hour).
	MetaTxValidity time.Duration

	Log *slog.Logger
}

// Service is the orchestrator. It owns the lifetime of every per-attempt
// object; nothing outlives a single request except the injected nonce
// allocators.
type Service struct {
	gateway        promptmint.GatewayClient
	chains         map[uint64]Chain
	txNonces       promptmint.NonceSource
	fwdNonces      promptmint.NonceSource
	metaTxValidity time.Duration
	log            *slog.Logger
}

// NewService creates the orchestrator.
func NewService(config Config) (*Service, error) {
	if config.Gateway == nil {
		return nil, fmt.Errorf("mint: gateway client is required")
	}
	if len(config.Chains) == 0 {
		return nil, fmt.Errorf("mint: at least one chain is required")
	}
	if config.TxNonces == nil || config.ForwarderNonces == nil {
		return nil, fmt.Errorf("mint: nonce allocators are required")
	}

	validity := config.MetaTxValidity
	if validity <= 0 {
		validity = time.Hour
	}

	log := config.Log
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		gateway:        config.Gateway,
		chains:         config.Chains,
		txNonces:       config.TxNonces,
		fwdNonces:      config.ForwarderNonces,
		metaTxValidity: validity,
		log:            log.With("component", "mint"),
	}, nil
}

// AuthorizeResult is returned by AuthorizeContent so an external wallet can
// submit its own transaction with the proof.
type AuthorizeResult struct {
	Digest        string                         `json:"digest"`
	Proof         *promptmint.AuthorizationProof `json:"authorization"`
	TokenContract string                         `json:"tokenContract"`
	ChainID       uint64                         `json:"chainId"`
}

// AuthorizeContent hashes the content and obtains an authorization proof
// without submitting anything. The caller-held key signs and submits on its
// own; this is the authorize-for-external-signing operation.
func (s *Service) AuthorizeContent(ctx context.Context, chainID uint64, content, beneficiary string, rewards []*big.Int) (*AuthorizeResult, error) {
	chain, err := s.chain(chainID)
	if err != nil {
		return nil, err
	}
	if err := validateInputs(beneficiary, rewards); err != nil {
		return nil, err
	}

	d := digest.Hash(content)
	proof, err := s.authorize(ctx, chainID, d, beneficiary, chain.Ledger.SignerAddress(), rewards)
	if err != nil {
		return nil, err
	}

	return &AuthorizeResult{
		Digest:        d.Hex(),
		Proof:         proof,
		TokenContract: chain.TokenContract,
		ChainID:       chainID,
	}, nil
}

// MintStatus reports whether a digest has already been recorded on-chain.
// Read-only: bypasses hashing and authorization entirely.
func (s *Service) MintStatus(ctx context.Context, chainID uint64, d promptmint.Digest) (bool, error) {
	chain, err := s.chain(chainID)
	if err != nil {
		return false, err
	}
	return s.isMinted(ctx, chain, d)
}

// Balance returns the reward-token balance of an address. Read-only.
func (s *Service) Balance(ctx context.Context, chainID uint64, holder string) (*big.Int, error) {
	chain, err := s.chain(chainID)
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(holder) {
		return nil, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid holder address: %s", holder)
	}
	return chain.Ledger.TokenBalance(ctx, chain.TokenContract, holder)
}

// Quota returns the last quota snapshot observed from the Gateway, or nil.
func (s *Service) Quota() *promptmint.QuotaSnapshot {
	return s.gateway.Quota()
}

// authorize runs the Hashed -> Authorized transition: it builds the
// AuthorizationRequest from the digest (never the content) and asks the
// Gateway for a proof. The proof belongs to this attempt only.
func (s *Service) authorize(ctx context.Context, chainID uint64, d promptmint.Digest, beneficiary, signerContext string, rewards []*big.Int) (*promptmint.AuthorizationProof, error) {
	attemptID := uuid.NewString()
	s.log.Info("mint attempt",
		"attempt", attemptID, "state", promptmint.StateHashed,
		"digest", d.Hex(), "chainId", chainID)

	req := promptmint.AuthorizationRequest{
		Digest:        d.Hex(),
		Beneficiary:   common.HexToAddress(beneficiary).Hex(),
		RewardAmount:  reward.EncodeHex(rewards...),
		SignerContext: signerContext,
		ChainID:       chainID,
		Timestamp:     time.Now().Unix(),
	}

	proof, err := s.gateway.RequestAuthorization(ctx, req)
	if err != nil {
		s.log.Warn("mint attempt failed",
			"attempt", attemptID, "state", promptmint.StateFailed, "err", err)
		return nil, err
	}

	s.log.Info("mint attempt",
		"attempt", attemptID, "state", promptmint.StateAuthorized, "digest", d.Hex())
	return proof, nil
}

// submit runs the Authorized -> Submitted -> Confirmed transitions for a
// built transaction and returns the mined result.
func (s *Service) submit(ctx context.Context, chain Chain, d promptmint.Digest, submitTx func() (string, error), translate func(error) *promptmint.MintError) (*promptmint.MintResult, error) {
	txHash, err := submitTx()
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info("mint attempt",
		"state", promptmint.StateSubmitted, "digest", d.Hex(), "tx", txHash)

	receipt, err := chain.Ledger.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeSubmissionFailed,
			"failed waiting for receipt of %s: %v", txHash, err)
	}
	if receipt.Status != promptmint.TxStatusSuccess {
		return nil, promptmint.NewMintError(promptmint.ErrCodeSubmissionFailed,
			"transaction reverted", map[string]interface{}{
				"transactionHash": txHash,
				"blockNumber":     receipt.BlockNumber,
			})
	}

	s.log.Info("mint attempt",
		"state", promptmint.StateConfirmed, "digest", d.Hex(),
		"tx", txHash, "block", receipt.BlockNumber)

	return &promptmint.MintResult{
		TransactionHash: txHash,
		Digest:          d.Hex(),
		BlockNumber:     receipt.BlockNumber,
	}, nil
}

// isMinted queries the token contract's digest record.
func (s *Service) isMinted(ctx context.Context, chain Chain, d promptmint.Digest) (bool, error) {
	result, err := chain.Ledger.ReadContract(ctx, chain.TokenContract,
		ledger.PromptTokenIsMintedABI, ledger.FunctionIsMinted, [32]byte(d))
	if err != nil {
		return false, fmt.Errorf("failed to query mint status: %w", err)
	}
	minted, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isMinted result type %T", result)
	}
	return minted, nil
}

// chain resolves a configured chain or rejects the input.
func (s *Service) chain(chainID uint64) (Chain, error) {
	chain, ok := s.chains[chainID]
	if !ok {
		return Chain{}, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"unsupported chain: %d", chainID)
	}
	return chain, nil
}

// validateInputs rejects malformed addresses and reward schedules before any
// network call. A negative reward is a validation error here even though the
// encoder itself would clamp it to the no-reward sentinel.
func validateInputs(beneficiary string, rewards []*big.Int) error {
	if !common.IsHexAddress(beneficiary) {
		return promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid beneficiary address: %s", beneficiary)
	}
	if err := reward.Validate(rewards...); err != nil {
		return promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid reward: %v", err)
	}
	return nil
}

// proofBytes decodes the Gateway signature for on-chain submission.
func proofBytes(proof *promptmint.AuthorizationProof) ([]byte, error) {
	raw, err := hexToBytes(proof.Signature)
	if err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeInvalidProof,
			"authorization signature is not valid hex: %v", err)
	}
	return raw, nil
}
