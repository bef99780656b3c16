package mint

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	promptmint "github.com/promptmint/promptmint"
	"github.com/promptmint/promptmint/digest"
	"github.com/promptmint/promptmint/ledger"
	"github.com/promptmint/promptmint/reward"
)

// MintDirect runs the full pipeline with the service wallet as transaction
// signer: hash, authorize, allocate an account nonce, submit mintPrompt, and
// wait for confirmation.
func (s *Service) MintDirect(ctx context.Context, chainID uint64, content, beneficiary string, rewards []*big.Int) (*promptmint.MintResult, error) {
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

	authorization, err := proofBytes(proof)
	if err != nil {
		return nil, err
	}

	nonce, err := s.txNonces.Allocate(chainID)
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, chain, d, func() (string, error) {
		return chain.Ledger.WriteContract(ctx,
			promptmint.TxOptions{Nonce: nonce},
			chain.TokenContract,
			ledger.PromptTokenMintABI,
			ledger.FunctionMintPrompt,
			content,
			common.HexToAddress(beneficiary),
			reward.Encode(rewards...),
			authorization,
		)
	}, translateSubmissionError)
}
