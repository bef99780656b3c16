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

// MintOperator mints on behalf of a beneficiary who holds no key at all: the
// operator wallet signs and pays for the transaction while the reward goes to
// the beneficiary. Unlike the direct mode, the digest is checked on-chain
// before authorization so a duplicate costs neither a Gateway call nor gas.
func (s *Service) MintOperator(ctx context.Context, chainID uint64, content, beneficiary string, rewards []*big.Int) (*promptmint.MintResult, error) {
	chain, err := s.chain(chainID)
	if err != nil {
		return nil, err
	}
	if err := validateInputs(beneficiary, rewards); err != nil {
		return nil, err
	}

	d := digest.Hash(content)

	minted, err := s.isMinted(ctx, chain, d)
	if err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeSubmissionFailed,
			"pre-submission status check failed: %v", err)
	}
	if minted {
		return nil, promptmint.Errorf(promptmint.ErrCodeAlreadyMinted,
			"content digest %s already recorded on-chain", d.Hex())
	}

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
