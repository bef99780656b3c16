package mint

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	promptmint "github.com/promptmint/promptmint"
	"github.com/promptmint/promptmint/digest"
	"github.com/promptmint/promptmint/ledger"
	"github.com/promptmint/promptmint/reward"
)

const (
	// defaultForwardGas is the inner-call gas limit used when the caller
	// does not specify one.
	defaultForwardGas = uint64(300_000)

	// forwarderGasBuffer covers the forwarder's own verification and
	// dispatch overhead on top of the inner call's gas.
	forwarderGasBuffer = uint64(50_000)
)

// forwardRequestTuple mirrors the forwarder's execute(request, signature)
// tuple argument for ABI packing.
type forwardRequestTuple struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	Gas      *big.Int
	Nonce    *big.Int
	Deadline *big.Int
	Data     []byte
}

// PrepareMetaTx is Phase A of the meta-transaction flow. It hashes and
// authorizes the content, builds the inner mintPrompt calldata, allocates a
// forwarder nonce, and returns the EIP-712 payload the external wallet must
// sign. The allocated nonce is consumed whether or not the signature ever
// comes back.
func (s *Service) PrepareMetaTx(ctx context.Context, chainID uint64, content, signer, beneficiary string, rewards []*big.Int, gasLimit uint64) (*promptmint.SigningPayload, error) {
	chain, err := s.chain(chainID)
	if err != nil {
		return nil, err
	}
	if err := validateInputs(beneficiary, rewards); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(signer) {
		return nil, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid signer address: %s", signer)
	}
	if chain.ForwarderContract == "" {
		return nil, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"chain %d has no forwarder configured", chainID)
	}

	d := digest.Hash(content)
	proof, err := s.authorize(ctx, chainID, d, beneficiary, common.HexToAddress(signer).Hex(), rewards)
	if err != nil {
		return nil, err
	}

	authorization, err := proofBytes(proof)
	if err != nil {
		return nil, err
	}

	calldata, err := packMintCalldata(content, beneficiary, rewards, authorization)
	if err != nil {
		return nil, err
	}

	fwdNonce, err := s.fwdNonces.Allocate(chainID)
	if err != nil {
		return nil, err
	}

	if gasLimit == 0 {
		gasLimit = defaultForwardGas
	}
	deadline := time.Now().Add(s.metaTxValidity).Unix()

	request := promptmint.ForwardRequest{
		From:     common.HexToAddress(signer).Hex(),
		To:       common.HexToAddress(chain.TokenContract).Hex(),
		Value:    "0",
		Gas:      strconv.FormatUint(gasLimit, 10),
		Nonce:    strconv.FormatUint(fwdNonce, 10),
		Deadline: strconv.FormatInt(deadline, 10),
		Data:     bytesToHex(calldata),
	}

	payload, err := BuildForwardSigningPayload(chain.Ledger.ChainID(), chain.ForwarderContract, request)
	if err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeSubmissionFailed,
			"failed to build signing payload: %v", err)
	}

	s.log.Info("meta-tx prepared",
		"digest", d.Hex(), "chainId", chainID,
		"signer", request.From, "forwarderNonce", fwdNonce, "deadline", deadline)
	return payload, nil
}

// RelayMetaTx is Phase B: it verifies the external signature and deadline
// locally, then submits the forwarder execute transaction signed and paid for
// by the service wallet.
func (s *Service) RelayMetaTx(ctx context.Context, chainID uint64, request promptmint.ForwardRequest, signatureHex string) (*promptmint.MintResult, error) {
	chain, err := s.chain(chainID)
	if err != nil {
		return nil, err
	}
	if chain.ForwarderContract == "" {
		return nil, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"chain %d has no forwarder configured", chainID)
	}

	signature, err := hexToBytes(signatureHex)
	if err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeInvalidForwardSig,
			"signature is not valid hex: %v", err)
	}

	valid, err := VerifyForwardSignature(chain.Ledger.ChainID(), chain.ForwarderContract, request, signature)
	if err != nil || !valid {
		return nil, promptmint.Errorf(promptmint.ErrCodeInvalidForwardSig,
			"signature does not recover to %s", request.From)
	}

	tuple, err := parseForwardRequest(request)
	if err != nil {
		return nil, err
	}
	if tuple.Deadline.Int64() < time.Now().Unix() {
		return nil, promptmint.Errorf(promptmint.ErrCodeMetaTxExpired,
			"forward request deadline %s has passed", request.Deadline)
	}

	d, err := digestFromCalldata(tuple.Data)
	if err != nil {
		return nil, err
	}

	nonce, err := s.txNonces.Allocate(chainID)
	if err != nil {
		return nil, err
	}

	return s.submit(ctx, chain, d, func() (string, error) {
		return chain.Ledger.WriteContract(ctx,
			promptmint.TxOptions{
				Nonce:    nonce,
				GasLimit: tuple.Gas.Uint64() + forwarderGasBuffer,
			},
			chain.ForwarderContract,
			ledger.ForwarderExecuteABI,
			ledger.FunctionExecute,
			tuple,
			signature,
		)
	}, translateForwarderError)
}

// packMintCalldata builds the inner mintPrompt call the forwarder dispatches.
func packMintCalldata(content, beneficiary string, rewards []*big.Int, authorization []byte) ([]byte, error) {
	parsed, err := abi.JSON(bytes.NewReader(ledger.PromptTokenMintABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse mint ABI: %w", err)
	}
	calldata, err := parsed.Pack(ledger.FunctionMintPrompt,
		content,
		common.HexToAddress(beneficiary),
		reward.Encode(rewards...),
		authorization,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack mint calldata: %w", err)
	}
	return calldata, nil
}

// digestFromCalldata recovers the content digest from packed mintPrompt
// calldata. Phase B never receives the raw content separately; the inner
// call's first argument is the source of truth.
func digestFromCalldata(calldata []byte) (promptmint.Digest, error) {
	var d promptmint.Digest
	if len(calldata) < 4 {
		return d, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"forward request data is not a contract call")
	}

	parsed, err := abi.JSON(bytes.NewReader(ledger.PromptTokenMintABI))
	if err != nil {
		return d, fmt.Errorf("failed to parse mint ABI: %w", err)
	}
	method := parsed.Methods[ledger.FunctionMintPrompt]
	if !bytes.Equal(calldata[:4], method.ID) {
		return d, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"forward request data does not call %s", ledger.FunctionMintPrompt)
	}

	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil || len(args) == 0 {
		return d, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"forward request calldata is malformed")
	}
	content, ok := args[0].(string)
	if !ok {
		return d, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"forward request calldata is malformed")
	}
	return digest.Hash(content), nil
}

// parseForwardRequest converts the wire-form request to ABI-typed values.
func parseForwardRequest(request promptmint.ForwardRequest) (forwardRequestTuple, error) {
	var tuple forwardRequestTuple
	if !common.IsHexAddress(request.From) || !common.IsHexAddress(request.To) {
		return tuple, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"forward request addresses are malformed")
	}

	value, ok := new(big.Int).SetString(request.Value, 10)
	if !ok {
		return tuple, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid forward request value: %s", request.Value)
	}
	gas, ok := new(big.Int).SetString(request.Gas, 10)
	if !ok {
		return tuple, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid forward request gas: %s", request.Gas)
	}
	nonce, ok := new(big.Int).SetString(request.Nonce, 10)
	if !ok {
		return tuple, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid forward request nonce: %s", request.Nonce)
	}
	deadline, ok := new(big.Int).SetString(request.Deadline, 10)
	if !ok {
		return tuple, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid forward request deadline: %s", request.Deadline)
	}
	data, err := hexToBytes(request.Data)
	if err != nil {
		return tuple, promptmint.Errorf(promptmint.ErrCodeInputValidation,
			"invalid forward request data: %v", err)
	}

	return forwardRequestTuple{
		From:     common.HexToAddress(request.From),
		To:       common.HexToAddress(request.To),
		Value:    value,
		Gas:      gas,
		Nonce:    nonce,
		Deadline: deadline,
		Data:     data,
	}, nil
}
