package mint

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	promptmint "github.com/promptmint/promptmint"
)

// ForwarderDomainName and ForwarderDomainVersion identify the forwarder's
// EIP-712 domain. They must match the deployed forwarder contract.
const (
	ForwarderDomainName    = "PromptMintForwarder"
	ForwarderDomainVersion = "1"
)

// ForwardRequestTypes is the EIP-712 type set for the forwarding envelope.
func ForwardRequestTypes() map[string][]promptmint.TypedDataField {
	return map[string][]promptmint.TypedDataField{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		"ForwardRequest": {
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "value", Type: "uint256"},
			{Name: "gas", Type: "uint256"},
			{Name: "nonce", Type: "uint256"},
			{Name: "deadline", Type: "uint256"},
			{Name: "data", Type: "bytes"},
		},
	}
}

// HashTypedData hashes typed data according to EIP-712.
//
// The hash is computed as: keccak256("\x19\x01" + domainSeparator + structHash)
//
// Args:
//
//	domain: The EIP-712 domain separator parameters
//	types: The type definitions for the structured data
//	primaryType: The name of the primary type being hashed
//	message: The message data to hash
//
// Returns:
//
//	32-byte hash suitable for signing or verification
//	error if hashing fails
func HashTypedData(
	domain promptmint.TypedDataDomain,
	types map[string][]promptmint.TypedDataField,
	primaryType string,
	message map[string]interface{},
) ([]byte, error) {
	// Convert our types to apitypes format for hashing
	typedData := apitypes.TypedData{
		Types:       make(apitypes.Types),
		PrimaryType: primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              domain.Name,
			Version:           domain.Version,
			ChainId:           (*math.HexOrDecimal256)(domain.ChainID),
			VerifyingContract: domain.VerifyingContract,
		},
		Message: message,
	}

	for typeName, fields := range types {
		typedFields := make([]apitypes.Type, len(fields))
		for i, field := range fields {
			typedFields[i] = apitypes.Type{
				Name: field.Name,
				Type: field.Type,
			}
		}
		typedData.Types[typeName] = typedFields
	}

	if _, exists := typedData.Types["EIP712Domain"]; !exists {
		typedData.Types["EIP712Domain"] = []apitypes.Type{
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		}
	}

	dataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash struct: %w", err)
	}

	domainSeparator, err := typedData.HashStruct("EIP712Domain", typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	// EIP-712 digest: 0x19 0x01 <domainSeparator> <dataHash>
	rawData := []byte{0x19, 0x01}
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, dataHash...)
	return crypto.Keccak256(rawData), nil
}

// BuildForwardSigningPayload assembles the EIP-712 domain/types/message
// triple for a ForwardRequest. This is the exact payload an external signer
// must sign in meta-transaction Phase A; Phase B submits nothing unless the
// signature covers exactly this payload.
func BuildForwardSigningPayload(
	chainID *big.Int,
	forwarderContract string,
	request promptmint.ForwardRequest,
) (*promptmint.SigningPayload, error) {
	message, err := forwardRequestMessage(request)
	if err != nil {
		return nil, err
	}

	return &promptmint.SigningPayload{
		Domain: promptmint.TypedDataDomain{
			Name:              ForwarderDomainName,
			Version:           ForwarderDomainVersion,
			ChainID:           chainID,
			VerifyingContract: forwarderContract,
		},
		Types:       ForwardRequestTypes(),
		PrimaryType: "ForwardRequest",
		Message:     message,
		Request:     request,
	}, nil
}

// HashForwardRequest computes the EIP-712 digest an external signature over
// a ForwardRequest must cover.
func HashForwardRequest(
	chainID *big.Int,
	forwarderContract string,
	request promptmint.ForwardRequest,
) ([]byte, error) {
	message, err := forwardRequestMessage(request)
	if err != nil {
		return nil, err
	}

	domain := promptmint.TypedDataDomain{
		Name:              ForwarderDomainName,
		Version:           ForwarderDomainVersion,
		ChainID:           chainID,
		VerifyingContract: forwarderContract,
	}

	return HashTypedData(domain, ForwardRequestTypes(), "ForwardRequest", message)
}

// VerifyForwardSignature checks that signature recovers to request.From over
// the exact Phase A payload. Run before relaying so an invalid signature
// fails without spending gas.
func VerifyForwardSignature(
	chainID *big.Int,
	forwarderContract string,
	request promptmint.ForwardRequest,
	signature []byte,
) (bool, error) {
	if len(signature) != 65 {
		return false, fmt.Errorf("invalid signature length %d", len(signature))
	}

	digest, err := HashForwardRequest(chainID, forwarderContract, request)
	if err != nil {
		return false, err
	}

	// Normalize v from Ethereum's 27/28 to recovery ID 0/1
	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return false, fmt.Errorf("failed to recover signer: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	return recovered == common.HexToAddress(request.From), nil
}

// forwardRequestMessage converts the wire-form ForwardRequest into the typed
// message map apitypes hashing expects.
func forwardRequestMessage(request promptmint.ForwardRequest) (map[string]interface{}, error) {
	value, ok := new(big.Int).SetString(request.Value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid forward request value: %s", request.Value)
	}
	gas, ok := new(big.Int).SetString(request.Gas, 10)
	if !ok {
		return nil, fmt.Errorf("invalid forward request gas: %s", request.Gas)
	}
	nonce, ok := new(big.Int).SetString(request.Nonce, 10)
	if !ok {
		return nil, fmt.Errorf("invalid forward request nonce: %s", request.Nonce)
	}
	deadline, ok := new(big.Int).SetString(request.Deadline, 10)
	if !ok {
		return nil, fmt.Errorf("invalid forward request deadline: %s", request.Deadline)
	}
	data, err := hexToBytes(request.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid forward request data: %w", err)
	}

	// Ensure addresses are checksummed
	from := common.HexToAddress(request.From).Hex()
	to := common.HexToAddress(request.To).Hex()

	return map[string]interface{}{
		"from":     from,
		"to":       to,
		"value":    value,
		"gas":      gas,
		"nonce":    nonce,
		"deadline": deadline,
		"data":     data,
	}, nil
}
