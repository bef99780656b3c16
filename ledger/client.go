// Package ledger wraps a go-ethereum RPC client behind the pipeline's
// Ledger interface: submit transaction, wait for receipt, read-only queries.
// The pipeline never sees the transport, and the client never chooses its
// own nonce; every write takes an explicit sequence number from the
// allocator.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	promptmint "github.com/promptmint/promptmint"
)

// receiptPollInterval is how often WaitForReceipt polls for a mined
// transaction.
const receiptPollInterval = 2 * time.Second

// Client implements promptmint.Ledger over an ethclient connection. One
// instance per configured chain, created once at startup and shared; the
// underlying transport is safe for concurrent use.
type Client struct {
	ethClient  *ethclient.Client
	chainID    *big.Int
	privateKey *ecdsa.PrivateKey
	address    common.Address
	log        *slog.Logger
}

var _ promptmint.Ledger = (*Client)(nil)

// Dial connects to an RPC endpoint and prepares the submitting wallet from a
// hex-encoded private key (with or without "0x" prefix). The key never
// leaves this struct and is never logged.
func Dial(ctx context.Context, rpcURL, privateKeyHex string, chainID uint64, log *slog.Logger) (*Client, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	ethClient, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Client{
		ethClient:  ethClient,
		chainID:    new(big.Int).SetUint64(chainID),
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		log:        log.With("component", "ledger", "chainId", chainID),
	}, nil
}

// ChainID returns the chain this client talks to.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// SignerAddress returns the submitting wallet's address.
func (c *Client) SignerAddress() string {
	return c.address.Hex()
}

// PendingNonce returns the account's next sequence number including pending
// transactions.
func (c *Client) PendingNonce(ctx context.Context, address string) (uint64, error) {
	nonce, err := c.ethClient.PendingNonceAt(ctx, common.HexToAddress(address))
	if err != nil {
		return 0, fmt.Errorf("failed to get pending nonce: %w", err)
	}
	return nonce, nil
}

// ReadContract executes a read-only contract call and unpacks the result.
func (c *Client) ReadContract(ctx context.Context, address string, abiJSON []byte, functionName string, args ...interface{}) (interface{}, error) {
	contractABI, err := abi.JSON(strings.NewReader(string(abiJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	data, err := contractABI.Pack(functionName, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", functionName, err)
	}

	addr := common.HexToAddress(address)
	result, err := c.ethClient.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("contract call failed: %w", err)
	}

	outputs, err := contractABI.Unpack(functionName, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", functionName, err)
	}

	if len(outputs) == 0 {
		return nil, nil
	}
	if len(outputs) == 1 {
		return outputs[0], nil
	}
	return outputs, nil
}

// WriteContract signs and submits a contract transaction with the explicit
// nonce (and optional gas limit) in opts, returning the transaction hash.
func (c *Client) WriteContract(ctx context.Context, opts promptmint.TxOptions, address string, abiJSON []byte, functionName string, args ...interface{}) (string, error) {
	contractABI, err := abi.JSON(strings.NewReader(string(abiJSON)))
	if err != nil {
		return "", fmt.Errorf("failed to parse ABI: %w", err)
	}

	calldata, err := contractABI.Pack(functionName, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s calldata: %w", functionName, err)
	}

	to := common.HexToAddress(address)

	// EIP-1559 fee fields: tip from the node, legacy gas price as a
	// conservative fee cap.
	gasTipCap, err := c.ethClient.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	gasFeeCap, err := c.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		gasLimit, err = c.ethClient.EstimateGas(ctx, ethereum.CallMsg{
			From: c.address,
			To:   &to,
			Data: calldata,
		})
		if err != nil {
			return "", fmt.Errorf("failed to estimate gas: %w", err)
		}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   c.chainID,
		Nonce:     opts.Nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &to,
		Data:      calldata,
	})

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.ethClient.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	txHash := signedTx.Hash().Hex()
	c.log.Info("transaction submitted",
		"tx", txHash, "function", functionName, "nonce", opts.Nonce, "gasLimit", gasLimit)
	return txHash, nil
}

// WaitForReceipt polls until the transaction is mined or ctx expires.
// Partial submissions are never rolled back; the chain is the source of
// truth once the transaction is out.
func (c *Client) WaitForReceipt(ctx context.Context, txHash string) (*promptmint.Receipt, error) {
	hash := common.HexToHash(txHash)
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.ethClient.TransactionReceipt(ctx, hash)
		if err == nil {
			return &promptmint.Receipt{
				Status:      receipt.Status,
				BlockNumber: receipt.BlockNumber.Uint64(),
				TxHash:      txHash,
				GasUsed:     receipt.GasUsed,
			}, nil
		}
		if err != ethereum.NotFound {
			return nil, fmt.Errorf("failed to get receipt: %w", err)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for receipt of %s: %w", txHash, ctx.Err())
		}
	}
}

// TokenBalance returns the ERC-20 balance of holder on the reward token.
func (c *Client) TokenBalance(ctx context.Context, tokenAddress, holder string) (*big.Int, error) {
	result, err := c.ReadContract(ctx, tokenAddress, ERC20BalanceOfABI, "balanceOf", common.HexToAddress(holder))
	if err != nil {
		return nil, err
	}
	balance, ok := result.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", result)
	}
	return balance, nil
}
