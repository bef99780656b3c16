package ledger

const (
	// Mint contract function names
	FunctionMintPrompt = "mintPrompt"
	FunctionIsMinted   = "isMinted"

	// Forwarder function names
	FunctionExecute  = "execute"
	FunctionGetNonce = "getNonce"
)

var (
	// PromptTokenMintABI covers the reward token's mint entry point.
	// mintPrompt records the content digest, credits the beneficiary, and
	// verifies the Gateway's authorization proof on-chain.
	PromptTokenMintABI = []byte(`[
		{
			"inputs": [
				{"name": "content", "type": "string"},
				{"name": "beneficiary", "type": "address"},
				{"name": "rewardData", "type": "bytes"},
				{"name": "authorization", "type": "bytes"}
			],
			"name": "mintPrompt",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`)

	// PromptTokenIsMintedABI for the digest status query.
	PromptTokenIsMintedABI = []byte(`[
		{
			"inputs": [
				{"name": "digest", "type": "bytes32"}
			],
			"name": "isMinted",
			"outputs": [{"name": "", "type": "bool"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)

	// ERC20BalanceOfABI for reward-token balance queries.
	ERC20BalanceOfABI = []byte(`[
		{
			"inputs": [
				{"name": "account", "type": "address"}
			],
			"name": "balanceOf",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)

	// ForwarderExecuteABI covers the ERC-2771 forwarder's execute call,
	// which verifies the meta-transaction signature and re-dispatches the
	// inner call with the original signer as effective sender.
	ForwarderExecuteABI = []byte(`[
		{
			"inputs": [
				{
					"name": "request",
					"type": "tuple",
					"components": [
						{"name": "from", "type": "address"},
						{"name": "to", "type": "address"},
						{"name": "value", "type": "uint256"},
						{"name": "gas", "type": "uint256"},
						{"name": "nonce", "type": "uint256"},
						{"name": "deadline", "type": "uint256"},
						{"name": "data", "type": "bytes"}
					]
				},
				{"name": "signature", "type": "bytes"}
			],
			"name": "execute",
			"outputs": [],
			"stateMutability": "payable",
			"type": "function"
		}
	]`)

	// ForwarderGetNonceABI for reading the per-signer forwarder nonce.
	ForwarderGetNonceABI = []byte(`[
		{
			"inputs": [
				{"name": "from", "type": "address"}
			],
			"name": "getNonce",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
)
