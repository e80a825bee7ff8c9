package constants

import "time"

const (
	SwapRequestTimeout      = 30 * time.Second // timeout for aggregator build requests
	ReceiptPollInterval     = 2 * time.Second  // interval between EVM/Tron confirmation polls
	ReceiptPollMaxAttempts  = 30               // poll ceiling before a confirmation timeout
	CallContractTimeout     = 10 * time.Second // timeout for read-only contract calls
	RPCRequestTimeout       = 10 * time.Second // timeout for raw JSON-RPC requests
	SolanaConfirmInterval   = 1 * time.Second  // interval between signature-status checks
	SolanaConfirmMaxChecks  = 60               // signature-status check ceiling
	TONCompletionGracePause = 8 * time.Second  // flat delay before a TON send is reported done
	MaxResponseBodySize     = 10 * 1024 * 1024 // maximum response body size in bytes (10MB)
	MaxDisplayErrorLength   = 140              // truncation limit for user-visible error text
)

// Ecosystem identifies one of the supported execution environments.
type Ecosystem string

const (
	EcosystemEVM    Ecosystem = "evm"
	EcosystemSolana Ecosystem = "solana"
	EcosystemTron   Ecosystem = "tron"
	EcosystemSui    Ecosystem = "sui"
	EcosystemTON    Ecosystem = "ton"
)

// Ecosystems lists every supported ecosystem, in registry order.
var Ecosystems = []Ecosystem{
	EcosystemEVM,
	EcosystemSolana,
	EcosystemTron,
	EcosystemSui,
	EcosystemTON,
}

// Aggregator chain indexes. These are the integer chain identifiers the DEX
// aggregator uses in its build API; they are unrelated to EVM chain ids.
const (
	ChainIndexEthereum = 1
	ChainIndexBSC      = 56
	ChainIndexPolygon  = 137
	ChainIndexBase     = 8453
	ChainIndexArbitrum = 42161
	ChainIndexSolana   = 501
	ChainIndexTron     = 195
	ChainIndexSui      = 784
	ChainIndexTON      = 607
)

// NativeTokenAddressEVM is the pseudo-address aggregators use for the chain's
// native currency in EVM swap requests. Compared case-insensitively.
const NativeTokenAddressEVM = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// Native-asset sentinels for the non-EVM ecosystems, as the aggregator
// denotes them. Only the EVM sentinel drives the allowance/approval path.
const (
	NativeTokenAddressSolana = "11111111111111111111111111111111"
	NativeTokenAddressTron   = "T9yD14Nj9j7xAB4dbGeiX9h8unkKHxuWwb"
	NativeTokenAddressSui    = "0x2::sui::SUI"
	NativeTokenAddressTON    = "ton"
)

// ChainInfo is static registry metadata for one chain.
type ChainInfo struct {
	ChainIndex     int
	Name           string
	Ecosystem      Ecosystem
	EVMChainID     int64 // 0 for non-EVM chains
	NativeSymbol   string
	NativeDecimals int
	ExplorerTxURL  string // transaction URL prefix, tx id is appended
}

// Chains maps aggregator chain index to static chain metadata.
var Chains = map[int]ChainInfo{
	ChainIndexEthereum: {ChainIndexEthereum, "Ethereum", EcosystemEVM, 1, "ETH", 18, "https://etherscan.io/tx/"},
	ChainIndexBSC:      {ChainIndexBSC, "BNB Chain", EcosystemEVM, 56, "BNB", 18, "https://bscscan.com/tx/"},
	ChainIndexPolygon:  {ChainIndexPolygon, "Polygon", EcosystemEVM, 137, "POL", 18, "https://polygonscan.com/tx/"},
	ChainIndexBase:     {ChainIndexBase, "Base", EcosystemEVM, 8453, "ETH", 18, "https://basescan.org/tx/"},
	ChainIndexArbitrum: {ChainIndexArbitrum, "Arbitrum", EcosystemEVM, 42161, "ETH", 18, "https://arbiscan.io/tx/"},
	ChainIndexSolana:   {ChainIndexSolana, "Solana", EcosystemSolana, 0, "SOL", 9, "https://solscan.io/tx/"},
	ChainIndexTron:     {ChainIndexTron, "Tron", EcosystemTron, 0, "TRX", 6, "https://tronscan.org/#/transaction/"},
	ChainIndexSui:      {ChainIndexSui, "Sui", EcosystemSui, 0, "SUI", 9, "https://suivision.xyz/txblock/"},
	ChainIndexTON:      {ChainIndexTON, "TON", EcosystemTON, 0, "TON", 9, "https://tonviewer.com/transaction/"},
}

// ChainEcosystem resolves the ecosystem implied by an aggregator chain index.
// The second return is false for unknown chains.
func ChainEcosystem(chainIndex int) (Ecosystem, bool) {
	info, ok := Chains[chainIndex]
	if !ok {
		return "", false
	}
	return info.Ecosystem, true
}

// EVMChainID returns the numeric EVM chain id for a chain index, or false if
// the chain is unknown or not an EVM chain.
func EVMChainID(chainIndex int) (int64, bool) {
	info, ok := Chains[chainIndex]
	if !ok || info.Ecosystem != EcosystemEVM {
		return 0, false
	}
	return info.EVMChainID, true
}

// ExplorerTxLink builds the explorer URL for a transaction id, or "" for an
// unknown chain.
func ExplorerTxLink(chainIndex int, txID string) string {
	info, ok := Chains[chainIndex]
	if !ok {
		return ""
	}
	return info.ExplorerTxURL + txID
}
