package swap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SwapperMode selects the settlement semantics the swapper contract executes.
// The numeric values are part of the contract ABI and must not be reordered.
type SwapperMode uint8

const (
	ModeExactIn    SwapperMode = 0
	ModeExactOut   SwapperMode = 1 // reserved, no strategy handles it yet
	ModeTargetDebt SwapperMode = 2
)

func (m SwapperMode) String() string {
	switch m {
	case ModeExactIn:
		return "exact_in"
	case ModeExactOut:
		return "exact_out"
	case ModeTargetDebt:
		return "target_debt"
	}
	return "unknown"
}

// TokenMetadata carries classification flags used only for strategy matching,
// never for encoding.
type TokenMetadata struct {
	IsPendlePT  bool   `json:"isPendlePT,omitempty"`
	IsPendleLP  bool   `json:"isPendleLP,omitempty"`
	IsSpectraPT bool   `json:"isSpectraPT,omitempty"`
	PoolID      string `json:"poolId,omitempty"`
}

// IsPrincipalToken reports whether the token is any flavour of principal token.
func (m TokenMetadata) IsPrincipalToken() bool {
	return m.IsPendlePT || m.IsSpectraPT
}

type Token struct {
	Address  common.Address `json:"address"`
	ChainID  uint64         `json:"chainId"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Meta     TokenMetadata  `json:"metadata,omitempty"`
}

// Params is a fully resolved swap request. It is immutable for a given
// attempt; strategies derive modified copies and never mutate the original.
type Params struct {
	ChainID    uint64
	TokenIn    Token
	TokenOut   Token
	Amount     *big.Int
	Mode       SwapperMode
	Slippage   float64 // percent, 0-100
	Origin     common.Address
	Receiver   common.Address
	AccountIn  common.Address
	AccountOut common.Address
	VaultIn    common.Address
	TargetDebt *big.Int
	Deadline   uint64
	IsRepay    bool
	// SkipSweepDepositOut disables the uniform output-side dust deposit
	// appended after strategy execution.
	SkipSweepDepositOut bool
	DustAccount         common.Address
	// From is the swapper contract executing the multicall.
	From common.Address
	// RoutingOverride substitutes the chain routing table for this request.
	RoutingOverride []RoutingItem
}

// WithAmount returns a copy of p probing a different input amount.
func (p Params) WithAmount(amount *big.Int) Params {
	p.Amount = amount
	return p
}

// Quote is a single venue offer, normalized across providers. Data is the
// opaque payload handed to the swapper's generic handler: abi(address,bytes)
// of the venue call target and its calldata.
type Quote struct {
	AmountIn     *big.Int
	AmountInMax  *big.Int
	AmountOut    *big.Int
	AmountOutMin *big.Int
	Data         []byte
	Venue        string
	// ShouldTransferToReceiver is set when the venue cannot deliver output
	// directly to a third party, so the plan must sweep.
	ShouldTransferToReceiver bool
	// AllowanceTarget is non-nil when an approval distinct from the call
	// target is required before the swap.
	AllowanceTarget *common.Address
}

type VerificationKind string

const (
	VerifySkimMin VerificationKind = "skimMin"
	VerifyDebtMax VerificationKind = "debtMax"
)

// MulticallItem is one encoded contract call, batched for atomic execution.
// Args holds decoded arguments for observability only; Data is authoritative.
type MulticallItem struct {
	Function string        `json:"functionName"`
	Args     any           `json:"args"`
	Data     hexutil.Bytes `json:"data"`
}

// VerifyPayload is the separate verifier call the contract checks before
// accepting the batch.
type VerifyPayload struct {
	VerifierAddress common.Address   `json:"verifierAddress"`
	VerifierData    hexutil.Bytes    `json:"verifierData"`
	Kind            VerificationKind `json:"type"`
	Vault           common.Address   `json:"vault"`
	Account         common.Address   `json:"account"`
	Amount          string           `json:"amount"`
	Deadline        uint64           `json:"deadline"`
}

// SwapCall is the outer multicall sent to the swapper contract.
type SwapCall struct {
	SwapperAddress common.Address  `json:"swapperAddress"`
	SwapperData    hexutil.Bytes   `json:"swapperData"`
	MulticallItems []MulticallItem `json:"multicallItems"`
}

type RouteItem struct {
	ProviderName string `json:"providerName"`
}

// Response is one ready-to-submit plan.
type Response struct {
	AmountIn     string         `json:"amountIn"`
	AmountInMax  string         `json:"amountInMax"`
	AmountOut    string         `json:"amountOut"`
	AmountOutMin string         `json:"amountOutMin"`
	VaultIn      common.Address `json:"vaultIn"`
	Receiver     common.Address `json:"receiver"`
	AccountIn    common.Address `json:"accountIn"`
	AccountOut   common.Address `json:"accountOut"`
	TokenIn      Token          `json:"tokenIn"`
	TokenOut     Token          `json:"tokenOut"`
	Slippage     float64        `json:"slippage"`
	Route        []RouteItem    `json:"route"`
	Swap         SwapCall       `json:"swap"`
	Verify       VerifyPayload  `json:"verify"`
}

// Result is the outcome of one strategy attempt. A strategy that neither
// supports nor matches the request returns with both flags false and no
// responses, without having done network work.
type Result struct {
	Strategy  string
	Supports  bool
	Matched   bool
	Responses []*Response
	Err       error
}

// StrategyKind is the closed set of routing strategies. Routing tables refer
// to strategies by kind; a factory instantiates them (no runtime reflection).
type StrategyKind string

const (
	KindAggregator   StrategyKind = "aggregator"
	KindRepayWrapper StrategyKind = "repay_wrapper"
)

// TradePair identifies a directed token pair for match allow/deny lists.
type TradePair struct {
	TokenIn  common.Address `mapstructure:"token_in"`
	TokenOut common.Address `mapstructure:"token_out"`
}

// RoutingItem is one entry of a chain's ordered strategy list.
type RoutingItem struct {
	Strategy StrategyKind
	Match    MatchConfig
	Config   map[string]any
}

func quoteRoute(q *Quote) []RouteItem {
	return []RouteItem{{ProviderName: q.Venue}}
}

// Route describes the venues a quote passes through.
func (q *Quote) Route() []RouteItem { return quoteRoute(q) }
