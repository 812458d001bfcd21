package swap

import "github.com/ethereum/go-ethereum/common"

// MatchConfig is a declarative predicate set evaluated against a request.
// All present predicates must hold (conjunction), except the trade
// allow/deny lists which short-circuit the evaluation when present.
type MatchConfig struct {
	SwapperModes         []SwapperMode    `mapstructure:"swapper_modes"`
	TokensInOrOut        []common.Address `mapstructure:"tokens_in_or_out"`
	TokensIn             []common.Address `mapstructure:"tokens_in"`
	ExcludeTokensInOrOut []common.Address `mapstructure:"exclude_tokens_in_or_out"`
	IsRepay              bool             `mapstructure:"is_repay"`
	IsPendlePT           bool             `mapstructure:"is_pendle_pt"`
	NotPendlePT          bool             `mapstructure:"not_pendle_pt"`
	RepayVaults          []common.Address `mapstructure:"repay_vaults"`
	Trades               []TradePair      `mapstructure:"trades"`
	ExcludeTrades        []TradePair      `mapstructure:"exclude_trades"`
}

// Matches evaluates the predicate set against p.
func (m MatchConfig) Matches(p Params) bool {
	if len(m.SwapperModes) > 0 {
		if !containsMode(m.SwapperModes, p.Mode) {
			return false
		}
	}
	if len(m.TokensInOrOut) > 0 {
		if !containsAddress(m.TokensInOrOut, p.TokenIn.Address) &&
			!containsAddress(m.TokensInOrOut, p.TokenOut.Address) {
			return false
		}
	}
	if len(m.TokensIn) > 0 {
		if !containsAddress(m.TokensIn, p.TokenIn.Address) {
			return false
		}
	}
	if len(m.ExcludeTokensInOrOut) > 0 {
		if containsAddress(m.ExcludeTokensInOrOut, p.TokenIn.Address) ||
			containsAddress(m.ExcludeTokensInOrOut, p.TokenOut.Address) {
			return false
		}
	}
	if m.IsRepay && !p.IsRepay {
		return false
	}
	if m.IsPendlePT {
		if !p.TokenIn.Meta.IsPendlePT && !p.TokenOut.Meta.IsPendlePT {
			return false
		}
	}
	if m.NotPendlePT {
		if p.TokenIn.Meta.IsPendlePT || p.TokenOut.Meta.IsPendlePT {
			return false
		}
	}
	if len(m.RepayVaults) > 0 {
		if !p.IsRepay || !containsAddress(m.RepayVaults, p.Receiver) {
			return false
		}
	}
	if len(m.Trades) > 0 {
		return containsTrade(m.Trades, p.TokenIn.Address, p.TokenOut.Address)
	}
	if len(m.ExcludeTrades) > 0 {
		return !containsTrade(m.ExcludeTrades, p.TokenIn.Address, p.TokenOut.Address)
	}
	return true
}

func containsMode(modes []SwapperMode, mode SwapperMode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}

func containsAddress(list []common.Address, addr common.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}

func containsTrade(trades []TradePair, tokenIn, tokenOut common.Address) bool {
	for _, t := range trades {
		if t.TokenIn == tokenIn && t.TokenOut == tokenOut {
			return true
		}
	}
	return false
}

// IsExactInRepay reports whether the request is a same-mode repay that the
// generic aggregation path must not handle directly.
func IsExactInRepay(p Params) bool {
	return p.Mode == ModeExactIn && p.IsRepay
}
