// Package venues defines the quote source capability implemented by each
// external liquidity provider adapter, and a registry keyed by venue id.
package venues

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUnsupportedChain is returned by adapters asked to quote on a chain
// they do not serve.
var ErrUnsupportedChain = errors.New("chain not supported by venue")

// OrderSide distinguishes sell-amount from buy-amount orders.
type OrderSide int

const (
	OrderSell OrderSide = iota
	OrderBuy
)

// Request is a venue-agnostic quote request.
type Request struct {
	ChainID   uint64
	SellToken common.Address
	BuyToken  common.Address
	Side      OrderSide
	// Amount is the sell amount for OrderSell, the buy amount for OrderBuy.
	Amount    *big.Int
	Taker     common.Address
	Recipient common.Address
	// Slippage in percent, 0-100.
	Slippage float64
}

// Offer is a single venue quote, normalized across providers.
type Offer struct {
	Venue        string
	AmountIn     *big.Int
	AmountInMax  *big.Int
	AmountOut    *big.Int
	AmountOutMin *big.Int
	// To and CallData describe the venue call the swapper must execute.
	To       common.Address
	CallData []byte
	// AllowanceTarget is non-nil when approval must go to an address other
	// than To.
	AllowanceTarget *common.Address
}

// Source is the capability contract each venue adapter implements.
type Source interface {
	// ID is the stable venue identifier used in routing config filters.
	ID() string
	// Name is the human-readable provider name exposed in routes.
	Name() string
	// SupportsChain reports whether the venue serves the chain.
	SupportsChain(chainID uint64) bool
	// SwapAndTransfer reports whether the venue can deliver output tokens
	// directly to a third-party recipient.
	SwapAndTransfer() bool
	// Quote fetches one offer; implementations must honor ctx deadlines.
	Quote(ctx context.Context, req Request) (*Offer, error)
}

// Filter restricts which registered sources participate in a request.
// Include wins over Exclude when both are set.
type Filter struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

func (f Filter) allows(id string) bool {
	if len(f.Include) > 0 {
		for _, s := range f.Include {
			if s == id {
				return true
			}
		}
		return false
	}
	for _, s := range f.Exclude {
		if s == id {
			return false
		}
	}
	return true
}

// Registry holds the injected source set in registration order.
type Registry struct {
	sources []Source
	byID    map[string]Source
}

func NewRegistry(sources ...Source) *Registry {
	r := &Registry{byID: make(map[string]Source, len(sources))}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register adds a source; re-registering an id replaces the previous one.
func (r *Registry) Register(s Source) {
	if _, ok := r.byID[s.ID()]; !ok {
		r.sources = append(r.sources, s)
	} else {
		for i, existing := range r.sources {
			if existing.ID() == s.ID() {
				r.sources[i] = s
				break
			}
		}
	}
	r.byID[s.ID()] = s
}

// Get returns the source registered under id.
func (r *Registry) Get(id string) (Source, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Eligible returns the sources that pass the filter and serve the chain.
func (r *Registry) Eligible(chainID uint64, filter Filter) []Source {
	var out []Source
	for _, s := range r.sources {
		if filter.allows(s.ID()) && s.SupportsChain(chainID) {
			out = append(out, s)
		}
	}
	return out
}

// SupportsChain reports whether any registered source serves the chain.
func (r *Registry) SupportsChain(chainID uint64) bool {
	for _, s := range r.sources {
		if s.SupportsChain(chainID) {
			return true
		}
	}
	return false
}
