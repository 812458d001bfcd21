package strategies

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/evault-labs/swap-router/internal/swap"
	"github.com/evault-labs/swap-router/internal/swap/plan"
	"github.com/evault-labs/swap-router/internal/swap/solver"
	"github.com/evault-labs/swap-router/internal/venues"
)

const (
	defaultQuoteTimeout  = 30 * time.Second
	defaultSearchTimeout = 60 * time.Second
)

// AggregatorConfig narrows the venue set and bounds venue calls.
type AggregatorConfig struct {
	Sources       venues.Filter `mapstructure:"sources"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
}

// Aggregator fans a request out to every eligible venue. EXACT_IN builds
// one plan per valid venue quote, ranked by effective price; TARGET_DEBT
// searches per venue for the input amount reaching the target output.
type Aggregator struct {
	match  swap.MatchConfig
	config AggregatorConfig
	deps   Deps
	logger *logrus.Entry
}

func NewAggregator(match swap.MatchConfig, rawConfig map[string]any, deps Deps) (*Aggregator, error) {
	cfg := AggregatorConfig{Timeout: defaultQuoteTimeout, SearchTimeout: defaultSearchTimeout}
	if rawConfig != nil {
		if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
			return nil, fmt.Errorf("fail to decode aggregator config: %w", err)
		}
	}
	return &Aggregator{
		match:  match,
		config: cfg,
		deps:   deps,
		logger: deps.Logger.WithField("strategy", "aggregator"),
	}, nil
}

func (s *Aggregator) Name() string { return string(swap.KindAggregator) }

func (s *Aggregator) Supports(p swap.Params) bool {
	if swap.IsExactInRepay(p) {
		return false
	}
	return len(s.deps.Sources.Eligible(p.ChainID, s.config.Sources)) > 0
}

func (s *Aggregator) Matches(p swap.Params) bool {
	return s.match.Matches(p)
}

func (s *Aggregator) FindSwap(ctx context.Context, p swap.Params) swap.Result {
	result := swap.Result{
		Strategy: s.Name(),
		Supports: s.Supports(p),
		Matched:  s.Matches(p),
	}
	if !result.Supports || !result.Matched {
		return result
	}

	start := time.Now()
	defer s.deps.measureTime("swap.strategy.latency", start, []string{"strategy:aggregator"})

	var err error
	switch p.Mode {
	case swap.ModeExactIn:
		result.Responses, err = s.exactIn(ctx, p)
	case swap.ModeTargetDebt:
		result.Responses, err = s.targetDebt(ctx, p)
	default:
		err = fmt.Errorf("unsupported swap mode: %s", p.Mode)
	}
	result.Err = err
	return result
}

// exactIn quotes every eligible venue concurrently and builds one response
// per valid quote, best first.
func (s *Aggregator) exactIn(ctx context.Context, p swap.Params) ([]*swap.Response, error) {
	quotes := s.collectQuotes(ctx, p, s.config.Sources)
	quotes = plan.FilterValid(quotes)
	if len(quotes) == 0 {
		return nil, nil
	}
	plan.SortQuotes(quotes)

	responses := make([]*swap.Response, 0, len(quotes))
	for _, q := range quotes {
		resp, err := plan.BuildExactInResponse(s.deps.Book, p, q)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// collectQuotes issues one venue call per eligible source, each bounded by
// the configured timeout. Partial failure is tolerated; failures are logged
// per venue and dropped.
func (s *Aggregator) collectQuotes(ctx context.Context, p swap.Params, filter venues.Filter) []*swap.Quote {
	sources := s.deps.Sources.Eligible(p.ChainID, filter)
	quotes := make([]*swap.Quote, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			q, err := s.quoteOne(gctx, src, p)
			if err != nil {
				s.logger.WithField("venue", src.ID()).WithError(err).Debug("venue quote failed")
				s.deps.count("swap.venue.quote.error", []string{"venue:" + src.ID()})
				return nil // sibling venues keep going
			}
			s.deps.count("swap.venue.quote.ok", []string{"venue:" + src.ID()})
			quotes[i] = q
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*swap.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q != nil {
			out = append(out, q)
		}
	}
	return out
}

// quoteOne fetches a single venue quote and normalizes it.
func (s *Aggregator) quoteOne(ctx context.Context, src venues.Source, p swap.Params) (*swap.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	offer, err := src.Quote(ctx, venues.Request{
		ChainID:   p.ChainID,
		SellToken: p.TokenIn.Address,
		BuyToken:  p.TokenOut.Address,
		Side:      venues.OrderSell,
		Amount:    p.Amount,
		Taker:     p.Origin,
		Recipient: p.Receiver,
		Slippage:  p.Slippage,
	})
	if err != nil {
		return nil, err
	}
	return s.quoteFromOffer(src, offer)
}

func (s *Aggregator) quoteFromOffer(src venues.Source, offer *venues.Offer) (*swap.Quote, error) {
	data, err := plan.PackVenueCall(offer.To, offer.CallData)
	if err != nil {
		return nil, err
	}
	return &swap.Quote{
		AmountIn:                 offer.AmountIn,
		AmountInMax:              offer.AmountInMax,
		AmountOut:                offer.AmountOut,
		AmountOutMin:             offer.AmountOutMin,
		Data:                     data,
		Venue:                    offer.Venue,
		ShouldTransferToReceiver: !src.SwapAndTransfer(),
		AllowanceTarget:          offer.AllowanceTarget,
	}, nil
}

// targetDebt discovers, per venue, the input amount whose output lands in
// the overswap band above the target debt, then encodes repay plans for the
// surviving venues, best first.
func (s *Aggregator) targetDebt(ctx context.Context, p swap.Params) ([]*swap.Response, error) {
	inner := p
	inner.Mode = swap.ModeExactIn
	inner.Receiver = p.From
	inner.IsRepay = false
	if inner.TargetDebt == nil {
		inner.TargetDebt = inner.Amount
	}

	quotes, err := s.searchOverswapQuotes(ctx, inner)
	if err != nil {
		return nil, err
	}

	params := p
	if params.TargetDebt == nil {
		params.TargetDebt = params.Amount
	}

	responses := make([]*swap.Response, 0, len(quotes))
	for _, q := range quotes {
		resp, err := plan.BuildTargetDebtResponse(s.deps.Book, params, q)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// searchOverswapQuotes runs the three-phase per-venue search: a unit quote
// to estimate plausibility, one probe at the estimated input, then one
// solver run per venue, all concurrent and individually time-bounded.
func (s *Aggregator) searchOverswapQuotes(ctx context.Context, inner swap.Params) ([]*swap.Quote, error) {
	sources := s.deps.Sources.Eligible(inner.ChainID, s.config.Sources)
	overTarget := plan.AdjustForInterest(inner.Amount)

	unitAmount := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(inner.TokenIn.Decimals)), nil)
	unitParams := inner.WithAmount(unitAmount)

	var (
		mu      sync.Mutex
		winners []*swap.Quote
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			q, err := s.searchVenue(gctx, src, inner, unitParams, overTarget)
			if err != nil {
				s.logger.WithField("venue", src.ID()).WithError(err).Debug("overswap search failed")
				s.deps.count("swap.search.error", []string{"venue:" + src.ID()})
				return nil // venue dropped, siblings unaffected
			}
			mu.Lock()
			winners = append(winners, q)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if len(winners) == 0 {
		return nil, fmt.Errorf("quotes not found")
	}
	plan.SortQuotes(winners)
	return winners, nil
}

// searchVenue runs the full pre-select + solve sequence against one venue.
// The solver tracks the venue's slippage-adjusted minimum output so the
// guaranteed amount, not the optimistic one, reaches the target band.
func (s *Aggregator) searchVenue(ctx context.Context, src venues.Source, inner, unitParams swap.Params, overTarget *big.Int) (*swap.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.SearchTimeout)
	defer cancel()

	unitOffer, err := s.venueOffer(ctx, src, unitParams)
	if err != nil {
		return nil, fmt.Errorf("fail to fetch unit quote: %w", err)
	}
	if unitOffer.AmountOutMin.Sign() == 0 {
		return nil, fmt.Errorf("zero unit quote")
	}

	estimate, err := plan.EstimateAmountIn(unitOffer.AmountOutMin, inner.Amount,
		inner.TokenIn.Decimals, inner.TokenOut.Decimals)
	if err != nil {
		return nil, err
	}

	initialOffer, err := s.venueOffer(ctx, src, inner.WithAmount(estimate))
	if err != nil {
		return nil, fmt.Errorf("fail to fetch initial quote: %w", err)
	}

	fetch := func(ctx context.Context, amountIn *big.Int) (*solver.Quote, error) {
		offer, err := s.venueOffer(ctx, src, inner.WithAmount(amountIn))
		if err != nil {
			return nil, err
		}
		return &solver.Quote{AmountIn: offer.AmountIn, AmountOut: offer.AmountOutMin, Payload: offer}, nil
	}

	solved, err := solver.Search(ctx, fetch, overTarget, estimate, &solver.Quote{
		AmountIn:  initialOffer.AmountIn,
		AmountOut: initialOffer.AmountOutMin,
		Payload:   initialOffer,
	})
	if err != nil {
		return nil, err
	}

	return s.quoteFromOffer(src, solved.Payload.(*venues.Offer))
}

func (s *Aggregator) venueOffer(ctx context.Context, src venues.Source, p swap.Params) (*venues.Offer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	return src.Quote(ctx, venues.Request{
		ChainID:   p.ChainID,
		SellToken: p.TokenIn.Address,
		BuyToken:  p.TokenOut.Address,
		Side:      venues.OrderSell,
		Amount:    p.Amount,
		Taker:     p.Origin,
		Recipient: p.Receiver,
		Slippage:  p.Slippage,
	})
}
