package strategies

import (
	"context"
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/evault-labs/swap-router/internal/swap"
	"github.com/evault-labs/swap-router/internal/swap/plan"
)

// RepayWrapper reframes a same-mode repay as a plain exact-input swap: the
// output is delivered to the swapper instead of the liability vault, and a
// trailing repayAndDeposit settles the debt and deposits any surplus. It
// delegates the quote finding to an inner aggregator.
type RepayWrapper struct {
	match  swap.MatchConfig
	inner  *Aggregator
	deps   Deps
	logger *logrus.Entry
}

func NewRepayWrapper(match swap.MatchConfig, rawConfig map[string]any, deps Deps) (*RepayWrapper, error) {
	inner, err := NewAggregator(swap.MatchConfig{}, rawConfig, deps)
	if err != nil {
		return nil, fmt.Errorf("fail to build inner aggregator: %w", err)
	}
	return &RepayWrapper{
		match:  match,
		inner:  inner,
		deps:   deps,
		logger: deps.Logger.WithField("strategy", "repay_wrapper"),
	}, nil
}

func (s *RepayWrapper) Name() string { return string(swap.KindRepayWrapper) }

func (s *RepayWrapper) Supports(p swap.Params) bool {
	if !swap.IsExactInRepay(p) {
		return false
	}
	return s.inner.Supports(s.innerParams(p))
}

func (s *RepayWrapper) Matches(p swap.Params) bool {
	return s.match.Matches(p)
}

// innerParams strips the repay framing so the generic aggregation path can
// handle the swap; output lands at the swapper for the repay tail.
func (s *RepayWrapper) innerParams(p swap.Params) swap.Params {
	inner := p
	inner.IsRepay = false
	inner.Receiver = p.From
	inner.SkipSweepDepositOut = true
	return inner
}

func (s *RepayWrapper) FindSwap(ctx context.Context, p swap.Params) swap.Result {
	result := swap.Result{
		Strategy: s.Name(),
		Supports: s.Supports(p),
		Matched:  s.Matches(p),
	}
	if !result.Supports || !result.Matched {
		return result
	}

	innerResult := s.inner.FindSwap(ctx, s.innerParams(p))
	if innerResult.Err != nil {
		result.Err = innerResult.Err
		return result
	}

	responses := make([]*swap.Response, 0, len(innerResult.Responses))
	for _, resp := range innerResult.Responses {
		wrapped, err := s.wrapResponse(p, resp)
		if err != nil {
			result.Err = err
			return result
		}
		responses = append(responses, wrapped)
	}
	result.Responses = responses
	return result
}

// wrapResponse appends the repayAndDeposit settlement and repoints the
// response and its verifier at the liability vault.
func (s *RepayWrapper) wrapResponse(p swap.Params, resp *swap.Response) (*swap.Response, error) {
	repayAll := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	settle, err := plan.EncodeRepayAndDepositItem(p.TokenOut.Address, p.Receiver, repayAll, p.AccountOut)
	if err != nil {
		return nil, err
	}

	items := make([]swap.MulticallItem, len(resp.Swap.MulticallItems), len(resp.Swap.MulticallItems)+1)
	copy(items, resp.Swap.MulticallItems)
	items = append(items, settle)

	call, err := plan.BuildSwapCall(p.From, items)
	if err != nil {
		return nil, err
	}

	amountOutMin, ok := new(big.Int).SetString(resp.AmountOutMin, 10)
	if !ok {
		return nil, fmt.Errorf("fail to parse amountOutMin %q", resp.AmountOutMin)
	}
	verify, err := plan.BuildVerifySkimMin(s.deps.Book, p.ChainID, p.Receiver, p.AccountOut, amountOutMin, p.Deadline)
	if err != nil {
		return nil, err
	}

	wrapped := *resp
	wrapped.Receiver = p.Receiver
	wrapped.Swap = call
	wrapped.Verify = verify
	return &wrapped, nil
}
