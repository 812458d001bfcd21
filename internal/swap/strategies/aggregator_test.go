package strategies

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/evault-labs/swap-router/internal/contracts"
	"github.com/evault-labs/swap-router/internal/swap"
	"github.com/evault-labs/swap-router/internal/venues"
)

// fakeSource is a deterministic venue: output = input * rateNum / rateDen,
// no slippage spread.
type fakeSource struct {
	id       string
	chains   map[uint64]bool
	rateNum  int64
	rateDen  int64
	transfer bool
	err      error
	calls    atomic.Int64
}

func (f *fakeSource) ID() string                   { return f.id }
func (f *fakeSource) Name() string                 { return f.id }
func (f *fakeSource) SupportsChain(id uint64) bool { return f.chains[id] }
func (f *fakeSource) SwapAndTransfer() bool        { return f.transfer }

func (f *fakeSource) Quote(_ context.Context, req venues.Request) (*venues.Offer, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := new(big.Int).Mul(req.Amount, big.NewInt(f.rateNum))
	out.Quo(out, big.NewInt(f.rateDen))
	return &venues.Offer{
		Venue:        f.id,
		AmountIn:     new(big.Int).Set(req.Amount),
		AmountInMax:  new(big.Int).Set(req.Amount),
		AmountOut:    out,
		AmountOutMin: new(big.Int).Set(out),
		To:           common.HexToAddress("0x8888888888888888888888888888888888888888"),
		CallData:     []byte{0x01, 0x02, 0x03, 0x04},
	}, nil
}

func testDeps(sources ...venues.Source) Deps {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return Deps{
		Sources: venues.NewRegistry(sources...),
		Book:    contracts.DefaultBook(),
		Logger:  logger,
	}
}

func exactInParams() swap.Params {
	book := contracts.DefaultBook()
	from, _ := book.SwapperFor(1)
	return swap.Params{
		ChainID:  1,
		TokenIn:  swap.Token{Address: common.HexToAddress("0x1111111111111111111111111111111111111111"), Decimals: 6},
		TokenOut: swap.Token{Address: common.HexToAddress("0x2222222222222222222222222222222222222222"), Decimals: 6},
		Amount:   big.NewInt(1_000_000),
		Mode:     swap.ModeExactIn,
		Slippage: 1,
		Receiver: common.HexToAddress("0x3333333333333333333333333333333333333333"),
		Deadline: 1_700_000_000,
		From:     from,
	}
}

func TestAggregatorExactInRanksVenues(t *testing.T) {
	good := &fakeSource{id: "good", chains: map[uint64]bool{1: true}, rateNum: 2, rateDen: 1}
	bad := &fakeSource{id: "bad", chains: map[uint64]bool{1: true}, rateNum: 1, rateDen: 1}

	agg, err := NewAggregator(swap.MatchConfig{}, nil, testDeps(bad, good))
	require.NoError(t, err)

	result := agg.FindSwap(context.Background(), exactInParams())
	require.NoError(t, result.Err)
	require.Len(t, result.Responses, 2)
	require.Equal(t, "good", result.Responses[0].Route[0].ProviderName)
	require.Equal(t, "bad", result.Responses[1].Route[0].ProviderName)
}

func TestAggregatorExactInToleratesVenueFailure(t *testing.T) {
	broken := &fakeSource{id: "broken", chains: map[uint64]bool{1: true}, err: fmt.Errorf("venue down")}
	ok := &fakeSource{id: "ok", chains: map[uint64]bool{1: true}, rateNum: 1, rateDen: 1}

	agg, err := NewAggregator(swap.MatchConfig{}, nil, testDeps(broken, ok))
	require.NoError(t, err)

	result := agg.FindSwap(context.Background(), exactInParams())
	require.NoError(t, result.Err)
	require.Len(t, result.Responses, 1)
	require.Equal(t, "ok", result.Responses[0].Route[0].ProviderName)
}

func TestAggregatorExactInNoQuotes(t *testing.T) {
	broken := &fakeSource{id: "broken", chains: map[uint64]bool{1: true}, err: fmt.Errorf("venue down")}

	agg, err := NewAggregator(swap.MatchConfig{}, nil, testDeps(broken))
	require.NoError(t, err)

	result := agg.FindSwap(context.Background(), exactInParams())
	require.NoError(t, result.Err)
	require.Empty(t, result.Responses)
}

func TestAggregatorSupports(t *testing.T) {
	src := &fakeSource{id: "v", chains: map[uint64]bool{1: true}, rateNum: 1, rateDen: 1}
	agg, err := NewAggregator(swap.MatchConfig{}, nil, testDeps(src))
	require.NoError(t, err)

	p := exactInParams()
	require.True(t, agg.Supports(p))

	// exact-in repays belong to the wrapper strategy
	p.IsRepay = true
	require.False(t, agg.Supports(p))

	p = exactInParams()
	p.ChainID = 42
	require.False(t, agg.Supports(p))
}

func TestAggregatorUnsupportedMode(t *testing.T) {
	src := &fakeSource{id: "v", chains: map[uint64]bool{1: true}, rateNum: 1, rateDen: 1}
	agg, err := NewAggregator(swap.MatchConfig{}, nil, testDeps(src))
	require.NoError(t, err)

	p := exactInParams()
	p.Mode = swap.ModeExactOut
	result := agg.FindSwap(context.Background(), p)
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "unsupported swap mode")
}

func TestAggregatorSourceFilter(t *testing.T) {
	a := &fakeSource{id: "a", chains: map[uint64]bool{1: true}, rateNum: 1, rateDen: 1}
	b := &fakeSource{id: "b", chains: map[uint64]bool{1: true}, rateNum: 1, rateDen: 1}

	agg, err := NewAggregator(swap.MatchConfig{}, map[string]any{
		"sources": map[string]any{"include": []string{"a"}},
	}, testDeps(a, b))
	require.NoError(t, err)

	result := agg.FindSwap(context.Background(), exactInParams())
	require.NoError(t, result.Err)
	require.Len(t, result.Responses, 1)
	require.Equal(t, "a", result.Responses[0].Route[0].ProviderName)
	require.Zero(t, b.calls.Load())
}

func TestAggregatorTargetDebt(t *testing.T) {
	src := &fakeSource{id: "v", chains: map[uint64]bool{1: true}, rateNum: 1, rateDen: 1}
	agg, err := NewAggregator(swap.MatchConfig{}, nil, testDeps(src))
	require.NoError(t, err)

	p := exactInParams()
	p.Mode = swap.ModeTargetDebt
	p.Amount = big.NewInt(500_000) // target debt in output units

	result := agg.FindSwap(context.Background(), p)
	require.NoError(t, result.Err)
	require.Len(t, result.Responses, 1)

	resp := result.Responses[0]
	require.Equal(t, swap.VerifyDebtMax, resp.Verify.Kind)
	require.Equal(t, "500000", resp.Verify.Amount)

	// the guaranteed output covers the interest-adjusted target
	out, ok := new(big.Int).SetString(resp.AmountOutMin, 10)
	require.True(t, ok)
	overTarget := big.NewInt(500_050) // 500000 * 10001 / 10000
	require.True(t, out.Cmp(overTarget) >= 0)
	require.True(t, out.Cmp(big.NewInt(502_550)) <= 0)
}

func TestAggregatorTargetDebtNoVenue(t *testing.T) {
	broken := &fakeSource{id: "broken", chains: map[uint64]bool{1: true}, err: fmt.Errorf("venue down")}
	agg, err := NewAggregator(swap.MatchConfig{}, nil, testDeps(broken))
	require.NoError(t, err)

	p := exactInParams()
	p.Mode = swap.ModeTargetDebt
	p.Amount = big.NewInt(500_000)

	result := agg.FindSwap(context.Background(), p)
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "quotes not found")
}
