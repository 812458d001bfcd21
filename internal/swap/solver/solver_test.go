package solver

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// linearVenue prices at a fixed rate, like a pool with infinite depth.
func linearVenue(rate int64) QuoteFn {
	return func(_ context.Context, amountIn *big.Int) (*Quote, error) {
		out := new(big.Int).Mul(amountIn, big.NewInt(rate))
		return &Quote{AmountIn: amountIn, AmountOut: out, Payload: "offer"}, nil
	}
}

func TestSearchConvergesOnLinearVenue(t *testing.T) {
	target := big.NewInt(500_000)
	calls := 0
	fetch := func(ctx context.Context, amountIn *big.Int) (*Quote, error) {
		calls++
		return linearVenue(10)(ctx, amountIn)
	}

	// deliberately low estimate: 40000 in yields 400000 out
	quote, err := Search(context.Background(), fetch, target, big.NewInt(40_000), nil)
	require.NoError(t, err)
	require.True(t, InBand(target, quote.AmountOut))
	require.LessOrEqual(t, calls, 3)
	require.Equal(t, "offer", quote.Payload)
}

func TestSearchReusesInitialQuote(t *testing.T) {
	target := big.NewInt(500_000)
	initial := &Quote{AmountIn: big.NewInt(50_000), AmountOut: big.NewInt(500_100)}

	fetch := func(context.Context, *big.Int) (*Quote, error) {
		t.Fatal("fetch must not be called when the initial quote already lands in band")
		return nil, nil
	}

	quote, err := Search(context.Background(), fetch, target, big.NewInt(50_000), initial)
	require.NoError(t, err)
	require.Equal(t, initial, quote)
}

func TestSearchZeroTarget(t *testing.T) {
	_, err := Search(context.Background(), linearVenue(10), big.NewInt(0), big.NewInt(100), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchZeroOutput(t *testing.T) {
	fetch := func(_ context.Context, amountIn *big.Int) (*Quote, error) {
		return &Quote{AmountIn: amountIn, AmountOut: big.NewInt(0)}, nil
	}
	_, err := Search(context.Background(), fetch, big.NewInt(500_000), big.NewInt(100), nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSearchNotConverging(t *testing.T) {
	// frozen venue: same output regardless of input
	fetch := func(_ context.Context, amountIn *big.Int) (*Quote, error) {
		return &Quote{AmountIn: amountIn, AmountOut: big.NewInt(100)}, nil
	}
	_, err := Search(context.Background(), fetch, big.NewInt(500_000), big.NewInt(1_000), nil)
	require.ErrorIs(t, err, ErrNotConverging)
}

func TestSearchIterationLimit(t *testing.T) {
	// outputs oscillate around the band without ever landing in it
	target := big.NewInt(500_000)
	calls := 0
	fetch := func(_ context.Context, amountIn *big.Int) (*Quote, error) {
		calls++
		out := big.NewInt(499_000)
		if calls%2 == 0 {
			out = big.NewInt(503_000)
		}
		return &Quote{AmountIn: amountIn, AmountOut: out}, nil
	}

	_, err := Search(context.Background(), fetch, target, big.NewInt(50_000), nil)
	require.ErrorIs(t, err, ErrIterationLimit)
	require.Equal(t, 16, calls)
}

func TestSearchBoundExceeded(t *testing.T) {
	// venue output stays far below target, pushing the input past 2x the
	// initial estimate
	calls := int64(0)
	fetch := func(_ context.Context, amountIn *big.Int) (*Quote, error) {
		calls++
		return &Quote{AmountIn: amountIn, AmountOut: big.NewInt(calls)}, nil
	}

	_, err := Search(context.Background(), fetch, big.NewInt(500_000), big.NewInt(100), nil)
	require.ErrorIs(t, err, ErrBoundExceeded)
}

func TestSearchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Search(ctx, linearVenue(10), big.NewInt(500_000), big.NewInt(100), nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestInBand(t *testing.T) {
	target := big.NewInt(500_000)
	testCases := []struct {
		name     string
		amount   *big.Int
		expected bool
	}{
		{name: "below target", amount: big.NewInt(499_999), expected: false},
		{name: "exactly target", amount: big.NewInt(500_000), expected: true},
		{name: "inside band", amount: big.NewInt(502_000), expected: true},
		{name: "band ceiling", amount: big.NewInt(502_500), expected: true},
		{name: "ratio truncates toward ceiling", amount: big.NewInt(502_999), expected: true},
		{name: "above ceiling", amount: big.NewInt(503_000), expected: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, InBand(target, tc.amount))
		})
	}
}
