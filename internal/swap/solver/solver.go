// Package solver converges a swap input amount toward a target output
// amount against a black-box quote function. It is venue-agnostic: callers
// run one search per venue, each bounded by its own timeout.
package solver

import (
	"context"
	"errors"
	"math/big"
)

var (
	// ErrNotFound is returned when the target or an intermediate output is
	// zero, meaning the venue cannot price the trade at all.
	ErrNotFound = errors.New("quote not found")
	// ErrNotConverging is returned when two consecutive iterations produce
	// an identical output (dead venue or frozen price).
	ErrNotConverging = errors.New("quote not improving")
	// ErrIterationLimit is returned after maxIterations refinements without
	// landing in the target band.
	ErrIterationLimit = errors.New("search not completed within iteration limit")
	// ErrBoundExceeded is returned when the candidate input exceeds twice
	// the initial estimate, signalling insufficient liquidity.
	ErrBoundExceeded = errors.New("amount in exceeded twice the initial estimate")
)

const maxIterations = 15

// basis points scale used for the per-iteration input adjustment
var (
	bpsScale    = big.NewInt(10_000)
	bandNum     = big.NewInt(1_000)
	bandCeiling = big.NewInt(1_005)
	adjustNudge = big.NewInt(1) // 0.01%, pushes past floating tie conditions
)

// Quote is one observation of the black-box price function.
type Quote struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	// Payload carries the venue's opaque quote alongside the amounts so the
	// winning observation can be turned into a plan without re-quoting.
	Payload any
}

// QuoteFn prices amountIn and returns the resulting quote.
type QuoteFn func(ctx context.Context, amountIn *big.Int) (*Quote, error)

// InBand reports whether amountOut lies within [target, target*1.005], the
// overswap band that absorbs interest accrued between quote and execution.
func InBand(target, amountOut *big.Int) bool {
	if amountOut.Cmp(target) < 0 {
		return false
	}
	ratio := new(big.Int).Mul(amountOut, bandNum)
	ratio.Quo(ratio, target)
	return ratio.Cmp(bandCeiling) <= 0
}

// Search iterates the quote function until the output lands in the target
// band. The initial estimate seeds the search; when initial is non-nil its
// quote is reused for the first iteration, saving one round-trip. Each next
// input is the previous scaled by one plus the relative output error, with
// a 0.01% nudge in the adjustment direction.
func Search(ctx context.Context, fetch QuoteFn, target, initialAmountIn *big.Int, initial *Quote) (*Quote, error) {
	if target.Sign() == 0 {
		return nil, ErrNotFound
	}

	change := new(big.Int).Set(bpsScale) // 100%, no change
	amountIn := new(big.Int).Set(initialAmountIn)
	bound := new(big.Int).Mul(initialAmountIn, big.NewInt(2))

	var (
		quote   *Quote
		prevOut *big.Int
	)

	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		amountIn = new(big.Int).Quo(new(big.Int).Mul(amountIn, change), bpsScale)

		if iter == 0 && initial != nil {
			quote = initial
			amountIn = new(big.Int).Set(initial.AmountIn)
		} else {
			var err error
			quote, err = fetch(ctx, amountIn)
			if err != nil {
				return nil, err
			}
		}
		amountOut := quote.AmountOut

		if prevOut != nil && prevOut.Cmp(amountOut) == 0 {
			return nil, ErrNotConverging
		}
		prevOut = amountOut

		if amountOut.Sign() == 0 {
			return nil, ErrNotFound
		}

		if InBand(target, amountOut) {
			return quote, nil
		}

		diff := new(big.Int)
		if amountOut.Cmp(target) > 0 {
			// above target: shrink input by the relative output excess,
			// minus the nudge
			diff.Sub(amountOut, target)
			diff.Mul(diff, bpsScale)
			diff.Quo(diff, target)
			change.Sub(bpsScale, diff)
			change.Sub(change, adjustNudge)
		} else {
			// below target: grow input by the relative output shortfall,
			// plus the nudge
			diff.Sub(target, amountOut)
			diff.Mul(diff, bpsScale)
			diff.Quo(diff, amountOut)
			change.Add(bpsScale, diff)
			change.Add(change, adjustNudge)
		}
		if change.Sign() < 0 {
			change.Neg(change)
		}

		if iter == maxIterations {
			return nil, ErrIterationLimit
		}
		if amountIn.Cmp(bound) > 0 {
			return nil, ErrBoundExceeded
		}
	}
}
