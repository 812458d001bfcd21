package plan

import (
	"fmt"
	"math"
	"math/big"
)

var ppmScale = big.NewInt(1_000_000)

// ApplySlippage scales amount by the slippage tolerance, expressed in
// percent. With up=false it computes a minimum acceptable output (rounding
// down); with up=true a maximum acceptable input. All arithmetic is integer
// fixed-point at parts-per-million to avoid floating drift on token units.
func ApplySlippage(amount *big.Int, slippagePercent float64, up bool) (*big.Int, error) {
	if slippagePercent < 0 || slippagePercent > 100 {
		return nil, fmt.Errorf("bad slippage: %v", slippagePercent)
	}

	scaled := big.NewInt(int64(math.Round(slippagePercent * 10_000)))
	if up {
		scaled.Neg(scaled)
	}

	out := new(big.Int).Sub(ppmScale, scaled)
	out.Mul(out, amount)
	return out.Quo(out, ppmScale), nil
}

// AdjustForInterest bumps a target debt figure by 1bps to cover interest
// accrued between quoting and execution.
func AdjustForInterest(debtAmount *big.Int) *big.Int {
	out := new(big.Int).Mul(debtAmount, big.NewInt(10_001))
	return out.Quo(out, big.NewInt(10_000))
}

// EstimateAmountIn scales a unit quote's output to the target output and
// derives the input amount at that price, adjusting for decimal scale.
func EstimateAmountIn(unitAmountOut, targetAmountOut *big.Int, srcDecimals, dstDecimals uint8) (*big.Int, error) {
	if unitAmountOut.Sign() == 0 {
		return nil, fmt.Errorf("zero unit quote")
	}
	pow := func(d uint8) *big.Int {
		return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d)), nil)
	}

	est := new(big.Int).Mul(targetAmountOut, pow(dstDecimals))
	if srcDecimals > dstDecimals {
		est.Mul(est, pow(srcDecimals-dstDecimals))
		return est.Quo(est, unitAmountOut), nil
	}
	est.Quo(est, pow(dstDecimals-srcDecimals))
	return est.Quo(est, unitAmountOut), nil
}
