package plan

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplySlippage(t *testing.T) {
	testCases := []struct {
		name     string
		amount   *big.Int
		slippage float64
		up       bool
		expected *big.Int
		errMsg   string
	}{
		{
			name:     "one percent down",
			amount:   big.NewInt(1_000_000),
			slippage: 1,
			up:       false,
			expected: big.NewInt(990_000),
		},
		{
			name:     "one percent up",
			amount:   big.NewInt(1_000_000),
			slippage: 1,
			up:       true,
			expected: big.NewInt(1_010_000),
		},
		{
			name:     "fractional percent rounds at ppm",
			amount:   big.NewInt(1_000_000),
			slippage: 0.0001, // 1 ppm
			up:       false,
			expected: big.NewInt(999_999),
		},
		{
			name:     "zero slippage is identity",
			amount:   big.NewInt(123_456_789),
			slippage: 0,
			up:       false,
			expected: big.NewInt(123_456_789),
		},
		{
			name:     "hundred percent down is zero",
			amount:   big.NewInt(42),
			slippage: 100,
			up:       false,
			expected: big.NewInt(0),
		},
		{
			name:     "truncates toward zero",
			amount:   big.NewInt(3),
			slippage: 1,
			up:       false,
			expected: big.NewInt(2), // 2.97 truncated
		},
		{
			name:     "negative rejected",
			amount:   big.NewInt(1),
			slippage: -0.5,
			errMsg:   "bad slippage",
		},
		{
			name:     "over hundred rejected",
			amount:   big.NewInt(1),
			slippage: 100.5,
			errMsg:   "bad slippage",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ApplySlippage(tc.amount, tc.slippage, tc.up)
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected.String(), result.String())
		})
	}
}

func TestApplySlippageDoesNotMutateInput(t *testing.T) {
	amount := big.NewInt(1_000_000)
	_, err := ApplySlippage(amount, 5, false)
	require.NoError(t, err)
	require.Equal(t, "1000000", amount.String())
}

func TestAdjustForInterest(t *testing.T) {
	testCases := []struct {
		name     string
		amount   *big.Int
		expected *big.Int
	}{
		{name: "one bps bump", amount: big.NewInt(10_000), expected: big.NewInt(10_001)},
		{name: "truncates", amount: big.NewInt(100), expected: big.NewInt(100)},
		{name: "zero", amount: big.NewInt(0), expected: big.NewInt(0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected.String(), AdjustForInterest(tc.amount).String())
		})
	}
}

func TestEstimateAmountIn(t *testing.T) {
	testCases := []struct {
		name        string
		unitOut     *big.Int
		target      *big.Int
		srcDecimals uint8
		dstDecimals uint8
		expected    *big.Int
		errMsg      string
	}{
		{
			// 1e18 in -> 2e6 out, want 4e6 out => 2e18 in
			name:        "higher source decimals",
			unitOut:     big.NewInt(2_000_000),
			target:      big.NewInt(4_000_000),
			srcDecimals: 18,
			dstDecimals: 6,
			expected:    new(big.Int).Mul(big.NewInt(2), exp10(18)),
		},
		{
			// 1e6 in -> 5e17 out, want 1e18 out => 2e6 in
			name:        "lower source decimals",
			unitOut:     new(big.Int).Mul(big.NewInt(5), exp10(17)),
			target:      exp10(18),
			srcDecimals: 6,
			dstDecimals: 18,
			expected:    big.NewInt(2_000_000),
		},
		{
			name:        "equal decimals",
			unitOut:     exp10(18),
			target:      new(big.Int).Mul(big.NewInt(3), exp10(18)),
			srcDecimals: 18,
			dstDecimals: 18,
			expected:    new(big.Int).Mul(big.NewInt(3), exp10(18)),
		},
		{
			name:    "zero unit quote rejected",
			unitOut: big.NewInt(0),
			target:  big.NewInt(1),
			errMsg:  "zero unit quote",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := EstimateAmountIn(tc.unitOut, tc.target, tc.srcDecimals, tc.dstDecimals)
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected.String(), result.String())
		})
	}
}

func exp10(d int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(d), nil)
}
