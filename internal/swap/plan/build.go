package plan

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/evault-labs/swap-router/internal/contracts"
	"github.com/evault-labs/swap-router/internal/swap"
)

// BuildExactInResponse turns a venue quote into an exact-input plan:
// optional approve, swap through the generic handler, optional sweep to the
// receiver, verified by SkimMin on the receiver vault.
func BuildExactInResponse(book *contracts.Book, p swap.Params, q *swap.Quote) (*swap.Response, error) {
	amountOutMin, err := ApplySlippage(q.AmountOut, p.Slippage, false)
	if err != nil {
		return nil, err
	}

	var items []swap.MulticallItem

	if q.AllowanceTarget != nil {
		approve, err := EncodeApproveItem(p.TokenIn.Address, *q.AllowanceTarget)
		if err != nil {
			return nil, err
		}
		items = append(items, approve)
	}

	swapItem, err := EncodeSwapItem(SwapCallArgs{
		Handler:   HandlerGeneric,
		Mode:      big.NewInt(int64(swap.ModeExactIn)),
		Account:   p.AccountOut,
		TokenIn:   p.TokenIn.Address,
		TokenOut:  p.TokenOut.Address,
		VaultIn:   p.VaultIn,
		AccountIn: p.AccountIn,
		Receiver:  p.Receiver,
		AmountOut: big.NewInt(0), // ignored in exact in
		Data:      q.Data,
	})
	if err != nil {
		return nil, err
	}
	items = append(items, swapItem)

	if q.ShouldTransferToReceiver {
		sweep, err := EncodeSweepItem(p.TokenOut.Address, big.NewInt(0), p.Receiver)
		if err != nil {
			return nil, err
		}
		items = append(items, sweep)
	}

	call, err := BuildSwapCall(p.From, items)
	if err != nil {
		return nil, err
	}

	verify, err := BuildVerifySkimMin(book, p.ChainID, p.Receiver, p.AccountOut, amountOutMin, p.Deadline)
	if err != nil {
		return nil, err
	}

	return &swap.Response{
		AmountIn:     p.Amount.String(),
		AmountInMax:  p.Amount.String(),
		AmountOut:    q.AmountOut.String(),
		AmountOutMin: amountOutMin.String(),
		VaultIn:      p.VaultIn,
		Receiver:     p.Receiver,
		AccountIn:    p.AccountIn,
		AccountOut:   p.AccountOut,
		TokenIn:      p.TokenIn,
		TokenOut:     p.TokenOut,
		Slippage:     p.Slippage,
		Route:        q.Route(),
		Swap:         call,
		Verify:       verify,
	}, nil
}

// TargetDebtItems encodes the swap as an exact-in call with an explicit
// expected output equal to the target debt, followed by the repay tail.
func TargetDebtItems(p swap.Params, venuePayload []byte) ([]swap.MulticallItem, error) {
	swapItem, err := EncodeSwapItem(SwapCallArgs{
		Handler:   HandlerGeneric,
		Mode:      big.NewInt(int64(swap.ModeExactIn)),
		Account:   p.AccountOut,
		TokenIn:   p.TokenIn.Address,
		TokenOut:  p.TokenOut.Address,
		VaultIn:   p.VaultIn,
		AccountIn: p.AccountIn,
		Receiver:  p.Receiver,
		AmountOut: p.TargetDebt,
		Data:      venuePayload,
	})
	if err != nil {
		return nil, err
	}
	items := []swap.MulticallItem{swapItem}

	tail, err := RepayAndSweepItems(p)
	if err != nil {
		return nil, err
	}
	return append(items, tail...), nil
}

// RepayAndSweepItems encodes the repay, dust deposit and conditional input
// leftover deposit that settle a target-debt swap.
func RepayAndSweepItems(p swap.Params) ([]swap.MulticallItem, error) {
	var items []swap.MulticallItem

	// The sentinel tells the contract to compute the exact repay amount
	// on-chain; full max is reserved for closing the whole debt.
	repayAmount := new(big.Int).Set(maxUint256)
	if p.TargetDebt != nil && p.TargetDebt.Sign() != 0 {
		repayAmount.Sub(repayAmount, big.NewInt(1))
	}

	repay, err := EncodeRepayItem(p.TokenOut.Address, p.Receiver, repayAmount, p.AccountOut)
	if err != nil {
		return nil, err
	}
	dust, err := EncodeDepositItem(p.TokenOut.Address, p.Receiver, dustDepositMin, p.DustAccount)
	if err != nil {
		return nil, err
	}
	items = append(items, repay, dust)

	if p.VaultIn != (common.Address{}) {
		deposit, err := EncodeDepositItem(p.TokenIn.Address, p.VaultIn, dustDepositMin, p.AccountIn)
		if err != nil {
			return nil, err
		}
		items = append(items, deposit)
	}
	return items, nil
}

// BuildTargetDebtResponse builds the single repay-oriented plan for a solved
// target-debt quote, verified by DebtMax on the liability vault.
func BuildTargetDebtResponse(book *contracts.Book, p swap.Params, q *swap.Quote) (*swap.Response, error) {
	var items []swap.MulticallItem

	if q.AllowanceTarget != nil {
		approve, err := EncodeApproveItem(p.TokenIn.Address, *q.AllowanceTarget)
		if err != nil {
			return nil, err
		}
		items = append(items, approve)
	}

	tail, err := TargetDebtItems(p, q.Data)
	if err != nil {
		return nil, err
	}
	items = append(items, tail...)

	call, err := BuildSwapCall(p.From, items)
	if err != nil {
		return nil, err
	}

	verify, err := BuildVerifyDebtMax(book, p.ChainID, p.Receiver, p.AccountOut, p.TargetDebt, p.Deadline)
	if err != nil {
		return nil, err
	}

	return &swap.Response{
		AmountIn:     q.AmountIn.String(),
		AmountInMax:  q.AmountInMax.String(),
		AmountOut:    q.AmountOut.String(),
		AmountOutMin: q.AmountOutMin.String(),
		VaultIn:      p.VaultIn,
		Receiver:     p.Receiver,
		AccountIn:    p.AccountIn,
		AccountOut:   p.AccountOut,
		TokenIn:      p.TokenIn,
		TokenOut:     p.TokenOut,
		Slippage:     p.Slippage,
		Route:        q.Route(),
		Swap:         call,
		Verify:       verify,
	}, nil
}

// AppendLeftoverDeposits is the uniform finishing step: leftover input
// tokens go back into the source vault when one is configured, leftover
// output dust is deposited for the dust account unless the request opts out.
func AppendLeftoverDeposits(p swap.Params, r *swap.Response) error {
	items := make([]swap.MulticallItem, len(r.Swap.MulticallItems))
	copy(items, r.Swap.MulticallItems)

	if p.VaultIn != (common.Address{}) {
		deposit, err := EncodeDepositItem(p.TokenIn.Address, p.VaultIn, dustDepositMin, p.AccountIn)
		if err != nil {
			return err
		}
		items = append(items, deposit)
	}

	if !p.SkipSweepDepositOut {
		deposit, err := EncodeDepositItem(p.TokenOut.Address, p.Receiver, dustDepositMin, p.DustAccount)
		if err != nil {
			return err
		}
		items = append(items, deposit)
	}

	call, err := BuildSwapCall(p.From, items)
	if err != nil {
		return err
	}
	r.Swap = call
	return nil
}

var priceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// EffectivePrice is amountIn/amountOut at 1e18 fixed-point scale. Lower is
// better for the caller.
func EffectivePrice(q *swap.Quote) *big.Int {
	if q.AmountOut == nil || q.AmountOut.Sign() == 0 {
		return nil
	}
	price := new(big.Int).Mul(q.AmountIn, priceScale)
	return price.Quo(price, q.AmountOut)
}

// SortQuotes orders quotes best-to-worst: ascending by effective price.
// Quotes with zero output sort last.
func SortQuotes(quotes []*swap.Quote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		pi, pj := EffectivePrice(quotes[i]), EffectivePrice(quotes[j])
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return pi.Cmp(pj) < 0
	})
}

// FilterValid drops quotes without usable output amounts.
func FilterValid(quotes []*swap.Quote) []*swap.Quote {
	out := quotes[:0]
	for _, q := range quotes {
		if q.AmountOut != nil && q.AmountOut.Sign() > 0 {
			out = append(out, q)
		}
	}
	return out
}
