// Package plan turns chosen quotes into ordered, ABI-exact multicall plans
// plus the verifier payloads the on-chain contract checks before accepting
// a batch.
package plan

import (
	"fmt"
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/evault-labs/swap-router/internal/contracts"
	"github.com/evault-labs/swap-router/internal/swap"
)

// HandlerGeneric routes the venue payload through the swapper's generic
// handler. The tag is the handler name left-aligned in a bytes32.
var HandlerGeneric = handlerTag("Generic")

func handlerTag(name string) [32]byte {
	var tag [32]byte
	copy(tag[:], name)
	return tag
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// dustDepositMin is deposited instead of zero to avoid the zero-shares
// revert on tokenized vault deposits.
var dustDepositMin = big.NewInt(5)

// SwapCallArgs mirrors the swapper contract's SwapParams struct.
type SwapCallArgs struct {
	Handler   [32]byte
	Mode      *big.Int
	Account   common.Address
	TokenIn   common.Address
	TokenOut  common.Address
	VaultIn   common.Address
	AccountIn common.Address
	Receiver  common.Address
	AmountOut *big.Int
	Data      []byte
}

func (a SwapCallArgs) decoded() map[string]any {
	return map[string]any{
		"handler":   fmt.Sprintf("0x%x", a.Handler),
		"mode":      a.Mode.String(),
		"account":   a.Account,
		"tokenIn":   a.TokenIn,
		"tokenOut":  a.TokenOut,
		"vaultIn":   a.VaultIn,
		"accountIn": a.AccountIn,
		"receiver":  a.Receiver,
		"amountOut": a.AmountOut.String(),
		"data":      fmt.Sprintf("0x%x", a.Data),
	}
}

var addressBytesArgs ethabi.Arguments

func init() {
	addressType, err := ethabi.NewType("address", "", nil)
	if err != nil {
		panic(fmt.Sprintf("fail to build address abi type: %v", err))
	}
	bytesType, err := ethabi.NewType("bytes", "", nil)
	if err != nil {
		panic(fmt.Sprintf("fail to build bytes abi type: %v", err))
	}
	addressBytesArgs = ethabi.Arguments{{Type: addressType}, {Type: bytesType}}
}

// PackVenueCall wraps a venue call target and its calldata into the payload
// the generic handler expects: abi(address, bytes).
func PackVenueCall(to common.Address, data []byte) ([]byte, error) {
	return addressBytesArgs.Pack(to, data)
}

// EncodeSwapItem encodes one swap multicall item.
func EncodeSwapItem(args SwapCallArgs) (swap.MulticallItem, error) {
	data, err := contracts.SwapperABI().Pack("swap", args)
	if err != nil {
		return swap.MulticallItem{}, fmt.Errorf("fail to encode swap call: %w", err)
	}
	return swap.MulticallItem{Function: "swap", Args: args.decoded(), Data: data}, nil
}

// EncodeApproveItem encodes a max-allowance approval for the quote's
// allowance target. It rides through the generic swap handler with all swap
// fields zeroed, carrying (token, approve calldata) as the payload.
func EncodeApproveItem(token, spender common.Address) (swap.MulticallItem, error) {
	approveData, err := contracts.ERC20ABI().Pack("approve", spender, maxUint256)
	if err != nil {
		return swap.MulticallItem{}, fmt.Errorf("fail to encode approve: %w", err)
	}
	payload, err := PackVenueCall(token, approveData)
	if err != nil {
		return swap.MulticallItem{}, fmt.Errorf("fail to wrap approve payload: %w", err)
	}
	return EncodeSwapItem(SwapCallArgs{
		Handler:   HandlerGeneric,
		Mode:      big.NewInt(int64(swap.ModeExactIn)),
		AmountOut: big.NewInt(0),
		Data:      payload,
	})
}

// EncodeTransferItem encodes an ERC20 transfer executed through the generic
// handler, used by wrapper strategies to move tokens inside the batch.
func EncodeTransferItem(token common.Address, amount *big.Int, receiver common.Address) (swap.MulticallItem, error) {
	transferData, err := contracts.ERC20ABI().Pack("transfer", receiver, amount)
	if err != nil {
		return swap.MulticallItem{}, fmt.Errorf("fail to encode transfer: %w", err)
	}
	payload, err := PackVenueCall(token, transferData)
	if err != nil {
		return swap.MulticallItem{}, fmt.Errorf("fail to wrap transfer payload: %w", err)
	}
	return EncodeSwapItem(SwapCallArgs{
		Handler:   HandlerGeneric,
		Mode:      big.NewInt(int64(swap.ModeExactIn)),
		TokenIn:   token,
		TokenOut:  token,
		AmountOut: big.NewInt(0),
		Data:      payload,
	})
}

func encodeSimpleItem(function string, args any, packArgs ...any) (swap.MulticallItem, error) {
	data, err := contracts.SwapperABI().Pack(function, packArgs...)
	if err != nil {
		return swap.MulticallItem{}, fmt.Errorf("fail to encode %s call: %w", function, err)
	}
	return swap.MulticallItem{Function: function, Args: args, Data: data}, nil
}

func EncodeDepositItem(token, vault common.Address, amountMin *big.Int, account common.Address) (swap.MulticallItem, error) {
	return encodeSimpleItem("deposit",
		[]string{token.Hex(), vault.Hex(), amountMin.String(), account.Hex()},
		token, vault, amountMin, account)
}

func EncodeRepayItem(token, vault common.Address, repayAmount *big.Int, account common.Address) (swap.MulticallItem, error) {
	return encodeSimpleItem("repay",
		[]string{token.Hex(), vault.Hex(), repayAmount.String(), account.Hex()},
		token, vault, repayAmount, account)
}

func EncodeRepayAndDepositItem(token, vault common.Address, repayAmount *big.Int, account common.Address) (swap.MulticallItem, error) {
	return encodeSimpleItem("repayAndDeposit",
		[]string{token.Hex(), vault.Hex(), repayAmount.String(), account.Hex()},
		token, vault, repayAmount, account)
}

func EncodeSweepItem(token common.Address, amountMin *big.Int, to common.Address) (swap.MulticallItem, error) {
	return encodeSimpleItem("sweep",
		[]string{token.Hex(), amountMin.String(), to.Hex()},
		token, amountMin, to)
}

// BuildSwapCall packs the ordered multicall items into the outer multicall.
// Item order is fixed by the caller and never changed here.
func BuildSwapCall(swapper common.Address, items []swap.MulticallItem) (swap.SwapCall, error) {
	calls := make([][]byte, len(items))
	for i, item := range items {
		calls[i] = item.Data
	}
	data, err := contracts.SwapperABI().Pack("multicall", calls)
	if err != nil {
		return swap.SwapCall{}, fmt.Errorf("fail to encode multicall: %w", err)
	}
	return swap.SwapCall{SwapperAddress: swapper, SwapperData: data, MulticallItems: items}, nil
}
