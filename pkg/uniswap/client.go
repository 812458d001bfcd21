// Package uniswap is a minimal v2 router client: read-only price discovery
// through getAmountsOut and calldata construction for the swap itself.
package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const routerABI = `[{
    "name": "getAmountsOut",
    "type": "function",
    "stateMutability": "view",
    "inputs": [
        {"name": "amountIn", "type": "uint256"},
        {"name": "path", "type": "address[]"}
    ],
    "outputs": [{"name": "amounts", "type": "uint256[]"}]
}, {
    "name": "swapExactTokensForTokens",
    "type": "function",
    "inputs": [
        {"name": "amountIn", "type": "uint256"},
        {"name": "amountOutMin", "type": "uint256"},
        {"name": "path", "type": "address[]"},
        {"name": "to", "type": "address"},
        {"name": "deadline", "type": "uint256"}
    ],
    "outputs": [{"name": "amounts", "type": "uint256[]"}]
}]`

type Client struct {
	cfg       *Config
	routerABI abi.ABI
}

func NewClient(cfg *Config) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("fail to parse router abi, err: %w", err)
	}
	return &Client{cfg: cfg, routerABI: parsed}, nil
}

func (c *Client) RouterAddress() common.Address {
	return *c.cfg.routerAddress
}

// GetExpectedAmountOut quotes the router for the output of swapping amountIn
// along path.
func (c *Client) GetExpectedAmountOut(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("swap path must contain at least two tokens")
	}
	input, err := c.routerABI.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("fail to pack getAmountsOut, err: %w", err)
	}

	output, err := c.cfg.rpcClient.CallContract(ctx, ethereum.CallMsg{
		To:   c.cfg.routerAddress,
		Data: input,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("fail to call getAmountsOut, err: %w", err)
	}

	results, err := c.routerABI.Unpack("getAmountsOut", output)
	if err != nil {
		return nil, fmt.Errorf("fail to unpack getAmountsOut, err: %w", err)
	}
	amounts, ok := results[0].([]*big.Int)
	if !ok || len(amounts) != len(path) {
		return nil, fmt.Errorf("unexpected getAmountsOut result")
	}
	return amounts[len(amounts)-1], nil
}

// PackSwapCall builds the swapExactTokensForTokens calldata.
func (c *Client) PackSwapCall(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	data, err := c.routerABI.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, to, deadline)
	if err != nil {
		return nil, fmt.Errorf("fail to pack swapExactTokensForTokens, err: %w", err)
	}
	return data, nil
}
