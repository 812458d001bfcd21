package venues

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/evault-labs/swap-router/pkg/uniswap"
)

type UniswapConfig struct {
	RPCURL  string `mapstructure:"rpc_url"`
	Router  string `mapstructure:"router"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// Uniswap quotes directly against a v2 router over RPC, with no external
// quote API in the path. Single-hop only; the router pays out to an
// arbitrary recipient.
type Uniswap struct {
	cfg    UniswapConfig
	client *uniswap.Client
	logger *logrus.Entry
}

func NewUniswap(cfg UniswapConfig, logger *logrus.Logger) (*Uniswap, error) {
	rpcClient, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("fail to connect to RPC: %w", err)
	}
	router := common.HexToAddress(cfg.Router)
	client, err := uniswap.NewClient(uniswap.NewConfig(rpcClient, &router))
	if err != nil {
		return nil, err
	}
	return &Uniswap{
		cfg:    cfg,
		client: client,
		logger: logger.WithField("venue", "uniswap"),
	}, nil
}

func (u *Uniswap) ID() string   { return "uniswap" }
func (u *Uniswap) Name() string { return "UniswapV2" }

func (u *Uniswap) SupportsChain(chainID uint64) bool {
	return chainID == u.cfg.ChainID
}

func (u *Uniswap) SwapAndTransfer() bool { return true }

func (u *Uniswap) Quote(ctx context.Context, req Request) (*Offer, error) {
	if !u.SupportsChain(req.ChainID) {
		return nil, ErrUnsupportedChain
	}
	if req.Side != OrderSell {
		return nil, fmt.Errorf("uniswap: buy orders not supported")
	}

	path := []common.Address{req.SellToken, req.BuyToken}
	amountOut, err := u.client.GetExpectedAmountOut(ctx, req.Amount, path)
	if err != nil {
		return nil, fmt.Errorf("fail to fetch uniswap quote: %w", err)
	}

	minOut, err := slippageDown(amountOut, req.Slippage)
	if err != nil {
		return nil, err
	}

	recipient := req.Recipient
	if recipient == (common.Address{}) {
		recipient = req.Taker
	}
	deadline := big.NewInt(time.Now().Add(20 * time.Minute).Unix())

	callData, err := u.client.PackSwapCall(req.Amount, minOut, path, recipient, deadline)
	if err != nil {
		return nil, err
	}

	router := u.client.RouterAddress()
	return &Offer{
		Venue:           u.Name(),
		AmountIn:        new(big.Int).Set(req.Amount),
		AmountInMax:     new(big.Int).Set(req.Amount),
		AmountOut:       amountOut,
		AmountOutMin:    minOut,
		To:              router,
		CallData:        callData,
		AllowanceTarget: &router,
	}, nil
}
