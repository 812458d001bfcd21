package venues

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

const lifiDefaultBaseURL = "https://li.quest"

// lifiChains is the set of chains the aggregator serves for same-chain swaps.
var lifiChains = map[uint64]struct{}{
	1: {}, 10: {}, 56: {}, 137: {}, 8453: {}, 42161: {}, 43114: {}, 59144: {},
}

type LiFiConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LiFi is a thin adapter over the LI.FI aggregator quote API, used for
// same-chain swaps only. It cannot deliver output to third parties.
type LiFi struct {
	cfg    LiFiConfig
	client *http.Client
	logger *logrus.Entry
}

func NewLiFi(cfg LiFiConfig, logger *logrus.Logger) *LiFi {
	if cfg.BaseURL == "" {
		cfg.BaseURL = lifiDefaultBaseURL
	}
	return &LiFi{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		logger: logger.WithField("venue", "lifi"),
	}
}

func (l *LiFi) ID() string   { return "lifi" }
func (l *LiFi) Name() string { return "LiFi" }

func (l *LiFi) SupportsChain(chainID uint64) bool {
	_, ok := lifiChains[chainID]
	return ok
}

func (l *LiFi) SwapAndTransfer() bool { return false }

type lifiQuoteResponse struct {
	TransactionRequest struct {
		To   string        `json:"to"`
		Data hexutil.Bytes `json:"data"`
	} `json:"transactionRequest"`
	Estimate struct {
		ToAmount        string `json:"toAmount"`
		ToAmountMin     string `json:"toAmountMin"`
		ApprovalAddress string `json:"approvalAddress"`
	} `json:"estimate"`
}

func (l *LiFi) Quote(ctx context.Context, req Request) (*Offer, error) {
	if !l.SupportsChain(req.ChainID) {
		return nil, ErrUnsupportedChain
	}
	if req.Side != OrderSell {
		return nil, fmt.Errorf("lifi: buy orders not supported")
	}

	q := url.Values{}
	chain := strconv.FormatUint(req.ChainID, 10)
	q.Set("fromChain", chain)
	q.Set("toChain", chain)
	q.Set("fromToken", req.SellToken.Hex())
	q.Set("toToken", req.BuyToken.Hex())
	q.Set("fromAmount", req.Amount.String())
	q.Set("fromAddress", req.Taker.Hex())
	q.Set("slippage", strconv.FormatFloat(req.Slippage/100, 'f', -1, 64))

	var res lifiQuoteResponse
	headers := map[string]string{}
	if l.cfg.APIKey != "" {
		headers["x-lifi-api-key"] = l.cfg.APIKey
	}
	endpoint := l.cfg.BaseURL + "/v1/quote?" + q.Encode()
	if err := httpJSON(ctx, l.client, http.MethodGet, endpoint, headers, nil, &res); err != nil {
		return nil, fmt.Errorf("fail to fetch lifi quote: %w", err)
	}

	amountOut, ok := new(big.Int).SetString(res.Estimate.ToAmount, 10)
	if !ok {
		return nil, fmt.Errorf("lifi: bad output amount %q", res.Estimate.ToAmount)
	}
	minOut, ok := new(big.Int).SetString(res.Estimate.ToAmountMin, 10)
	if !ok {
		minOut = amountOut
	}

	to := common.HexToAddress(res.TransactionRequest.To)
	offer := &Offer{
		Venue:        l.Name(),
		AmountIn:     new(big.Int).Set(req.Amount),
		AmountInMax:  new(big.Int).Set(req.Amount),
		AmountOut:    amountOut,
		AmountOutMin: minOut,
		To:           to,
		CallData:     res.TransactionRequest.Data,
	}
	if approval := common.HexToAddress(res.Estimate.ApprovalAddress); approval != (common.Address{}) && approval != to {
		offer.AllowanceTarget = &approval
	}
	return offer, nil
}
