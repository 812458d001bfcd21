package venues

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

const gluexDefaultBaseURL = "https://router.gluex.xyz"

// gluexChainNames maps chain ids to the router API's chain identifiers.
var gluexChainNames = map[uint64]string{
	1:    "ethereum",
	8453: "base",
	999:  "hyperevm",
}

type GlueXConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	IntegratorID string        `mapstructure:"integrator_id"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// GlueX is a thin adapter over the GlueX router API. The venue supports
// delivering output directly to a third-party receiver.
type GlueX struct {
	cfg    GlueXConfig
	client *http.Client
	logger *logrus.Entry
}

func NewGlueX(cfg GlueXConfig, logger *logrus.Logger) *GlueX {
	if cfg.BaseURL == "" {
		cfg.BaseURL = gluexDefaultBaseURL
	}
	return &GlueX{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		logger: logger.WithField("venue", "gluex"),
	}
}

func (g *GlueX) ID() string   { return "gluex" }
func (g *GlueX) Name() string { return "GlueX" }

func (g *GlueX) SupportsChain(chainID uint64) bool {
	_, ok := gluexChainNames[chainID]
	return ok
}

func (g *GlueX) SwapAndTransfer() bool { return true }

type gluexQuoteRequest struct {
	ChainID        string  `json:"chainID"`
	InputToken     string  `json:"inputToken"`
	OutputToken    string  `json:"outputToken"`
	InputAmount    string  `json:"inputAmount"`
	OrderType      string  `json:"orderType"`
	UserAddress    string  `json:"userAddress"`
	OutputReceiver string  `json:"outputReceiver"`
	UniquePID      string  `json:"uniquePID"`
	Slippage       float64 `json:"slippage"`
}

type gluexQuoteResponse struct {
	Result struct {
		OutputAmount string        `json:"outputAmount"`
		Router       string        `json:"router"`
		Calldata     hexutil.Bytes `json:"calldata"`
		Revert       bool          `json:"revert"`
		LowBalance   bool          `json:"lowBalance"`
	} `json:"result"`
}

func (g *GlueX) Quote(ctx context.Context, req Request) (*Offer, error) {
	chainName, ok := gluexChainNames[req.ChainID]
	if !ok {
		return nil, ErrUnsupportedChain
	}
	if req.Side != OrderSell {
		return nil, fmt.Errorf("gluex: buy orders not supported")
	}

	recipient := req.Recipient
	if recipient == (common.Address{}) {
		recipient = req.Taker
	}

	body := gluexQuoteRequest{
		ChainID:        chainName,
		InputToken:     req.SellToken.Hex(),
		OutputToken:    req.BuyToken.Hex(),
		InputAmount:    req.Amount.String(),
		OrderType:      "SELL",
		UserAddress:    req.Taker.Hex(),
		OutputReceiver: recipient.Hex(),
		UniquePID:      g.cfg.IntegratorID,
		Slippage:       req.Slippage,
	}

	var res gluexQuoteResponse
	headers := map[string]string{"x-api-key": g.cfg.APIKey}
	if err := httpJSON(ctx, g.client, http.MethodPost, g.cfg.BaseURL+"/v1/quote", headers, body, &res); err != nil {
		return nil, fmt.Errorf("fail to fetch gluex quote: %w", err)
	}

	amountOut, ok := new(big.Int).SetString(res.Result.OutputAmount, 10)
	if !ok {
		return nil, fmt.Errorf("gluex: bad output amount %q", res.Result.OutputAmount)
	}
	if res.Result.Revert || res.Result.LowBalance {
		// quote is still usable, simulation warnings are the caller's
		// problem at submit time
		g.logger.WithFields(logrus.Fields{
			"revert":     res.Result.Revert,
			"lowBalance": res.Result.LowBalance,
		}).Warn("quote simulation warning")
	}

	minOut, err := slippageDown(amountOut, req.Slippage)
	if err != nil {
		return nil, err
	}

	return &Offer{
		Venue:        g.Name(),
		AmountIn:     new(big.Int).Set(req.Amount),
		AmountInMax:  new(big.Int).Set(req.Amount),
		AmountOut:    amountOut,
		AmountOutMin: minOut,
		To:           common.HexToAddress(res.Result.Router),
		CallData:     res.Result.Calldata,
	}, nil
}

// slippageDown computes amount*(1-percent/100) with ppm integer scaling.
func slippageDown(amount *big.Int, percent float64) (*big.Int, error) {
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("bad slippage: %v", percent)
	}
	scaled := big.NewInt(int64(percent * 10_000))
	out := new(big.Int).Sub(big.NewInt(1_000_000), scaled)
	out.Mul(out, amount)
	return out.Quo(out, big.NewInt(1_000_000)), nil
}
