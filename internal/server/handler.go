package server

import (
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/evault-labs/swap-router/internal/swap"
)

const defaultDeadlineWindow = 30 * time.Minute

// SwapRequest is the query-string form of a swap request. Amounts arrive as
// decimal strings since they routinely exceed 2^53.
type SwapRequest struct {
	ChainID     uint64  `query:"chainId" validate:"required"`
	TokenIn     string  `query:"tokenIn" validate:"required,eth_addr"`
	TokenOut    string  `query:"tokenOut" validate:"required,eth_addr"`
	Amount      string  `query:"amount" validate:"required"`
	Mode        string  `query:"swapperMode" validate:"required,oneof=exact_in target_debt"`
	Slippage    float64 `query:"slippage" validate:"gte=0,lte=100"`
	Origin      string  `query:"origin" validate:"required,eth_addr"`
	Receiver    string  `query:"receiver" validate:"required,eth_addr"`
	AccountIn   string  `query:"accountIn" validate:"required,eth_addr"`
	AccountOut  string  `query:"accountOut" validate:"required,eth_addr"`
	VaultIn     string  `query:"vaultIn" validate:"omitempty,eth_addr"`
	TargetDebt  string  `query:"targetDebt" validate:"omitempty"`
	Deadline    uint64  `query:"deadline"`
	IsRepay     bool    `query:"isRepay"`
	DustAccount string  `query:"dustAccount" validate:"omitempty,eth_addr"`
}

type errorResponse struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"`
}

// Swap returns the single best plan.
func (s *Server) Swap(c echo.Context) error {
	responses, err := s.findSwaps(c)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, responses[0])
}

// Swaps returns every plan, best first.
func (s *Server) Swaps(c echo.Context) error {
	responses, err := s.findSwaps(c)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, responses)
}

func (s *Server) findSwaps(c echo.Context) ([]*swap.Response, error) {
	var req SwapRequest
	if err := c.Bind(&req); err != nil {
		return nil, swap.NewBadRequest(err.Error(), nil)
	}
	if err := s.validator.Struct(&req); err != nil {
		return nil, swap.NewBadRequest(err.Error(), nil)
	}

	params, err := s.toParams(req)
	if err != nil {
		return nil, err
	}

	requestID := c.Request().Header.Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"chain_id":   params.ChainID,
		"mode":       params.Mode.String(),
		"token_in":   params.TokenIn.Symbol,
		"token_out":  params.TokenOut.Symbol,
	}).Info("find swaps")

	return s.runner.FindSwaps(c.Request().Context(), params)
}

func (s *Server) fail(c echo.Context, err error) error {
	se := swap.AsError(err)
	if se.Status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("swap request failed")
	}
	return c.JSON(se.Status, errorResponse{Error: se.Message, Data: se.Data})
}

// toParams resolves the request against the token cache and the contract
// book. An unknown token is a client error, not a routing miss.
func (s *Server) toParams(req SwapRequest) (swap.Params, error) {
	var p swap.Params

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		return p, swap.NewBadRequest("amount must be a positive decimal string", nil)
	}

	tokenIn, found := s.tokens.Find(req.ChainID, common.HexToAddress(req.TokenIn))
	if !found {
		return p, swap.NewBadRequest("tokenIn not found in token list", req.TokenIn)
	}
	tokenOut, found := s.tokens.Find(req.ChainID, common.HexToAddress(req.TokenOut))
	if !found {
		return p, swap.NewBadRequest("tokenOut not found in token list", req.TokenOut)
	}

	mode := swap.ModeExactIn
	if req.Mode == "target_debt" {
		mode = swap.ModeTargetDebt
	}

	from, err := s.book.SwapperFor(req.ChainID)
	if err != nil {
		return p, swap.NewNotFound(err.Error(), nil)
	}

	deadline := req.Deadline
	if deadline == 0 {
		deadline = uint64(time.Now().Add(defaultDeadlineWindow).Unix())
	}

	accountOut := common.HexToAddress(req.AccountOut)
	dustAccount := accountOut
	if req.DustAccount != "" {
		dustAccount = common.HexToAddress(req.DustAccount)
	}

	p = swap.Params{
		ChainID:     req.ChainID,
		TokenIn:     tokenIn,
		TokenOut:    tokenOut,
		Amount:      amount,
		Mode:        mode,
		Slippage:    req.Slippage,
		Origin:      common.HexToAddress(req.Origin),
		Receiver:    common.HexToAddress(req.Receiver),
		AccountIn:   common.HexToAddress(req.AccountIn),
		AccountOut:  accountOut,
		VaultIn:     common.HexToAddress(req.VaultIn),
		Deadline:    deadline,
		IsRepay:     req.IsRepay,
		DustAccount: dustAccount,
		From:        from,
	}

	if req.TargetDebt != "" {
		targetDebt, ok := new(big.Int).SetString(req.TargetDebt, 10)
		if !ok {
			return p, swap.NewBadRequest("targetDebt must be a decimal string", nil)
		}
		p.TargetDebt = targetDebt
	}
	return p, nil
}
