package server

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/evault-labs/swap-router/internal/contracts"
	"github.com/evault-labs/swap-router/internal/swap"
	"github.com/evault-labs/swap-router/internal/swap/strategies"
	"github.com/evault-labs/swap-router/internal/tokens"
	"github.com/evault-labs/swap-router/internal/venues"
)

var (
	tokenInAddr  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	tokenOutAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type linearSource struct{}

func (linearSource) ID() string                   { return "linear" }
func (linearSource) Name() string                 { return "Linear" }
func (linearSource) SupportsChain(id uint64) bool { return id == 1 }
func (linearSource) SwapAndTransfer() bool        { return true }
func (linearSource) Quote(_ context.Context, req venues.Request) (*venues.Offer, error) {
	out := new(big.Int).Mul(req.Amount, big.NewInt(2))
	return &venues.Offer{
		Venue:        "Linear",
		AmountIn:     new(big.Int).Set(req.Amount),
		AmountInMax:  new(big.Int).Set(req.Amount),
		AmountOut:    out,
		AmountOutMin: new(big.Int).Set(out),
		To:           common.HexToAddress("0x8888888888888888888888888888888888888888"),
		CallData:     []byte{0x01, 0x02, 0x03, 0x04},
	}, nil
}

func tokenListServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		list := []swap.Token{
			{Address: tokenInAddr, ChainID: 1, Decimals: 18, Symbol: "WETH"},
			{Address: tokenOutAddr, ChainID: 1, Decimals: 6, Symbol: "USDC"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(list))
	}))
}

func testServer(t *testing.T) *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	srv := tokenListServer(t)
	t.Cleanup(srv.Close)

	cache := tokens.NewCache(tokens.Config{URL: srv.URL, ChainIDs: []uint64{1, 8453}}, nil, logger)
	require.NoError(t, cache.Refresh(context.Background()))

	book := contracts.DefaultBook()
	routing := map[uint64][]swap.RoutingItem{
		1: {{Strategy: swap.KindAggregator}},
	}
	runner := strategies.NewRunner(routing, strategies.Deps{
		Sources: venues.NewRegistry(linearSource{}),
		Book:    book,
		Logger:  logger,
	})
	return NewServer(0, runner, cache, book, logger, nil)
}

func swapQuery() url.Values {
	q := url.Values{}
	q.Set("chainId", "1")
	q.Set("tokenIn", tokenInAddr.Hex())
	q.Set("tokenOut", tokenOutAddr.Hex())
	q.Set("amount", "1000000")
	q.Set("swapperMode", "exact_in")
	q.Set("slippage", "1")
	q.Set("origin", "0x3333333333333333333333333333333333333333")
	q.Set("receiver", "0x4444444444444444444444444444444444444444")
	q.Set("accountIn", "0x5555555555555555555555555555555555555555")
	q.Set("accountOut", "0x6666666666666666666666666666666666666666")
	return q
}

func doRequest(t *testing.T, s *Server, handler echo.HandlerFunc, q url.Values) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	return rec
}

func TestSwapHappyPath(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, s.Swap, swapQuery())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp swap.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "1000000", resp.AmountIn)
	require.Equal(t, "2000000", resp.AmountOut)
	require.Equal(t, "1980000", resp.AmountOutMin)
	require.Equal(t, "Linear", resp.Route[0].ProviderName)
	require.NotEmpty(t, resp.Swap.SwapperData)
	require.NotEmpty(t, resp.Verify.VerifierData)
}

func TestSwapsReturnsList(t *testing.T) {
	s := testServer(t)
	rec := doRequest(t, s, s.Swaps, swapQuery())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []swap.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
}

func TestSwapValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(url.Values)
	}{
		{name: "missing token in", mutate: func(q url.Values) { q.Del("tokenIn") }},
		{name: "bad address", mutate: func(q url.Values) { q.Set("tokenIn", "not-an-address") }},
		{name: "bad mode", mutate: func(q url.Values) { q.Set("swapperMode", "exact_out") }},
		{name: "zero amount", mutate: func(q url.Values) { q.Set("amount", "0") }},
		{name: "non numeric amount", mutate: func(q url.Values) { q.Set("amount", "1.5e18") }},
		{name: "slippage above bound", mutate: func(q url.Values) { q.Set("slippage", "101") }},
	}

	s := testServer(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := swapQuery()
			tc.mutate(q)
			rec := doRequest(t, s, s.Swap, q)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSwapUnknownToken(t *testing.T) {
	s := testServer(t)
	q := swapQuery()
	q.Set("tokenIn", "0x000000000000000000000000000000000000dEaD")

	rec := doRequest(t, s, s.Swap, q)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "tokenIn not found")
}

func TestSwapRoutingMiss(t *testing.T) {
	s := testServer(t)
	q := swapQuery()
	q.Set("chainId", "8453")

	rec := doRequest(t, s, s.Swap, q)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
