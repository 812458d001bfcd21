package tokens

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/evault-labs/swap-router/internal/swap"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

var wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

func tokenListServer(t *testing.T, fail *atomic.Bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail != nil && fail.Load() {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		require.Equal(t, "1", r.URL.Query().Get("chainId"))
		tokens := []swap.Token{
			{Address: wethAddr, ChainID: 1, Decimals: 18, Symbol: "WETH", Name: "Wrapped Ether"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(tokens))
	}))
}

func TestCacheRefreshAndFind(t *testing.T) {
	srv := tokenListServer(t, nil)
	defer srv.Close()

	c := NewCache(Config{URL: srv.URL, ChainIDs: []uint64{1}}, nil, testLogger())
	require.NoError(t, c.Refresh(context.Background()))

	token, found := c.Find(1, wethAddr)
	require.True(t, found)
	require.Equal(t, "WETH", token.Symbol)
	require.Equal(t, uint8(18), token.Decimals)

	_, found = c.Find(1, common.HexToAddress("0x0000000000000000000000000000000000000001"))
	require.False(t, found)

	require.Len(t, c.List(1), 1)
	require.Empty(t, c.List(8453))
}

func TestCacheKeepsSnapshotOnFetchFailure(t *testing.T) {
	var fail atomic.Bool
	srv := tokenListServer(t, &fail)
	defer srv.Close()

	c := NewCache(Config{URL: srv.URL, ChainIDs: []uint64{1}}, nil, testLogger())
	require.NoError(t, c.Refresh(context.Background()))

	fail.Store(true)
	require.NoError(t, c.Refresh(context.Background())) // previous snapshot covers the chain

	_, found := c.Find(1, wethAddr)
	require.True(t, found)
}

func TestCacheReportsFailureWithoutSnapshot(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := tokenListServer(t, &fail)
	defer srv.Close()

	c := NewCache(Config{URL: srv.URL, ChainIDs: []uint64{1}}, nil, testLogger())
	err := c.Refresh(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "fail to fetch token list for chain 1")
}

func TestCacheMissingURL(t *testing.T) {
	c := NewCache(Config{ChainIDs: []uint64{1}}, nil, testLogger())
	err := c.Refresh(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "token list url not configured")
}
