package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evault-labs/swap-router/internal/swap"
)

func TestDefaultRouting(t *testing.T) {
	routing := DefaultRouting()

	for chainID, pipeline := range routing {
		require.NotEmpty(t, pipeline, "chain %d has an empty pipeline", chainID)

		// repays must be intercepted before the aggregator runs
		first := pipeline[0]
		require.Equal(t, swap.KindRepayWrapper, first.Strategy)
		require.True(t, first.Match.IsRepay)
		require.Equal(t, []swap.SwapperMode{swap.ModeExactIn}, first.Match.SwapperModes)

		last := pipeline[len(pipeline)-1]
		require.Equal(t, swap.KindAggregator, last.Strategy)
	}

	// hyperevm narrows the venue set instead of dropping the chain
	hyper := routing[999]
	require.NotEmpty(t, hyper)
	require.NotNil(t, hyper[len(hyper)-1].Config)
}

func TestRoutingTableOverride(t *testing.T) {
	cfg := &Config{}
	require.Equal(t, DefaultRouting(), cfg.RoutingTable())

	override := map[uint64][]swap.RoutingItem{
		1: {{Strategy: swap.KindAggregator}},
	}
	cfg.Routing = override
	require.Equal(t, override, cfg.RoutingTable())
}
