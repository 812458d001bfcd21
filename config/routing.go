package config

import "github.com/evault-labs/swap-router/internal/swap"

// Default per-chain routing. Every chain runs the repay wrapper first, so
// exact-input repays get reframed before the aggregator sees them, then the
// aggregator for everything else. Chains with thin venue coverage narrow the
// aggregator's source filter instead of dropping the entry.
func DefaultRouting() map[uint64][]swap.RoutingItem {
	routing := make(map[uint64][]swap.RoutingItem)
	for _, chainID := range []uint64{
		1,     // ethereum
		56,    // bsc
		130,   // unichain
		137,   // polygon
		146,   // sonic
		1923,  // swellchain
		8453,  // base
		9745,  // plasma
		42161, // arbitrum
		43114, // avalanche
		59144, // linea
		60808, // bob
		80094, // berachain
	} {
		routing[chainID] = defaultPipeline(nil)
	}

	// HyperEVM only has GlueX coverage.
	routing[999] = defaultPipeline(&swap.RoutingItem{
		Strategy: swap.KindAggregator,
		Config:   map[string]any{"sources": map[string]any{"include": []string{"gluex"}}},
	})

	return routing
}

// defaultPipeline builds the standard pipeline, optionally substituting the
// aggregator entry.
func defaultPipeline(aggregator *swap.RoutingItem) []swap.RoutingItem {
	agg := swap.RoutingItem{Strategy: swap.KindAggregator}
	if aggregator != nil {
		agg = *aggregator
	}
	return []swap.RoutingItem{
		{
			Strategy: swap.KindRepayWrapper,
			Match: swap.MatchConfig{
				IsRepay:      true,
				SwapperModes: []swap.SwapperMode{swap.ModeExactIn},
			},
			Config: agg.Config,
		},
		agg,
	}
}
