// Package strategies implements the routing pipeline: a closed set of
// quote-finding strategies dispatched per chain in configured order.
package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/sirupsen/logrus"

	"github.com/evault-labs/swap-router/internal/contracts"
	"github.com/evault-labs/swap-router/internal/swap"
	"github.com/evault-labs/swap-router/internal/venues"
)

// Strategy is a unit of routing logic. Supports answers structural ability
// (venue coverage for the chain); Matches evaluates the declarative match
// config. Both must pass before FindSwap does any network work.
type Strategy interface {
	Name() string
	Supports(p swap.Params) bool
	Matches(p swap.Params) bool
	FindSwap(ctx context.Context, p swap.Params) swap.Result
}

// Deps are the collaborators injected into every strategy.
type Deps struct {
	Sources *venues.Registry
	Book    *contracts.Book
	Logger  *logrus.Logger
	Metrics *statsd.Client
}

func (d Deps) count(name string, tags []string) {
	if d.Metrics == nil {
		return
	}
	if err := d.Metrics.Count(name, 1, tags, 1); err != nil {
		d.Logger.Errorf("fail to count metric, err: %v", err)
	}
}

func (d Deps) measureTime(name string, start time.Time, tags []string) {
	if d.Metrics == nil {
		return
	}
	if err := d.Metrics.Timing(name, time.Since(start), tags, 1); err != nil {
		d.Logger.Errorf("fail to measure time metric, err: %v", err)
	}
}

// New instantiates a strategy from a routing table entry. Strategy kinds
// are a closed set; unknown kinds are configuration errors.
func New(item swap.RoutingItem, deps Deps) (Strategy, error) {
	switch item.Strategy {
	case swap.KindAggregator:
		return NewAggregator(item.Match, item.Config, deps)
	case swap.KindRepayWrapper:
		return NewRepayWrapper(item.Match, item.Config, deps)
	default:
		return nil, fmt.Errorf("unknown strategy kind %q", item.Strategy)
	}
}
