package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evault-labs/swap-router/internal/swap"
	"github.com/evault-labs/swap-router/internal/swap/plan"
)

// Runner executes a chain's ordered strategy pipeline. Strategies run
// strictly sequentially; the first one returning quotes terminates the
// pipeline, which lets earlier entries act as filters or wrappers.
type Runner struct {
	routing map[uint64][]swap.RoutingItem
	deps    Deps
	logger  *logrus.Entry
}

func NewRunner(routing map[uint64][]swap.RoutingItem, deps Deps) *Runner {
	return &Runner{
		routing: routing,
		deps:    deps,
		logger:  deps.Logger.WithField("service", "swap"),
	}
}

// ResultSummary is the per-strategy diagnostic attached to failures.
type ResultSummary struct {
	Strategy string `json:"strategy"`
	Supports bool   `json:"supports"`
	Matched  bool   `json:"matched"`
	Quotes   int    `json:"quotes"`
	Error    string `json:"error,omitempty"`
}

func summarize(results []swap.Result) []ResultSummary {
	out := make([]ResultSummary, len(results))
	for i, r := range results {
		out[i] = ResultSummary{
			Strategy: r.Strategy,
			Supports: r.Supports,
			Matched:  r.Matched,
			Quotes:   len(r.Responses),
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return out
}

func (r *Runner) buildPipeline(p swap.Params) ([]Strategy, error) {
	items := p.RoutingOverride
	if items == nil {
		var ok bool
		items, ok = r.routing[p.ChainID]
		if !ok {
			return nil, swap.NewNotFound(fmt.Sprintf("routing config not found for chain %d", p.ChainID), nil)
		}
	}
	if len(items) == 0 {
		return nil, swap.NewNotFound("routing pipeline is empty", nil)
	}

	pipeline := make([]Strategy, len(items))
	for i, item := range items {
		s, err := New(item, r.deps)
		if err != nil {
			return nil, swap.NewInternal(err.Error(), nil)
		}
		pipeline[i] = s
	}
	return pipeline, nil
}

func (r *Runner) runPipeline(ctx context.Context, p swap.Params) ([]*swap.Response, error) {
	pipeline, err := r.buildPipeline(p)
	if err != nil {
		return nil, err
	}

	results := make([]swap.Result, 0, len(pipeline))
	for _, strategy := range pipeline {
		result := strategy.FindSwap(ctx, p)
		results = append(results, result)
		if result.Err != nil {
			r.logger.WithField("strategy", result.Strategy).WithError(result.Err).Warn("strategy failed")
		}
		if len(result.Responses) > 0 {
			break
		}
	}

	final := results[len(results)-1]
	if len(final.Responses) == 0 {
		summaries := summarize(results)
		if final.Err != nil {
			return nil, swap.NewNotFound(fmt.Sprintf("swap quote not found: %s", final.Err), summaries)
		}
		return nil, swap.NewNotFound("swap quote not found", summaries)
	}
	return final.Responses, nil
}

// FindSwaps runs the pipeline and applies the global finishing steps: the
// verifier shape filter and the leftover deposits. A quote whose verifier
// call lacks a selector must never silently disappear, so an emptied result
// set is an internal error.
func (r *Runner) FindSwaps(ctx context.Context, p swap.Params) ([]*swap.Response, error) {
	start := time.Now()
	defer r.deps.measureTime("swap.request.latency", start, []string{
		fmt.Sprintf("chain:%d", p.ChainID),
		"mode:" + p.Mode.String(),
	})

	responses, err := r.runPipeline(ctx, p)
	if err != nil {
		r.deps.count("swap.request.error", nil)
		return nil, err
	}

	valid := responses[:0]
	for _, resp := range responses {
		if plan.HasValidVerifier(resp) {
			valid = append(valid, resp)
		}
	}
	if len(valid) == 0 {
		r.deps.count("swap.request.invalid_quotes", nil)
		return nil, swap.NewInternal("invalid quotes", summarizeResponses(responses))
	}

	for _, resp := range valid {
		if err := plan.AppendLeftoverDeposits(p, resp); err != nil {
			return nil, swap.NewInternal(err.Error(), nil)
		}
	}

	r.deps.count("swap.request.ok", nil)
	return valid, nil
}

func summarizeResponses(responses []*swap.Response) []string {
	out := make([]string, len(responses))
	for i, resp := range responses {
		route := ""
		for _, item := range resp.Route {
			route += item.ProviderName
		}
		out[i] = route
	}
	return out
}
