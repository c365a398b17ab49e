package assemble

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/quotekit/pkg/quotekit/dedup"
	"github.com/cognicore/quotekit/pkg/quotekit/quote"
)

// partitionResult is what one worker hands back to the merge.
type partitionResult struct {
	survivors []staged
	rejected  []*Rejection
}

// RunPartitioned assembles partitions concurrently, at most Workers at a
// time. Each partition is screened against a private dedup context seeded
// with the prior corpus. Survivors are then merged in partition order
// through a fresh global context, which catches duplicates that crossed a
// partition boundary, and receive their IDs during the merge. With one
// partition the result equals Run over that partition.
func (a *Assembler) RunPartitioned(ctx context.Context, prior []quote.Record, partitions [][]quote.Raw, sink Sink) (*Stats, error) {
	r, err := a.begin(prior, sink)
	if err != nil {
		return a.abort(r, err)
	}
	r.stats.Partitions = len(partitions)
	for _, p := range partitions {
		r.stats.Input += len(p)
	}

	results := make([]partitionResult, len(partitions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, part := range partitions {
		i, part := i, part
		g.Go(func() error {
			res, err := a.screenPartition(gctx, prior, part)
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return a.abort(r, err)
	}

	a.setState(StateDeduplicating)
	for _, res := range results {
		for _, rej := range res.rejected {
			a.rejected(r, rej)
		}
		for _, s := range res.survivors {
			if err := ctx.Err(); err != nil {
				return a.abort(r, err)
			}
			if r.dc.IsExactDuplicate(s.cand) {
				a.rejected(r, reject(ReasonExactDuplicate, StateDeduplicating, s, "across partitions"))
				continue
			}
			if dup, ratio := r.dc.IsFuzzyDuplicate(s.cand); dup {
				a.rejected(r, reject(ReasonFuzzyDuplicate, StateDeduplicating, s, fmt.Sprintf("across partitions, ratio %.3f", ratio)))
				continue
			}
			if err := a.admit(r, s); err != nil {
				return a.abort(r, err)
			}
		}
	}

	a.finish(r)
	return r.stats, nil
}

// screenPartition runs one partition through every stage up to Emitting.
// Survivors are registered only in the partition's own context. The
// shared state field is left alone; workers run concurrently.
func (a *Assembler) screenPartition(ctx context.Context, prior []quote.Record, raws []quote.Raw) (partitionResult, error) {
	dc := dedup.New(dedup.Options{
		Threshold:  a.opts.FuzzyThreshold,
		WindowSize: a.opts.WindowSize,
	})
	dc.SeedFromPrior(prior)

	var res partitionResult
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		s, rej := a.screenStages(dc, raw, func(State) {})
		if rej != nil {
			res.rejected = append(res.rejected, rej)
			continue
		}
		dc.Register(s.cand)
		res.survivors = append(res.survivors, s)
	}
	return res, nil
}
