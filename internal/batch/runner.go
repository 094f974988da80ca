// Package batch fans a list of policy URLs out over a worker pool.
package batch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/policylab/policyscrape/internal/metrics"
	"github.com/policylab/policyscrape/internal/pipeline"
	"github.com/policylab/policyscrape/internal/policy"
)

// Runner drives one batch of URLs through the pipeline.
type Runner struct {
	pipeline *pipeline.Pipeline
	idGen    policy.IDGenerator
	logger   *zap.Logger
}

// New constructs a Runner.
func New(p *pipeline.Pipeline, idGen policy.IDGenerator, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{pipeline: p, idGen: idGen, logger: logger}
}

type job struct {
	index int
	url   string
}

type result struct {
	index int
	rec   policy.Record
}

// Run processes urls with the given number of workers and returns one record
// per input URL, in input order. The error is the first must-abort failure a
// worker reported; when it is non-nil the remaining URLs are left as FAILED
// records carrying the cancellation cause.
func (r *Runner) Run(ctx context.Context, urls []string, workers int, opts pipeline.Options) ([]policy.Record, error) {
	if workers <= 0 {
		workers = 1
	}
	if opts.BatchID == "" && r.idGen != nil {
		if id, err := r.idGen.NewID(); err == nil {
			opts.BatchID = id
		}
	}
	r.warnDuplicates(urls)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan job)
	results := make(chan result, len(urls))

	var firstErr error
	var errOnce sync.Once

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.WorkerStarted()
			defer metrics.WorkerFinished()
			for j := range jobs {
				rec, err := r.pipeline.Run(ctx, j.url, opts)
				results <- result{index: j.index, rec: rec}
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}

dispatch:
	for i, url := range urls {
		select {
		case jobs <- job{index: i, url: url}:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]policy.Record, len(urls))
	seen := make([]bool, len(urls))
	for res := range results {
		out[res.index] = res.rec
		seen[res.index] = true
	}
	for i, url := range urls {
		if !seen[i] {
			cause := ctx.Err()
			if cause == nil {
				cause = context.Canceled
			}
			out[i] = policy.NewRecord(url).Failed(cause)
		}
	}
	return out, firstErr
}

func (r *Runner) warnDuplicates(urls []string) {
	seen := make(map[string]int, len(urls))
	for _, url := range urls {
		seen[url]++
	}
	for url, count := range seen {
		if count > 1 {
			r.logger.Warn("duplicate url in batch",
				zap.String("url", url),
				zap.Int("count", count),
			)
		}
	}
}
