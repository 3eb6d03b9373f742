package aggregator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/providers"
)

// Collector fans out raw cost collection across every configured provider
// concurrently, generalizing the teacher's sync.WaitGroup+mutex fan-out in
// the old Aggregate() into golang.org/x/sync/errgroup, and surfacing
// per-provider failures as a model.PartialResult instead of silently
// dropping them (the design note's resolution of spec.md's open question
// on fan-out failure handling).
type Collector struct {
	factory providers.AdapterFactory
}

// NewCollector builds a Collector over factory.
func NewCollector(factory providers.AdapterFactory) *Collector {
	return &Collector{factory: factory}
}

// Collect fetches raw cost records from every provider factory knows about
// for [start, end), running fetches concurrently and returning successes
// and per-provider failures separately.
func (c *Collector) Collect(ctx context.Context, start, end time.Time) model.PartialResult[model.RawCostRecord] {
	provs := providers.Providers(c.factory)

	type outcome struct {
		provider model.Provider
		records  []model.RawCostRecord
		err      error
	}
	outcomes := make([]outcome, len(provs))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range provs {
		i, p := i, p
		g.Go(func() error {
			adapter, err := c.factory.Build(p)
			if err != nil {
				outcomes[i] = outcome{provider: p, err: err}
				return nil
			}
			fetcher, ok := adapter.(providers.RawCostFetcher)
			if !ok {
				outcomes[i] = outcome{provider: p, err: errUnsupportedFetch(p)}
				return nil
			}
			records, err := fetcher.FetchRawCostRecords(gctx, start, end)
			outcomes[i] = outcome{provider: p, records: records, err: err}
			return nil
		})
	}
	// g.Wait error is always nil here: every goroutine reports its own
	// failure into outcomes rather than aborting the group, so one
	// provider's error never cancels the others' in-flight fetches.
	_ = g.Wait()

	var result model.PartialResult[model.RawCostRecord]
	for _, o := range outcomes {
		if o.err != nil {
			result.Failures = append(result.Failures, model.FailureDetail{Provider: o.provider, Err: o.err})
			continue
		}
		result.Successes = append(result.Successes, o.records...)
	}
	return result
}

func errUnsupportedFetch(p model.Provider) error {
	return &unsupportedFetchError{provider: p}
}

type unsupportedFetchError struct {
	provider model.Provider
}

func (e *unsupportedFetchError) Error() string {
	return "aggregator: adapter for " + string(e.provider) + " does not support raw cost fetching"
}
