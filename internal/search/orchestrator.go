// Package search fans a query out into every combination of assembly and
// name spelling, and merges what the portal returns for each.
package search

import (
	"context"

	"electorsearch/internal/components/assert"
	"electorsearch/internal/components/telemetry"
	"electorsearch/internal/permute"
	"electorsearch/internal/scrapers/erms"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	report_orchestrator_combination = "orchestrator.combination"
	report_orchestrator_truncated   = "orchestrator.expand"
	report_orchestrator_total       = "orchestrator.combinations"
)

var tracer = otel.Tracer("electorsearch/search")
var meter = otel.Meter("electorsearch/search")
var completedCounter, _ = meter.Int64Counter("search.combinations.completed")
var failedCounter, _ = meter.Int64Counter("search.combinations.failed")

// Searcher runs one combination against the portal, *erms.Client implements it.
type Searcher interface {
	Search(ctx context.Context, combo erms.Combination) (erms.SearchResultPage, error)
}

// Observer is called from a single goroutine after every combination settles.
type Observer func(Progress)

type Options struct {
	// defaults to permute.Default
	Permutations *permute.Generator
	// the maximum number of combinations in flight, zero means no limit
	Concurrency int
}

type Orchestrator struct {
	searcher    Searcher
	permuter    permute.Generator
	concurrency int
	tel         telemetry.API
}

func NewOrchestrator(searcher Searcher, tel telemetry.API, opts Options) *Orchestrator {
	assert.NotNil(searcher)
	assert.NotNil(tel)

	permuter := permute.Default
	if opts.Permutations != nil {
		permuter = *opts.Permutations
	}
	return &Orchestrator{
		searcher:    searcher,
		permuter:    permuter,
		concurrency: opts.Concurrency,
		tel:         telemetry.NewScopedAPI("search", tel),
	}
}

func (o *Orchestrator) variants(value string, usePermutations bool) ([]string, bool) {
	if !usePermutations {
		return []string{permute.Normalize(value)}, false
	}
	return o.permuter.ExpandN(permute.Normalize(value))
}

// Combinations expands a query into assemblies x name variants x relative name variants.
// The second return value reports whether the permutation cap dropped any variant.
func (o *Orchestrator) Combinations(q Query) ([]erms.Combination, bool) {
	names, namesTruncated := o.variants(q.Name, q.UsePermutations)
	relativeNames, relativeTruncated := o.variants(q.RelativeName, q.UsePermutations)
	assemblies := uniqueAssemblies(q.Assemblies)

	combos := make([]erms.Combination, 0, len(assemblies)*len(names)*len(relativeNames))
	for _, assembly := range assemblies {
		for _, name := range names {
			for _, relativeName := range relativeNames {
				combos = append(combos, erms.Combination{
					Assembly:     assembly,
					Name:         name,
					RelativeName: relativeName,
				})
			}
		}
	}
	return combos, namesTruncated || relativeTruncated
}

type outcome struct {
	combo erms.Combination
	page  erms.SearchResultPage
	err   error
}

// Search validates the query and runs every combination concurrently. A failing
// combination is counted and logged but never aborts the others, the only error
// returned is a *ValidationError. `observer` may be nil.
func (o *Orchestrator) Search(ctx context.Context, q Query, observer Observer) (Result, error) {
	err := q.Validate()
	if err != nil {
		return Result{}, err
	}

	ctx, span := tracer.Start(ctx, "orchestrator:Search")
	defer span.End()

	combos, truncated := o.Combinations(q)
	if truncated {
		o.tel.ReportWarning(report_orchestrator_truncated, "permutation cap reached", q.Name, q.RelativeName)
	}
	o.tel.ReportCount(report_orchestrator_total, int64(len(combos)))
	span.SetAttributes(attribute.Int("combinations", len(combos)))

	result := Result{
		Truncated: truncated,
		Progress:  Progress{Total: len(combos)},
	}

	outcomes := make(chan outcome, len(combos))
	go func() {
		defer close(outcomes)

		group := errgroup.Group{}
		if o.concurrency > 0 {
			group.SetLimit(o.concurrency)
		}
		for _, combo := range combos {
			combo := combo
			group.Go(func() error {
				page, err := o.searcher.Search(ctx, combo)
				outcomes <- outcome{combo: combo, page: page, err: err}
				return nil
			})
		}
		group.Wait()
	}()

	// outcomes are merged by this goroutine alone
	for out := range outcomes {
		result.Progress.Completed++
		completedCounter.Add(ctx, 1)

		if out.err != nil {
			result.Progress.Failed++
			failedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("assembly", out.combo.Assembly)))
			o.tel.ReportWarning(
				report_orchestrator_combination,
				out.err,
				out.combo.Assembly, out.combo.Name, out.combo.RelativeName,
			)
		} else {
			if len(out.page.Records) > 0 {
				result.Progress.Matched++
			}
			result.Merge(out.page)
		}

		if observer != nil {
			observer(result.Progress)
		}
	}

	result.finish()
	span.SetAttributes(
		attribute.Int("records", len(result.Records)),
		attribute.Int("failed", result.Progress.Failed),
	)
	return result, nil
}
