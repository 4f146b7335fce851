package search

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"electorsearch/internal/components/telemetry"
	"electorsearch/internal/permute"
	"electorsearch/internal/scrapers/erms"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// one matchable position in each of "શાહ" and "પટેલ"
var testRules = permute.Generator{Rules: []permute.Rule{
	{From: "શ", To: "સ"},
	{From: "સ", To: "શ"},
	{From: "ટ", To: "ઠ"},
	{From: "ઠ", To: "ટ"},
}}

type fakeSearcher struct {
	mutex       sync.Mutex
	calls       []erms.Combination
	handle      func(erms.Combination) (erms.SearchResultPage, error)
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	delay       time.Duration
}

func (f *fakeSearcher) Search(ctx context.Context, combo erms.Combination) (erms.SearchResultPage, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if current <= max || f.maxInFlight.CompareAndSwap(max, current) {
			break
		}
	}

	f.mutex.Lock()
	f.calls = append(f.calls, combo)
	f.mutex.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.handle == nil {
		return erms.SearchResultPage{}, nil
	}
	return f.handle(combo)
}

func (f *fakeSearcher) Calls() []erms.Combination {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	out := append([]erms.Combination(nil), f.calls...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Assembly != b.Assembly {
			return a.Assembly < b.Assembly
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.RelativeName < b.RelativeName
	})
	return out
}

func record(assembly, part, serial string) erms.ElectorRecord {
	return erms.ElectorRecord{
		AssemblyNo: assembly,
		PartNo:     part,
		SerialNo:   serial,
		Name:       "શાહ " + serial,
	}
}

func newTestOrchestrator(searcher Searcher, opts Options) (*Orchestrator, *telemetry.Recorder) {
	if opts.Permutations == nil {
		opts.Permutations = &testRules
	}
	tel := &telemetry.Recorder{}
	return NewOrchestrator(searcher, tel, opts), tel
}

func TestSearchCombinationCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	query := Query{
		Assemblies:   []string{"12"},
		Name:         "શાહ",
		RelativeName: "પટેલ",
	}

	searcher := &fakeSearcher{}
	o, _ := newTestOrchestrator(searcher, Options{})
	result, err := o.Search(context.Background(), query, nil)
	require.NoError(t, err)
	require.Equal(t, []erms.Combination{{Assembly: "12", Name: "શાહ", RelativeName: "પટેલ"}}, searcher.Calls())
	require.Equal(t, 1, result.Progress.Total)

	query.UsePermutations = true
	searcher = &fakeSearcher{}
	o, _ = newTestOrchestrator(searcher, Options{})
	result, err = o.Search(context.Background(), query, nil)
	require.NoError(t, err)
	require.Equal(t, 4, result.Progress.Total)
	require.Equal(t, 4, result.Progress.Completed)

	expected := []erms.Combination{
		{Assembly: "12", Name: "શાહ", RelativeName: "પટેલ"},
		{Assembly: "12", Name: "શાહ", RelativeName: "પઠેલ"},
		{Assembly: "12", Name: "સાહ", RelativeName: "પટેલ"},
		{Assembly: "12", Name: "સાહ", RelativeName: "પઠેલ"},
	}
	diff := cmp.Diff(expected, searcher.Calls())
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestCombinations(t *testing.T) {
	o, _ := newTestOrchestrator(&fakeSearcher{}, Options{})
	combos, truncated := o.Combinations(Query{
		Assemblies:      []string{"1", "2", "1"},
		Name:            "શાહ",
		RelativeName:    "પટેલ",
		UsePermutations: true,
	})
	require.False(t, truncated)
	require.Len(t, combos, 2*2*2)

	capped := permute.Generator{Rules: testRules.Rules, MaxVariants: 1}
	o, _ = newTestOrchestrator(&fakeSearcher{}, Options{Permutations: &capped})
	combos, truncated = o.Combinations(Query{
		Assemblies:      []string{"1"},
		Name:            "શાહ",
		RelativeName:    "પટેલ",
		UsePermutations: true,
	})
	require.True(t, truncated)
	require.Equal(t, []erms.Combination{{Assembly: "1", Name: "શાહ", RelativeName: "પટેલ"}}, combos)
}

func TestSearchDeduplicates(t *testing.T) {
	defer goleak.VerifyNone(t)

	searcher := &fakeSearcher{
		handle: func(c erms.Combination) (erms.SearchResultPage, error) {
			return erms.SearchResultPage{
				Records: []erms.ElectorRecord{
					record("12", "45", "231"),
					record(c.Assembly, "45", c.Name),
				},
			}, nil
		},
	}
	o, _ := newTestOrchestrator(searcher, Options{})
	result, err := o.Search(context.Background(), Query{
		Assemblies:      []string{"12", "13"},
		Name:            "શાહ",
		RelativeName:    "પટેલ",
		UsePermutations: true,
	}, nil)
	require.NoError(t, err)

	// 1 shared record + (assembly, name variant) pairs
	require.Len(t, result.Records, 1+2*2)
	require.Equal(t, 8, result.Progress.Matched)
	require.Equal(t, 5, result.Meta.TotalRecords)
	require.Equal(t, "Finished. Found 5 records.", result.Meta.Message)

	keys := map[string]struct{}{}
	for _, rec := range result.Records {
		_, duplicate := keys[rec.Key()]
		require.False(t, duplicate, rec.Key())
		keys[rec.Key()] = struct{}{}
	}
}

func TestSearchFailureIsolation(t *testing.T) {
	defer goleak.VerifyNone(t)

	searcher := &fakeSearcher{
		handle: func(c erms.Combination) (erms.SearchResultPage, error) {
			if c.Name == "સાહ" && c.RelativeName == "પઠેલ" {
				return erms.SearchResultPage{}, &erms.NetworkError{
					Stage: erms.StageBootstrap,
					Err:   errors.New("connection reset"),
				}
			}
			return erms.SearchResultPage{
				Records: []erms.ElectorRecord{record("12", c.Name, c.RelativeName)},
			}, nil
		},
	}

	var progress []Progress
	o, tel := newTestOrchestrator(searcher, Options{})
	result, err := o.Search(context.Background(), Query{
		Assemblies:      []string{"12"},
		Name:            "શાહ",
		RelativeName:    "પટેલ",
		UsePermutations: true,
	}, func(p Progress) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	require.Equal(t, 4, result.Progress.Completed)
	require.Equal(t, 1, result.Progress.Failed)
	require.Equal(t, 3, result.Progress.Matched)
	require.Len(t, result.Records, 3)
	require.Equal(t, "Finished. Found 3 records (1 of 4 searches failed).", result.Meta.Message)
	require.Len(t, tel.Reports("warning"), 1)

	require.Len(t, progress, 4)
	for i, p := range progress {
		require.Equal(t, i+1, p.Completed)
		require.Equal(t, 4, p.Total)
	}
}

func TestSearchEmptyResults(t *testing.T) {
	failing := func(erms.Combination) (erms.SearchResultPage, error) {
		return erms.SearchResultPage{}, &erms.ProtocolError{Stage: erms.StageDropdown, Reason: "captcha prompt is missing"}
	}
	empty := func(erms.Combination) (erms.SearchResultPage, error) {
		return erms.SearchResultPage{Meta: erms.Meta{Message: "No Record Found"}}, nil
	}
	count := 0
	mixed := func(c erms.Combination) (erms.SearchResultPage, error) {
		if c.Assembly == "1" {
			return failing(c)
		}
		return empty(c)
	}

	testCases := []struct {
		handle  func(erms.Combination) (erms.SearchResultPage, error)
		message string
	}{
		{handle: empty, message: "No records found."},
		{handle: failing, message: "All 2 searches failed."},
		{handle: mixed, message: "No records found (1 of 2 searches failed)."},
	}

	for _, test := range testCases {
		count++
		o, _ := newTestOrchestrator(&fakeSearcher{handle: test.handle}, Options{})
		result, err := o.Search(context.Background(), Query{
			Assemblies:   []string{"1", "2"},
			Name:         "શાહ",
			RelativeName: "પટેલ",
		}, nil)
		require.NoError(t, err)
		require.Empty(t, result.Records)
		require.Equal(t, erms.Meta{Message: test.message}, result.Meta, "case %d", count)
	}
}

func TestSearchConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	searcher := &fakeSearcher{delay: 10 * time.Millisecond}
	o, _ := newTestOrchestrator(searcher, Options{Concurrency: 2})
	result, err := o.Search(context.Background(), Query{
		Assemblies:      []string{"1", "2", "3"},
		Name:            "શાહ",
		RelativeName:    "પટેલ",
		UsePermutations: true,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 12, result.Progress.Completed)
	require.LessOrEqual(t, searcher.maxInFlight.Load(), int64(2))
}

func TestSearchValidation(t *testing.T) {
	testCases := []struct {
		query Query
		field string
	}{
		{query: Query{Name: "a", RelativeName: "b"}, field: "assembly"},
		{query: Query{Assemblies: []string{"999"}, Name: "a", RelativeName: "b"}, field: "assembly"},
		{query: Query{Assemblies: []string{"12"}, Name: " ", RelativeName: "b"}, field: "name"},
		{query: Query{Assemblies: []string{"12"}, Name: "a"}, field: "relativeName"},
	}

	for _, test := range testCases {
		searcher := &fakeSearcher{}
		o, _ := newTestOrchestrator(searcher, Options{})
		_, err := o.Search(context.Background(), test.query, nil)

		var validationErr *ValidationError
		require.True(t, errors.As(err, &validationErr), "expected validation error, got %v", err)
		require.Equal(t, test.field, validationErr.Field)
		require.Empty(t, searcher.Calls())
	}
}

func TestResultMerge(t *testing.T) {
	first := erms.SearchResultPage{Records: []erms.ElectorRecord{
		record("12", "45", "231"),
		record("12", "45", "232"),
	}}
	second := erms.SearchResultPage{Records: []erms.ElectorRecord{
		record("12", "45", "231"),
	}}

	var result Result
	require.Equal(t, 2, result.Merge(first))
	require.Equal(t, 0, result.Merge(second))
	require.Equal(t, 0, result.Merge(first))
	require.Len(t, result.Records, 2)
	require.Equal(t, "Found 2 records...", result.Meta.Message)
	require.Equal(t, 2, result.Meta.TotalRecords)

	// merging in the opposite order gives the same set
	var reversed Result
	reversed.Merge(second)
	reversed.Merge(first)
	require.ElementsMatch(t, result.Records, reversed.Records)
}
