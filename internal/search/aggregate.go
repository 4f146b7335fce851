package search

import (
	"fmt"

	"electorsearch/internal/scrapers/erms"
)

// Progress is reported after every combination settles.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	// Matched counts the combinations that returned at least one record.
	Matched int `json:"matched"`
	Failed  int `json:"failed"`
	// Records is the number of distinct records found so far.
	Records int    `json:"records"`
	Message string `json:"message"`
}

// Result accumulates the records of every combination of a query,
// a record is kept once no matter how many combinations return it.
type Result struct {
	Records []erms.ElectorRecord `json:"records"`
	Meta    erms.Meta            `json:"meta"`
	// Truncated is set if the permutation cap dropped some name variants.
	Truncated bool     `json:"truncated"`
	Progress  Progress `json:"progress"`

	seen map[string]struct{}
}

// Merge appends the records of `page` that are not already in the result and
// returns how many were added. Merging the same page twice is a no-op.
func (r *Result) Merge(page erms.SearchResultPage) int {
	if r.seen == nil {
		r.seen = make(map[string]struct{}, len(r.Records))
		for _, rec := range r.Records {
			r.seen[rec.Key()] = struct{}{}
		}
	}

	added := 0
	for _, rec := range page.Records {
		key := rec.Key()
		if _, ok := r.seen[key]; ok {
			continue
		}
		r.seen[key] = struct{}{}
		r.Records = append(r.Records, rec)
		added++
	}

	r.Meta.TotalRecords = len(r.Records)
	r.Progress.Records = len(r.Records)
	if len(r.Records) > 0 {
		r.Meta.CurrentPage = 1
		r.Meta.TotalPages = 1
		r.Meta.Message = fmt.Sprintf("Found %d records...", len(r.Records))
	}
	r.Progress.Message = r.Meta.Message
	return added
}

// finish sets the final message once every combination has settled.
//
// An empty result is reported differently depending on whether the searches
// actually ran, so that "nothing found" is never confused with "nothing worked".
func (r *Result) finish() {
	p := r.Progress
	failedSuffix := ""
	if p.Failed > 0 {
		failedSuffix = fmt.Sprintf(" (%d of %d searches failed)", p.Failed, p.Total)
	}

	switch {
	case len(r.Records) == 0 && p.Total > 0 && p.Failed == p.Total:
		r.Meta = erms.Meta{Message: fmt.Sprintf("All %d searches failed.", p.Total)}
	case len(r.Records) == 0:
		r.Meta = erms.Meta{Message: "No records found" + failedSuffix + "."}
	default:
		r.Meta.CurrentPage = 1
		r.Meta.TotalPages = 1
		r.Meta.TotalRecords = len(r.Records)
		r.Meta.Message = fmt.Sprintf("Finished. Found %d records%s.", len(r.Records), failedSuffix)
	}
	r.Progress.Message = r.Meta.Message
}
