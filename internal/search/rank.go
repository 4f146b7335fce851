package search

import (
	"sort"

	"electorsearch/internal/permute"
	"electorsearch/internal/scrapers/erms"

	"github.com/antzucaro/matchr"
)

// Similarity scores how close a record's names are to the queried names, in [0, 2].
func Similarity(rec erms.ElectorRecord, name, relativeName string) float64 {
	return matchr.JaroWinkler(permute.Normalize(name), permute.Normalize(rec.Name), false) +
		matchr.JaroWinkler(permute.Normalize(relativeName), permute.Normalize(rec.RelativeName), false)
}

// Rank returns a copy of `records` ordered from the closest to the furthest
// match of the queried names, ties keep their original order.
func Rank(records []erms.ElectorRecord, name, relativeName string) []erms.ElectorRecord {
	type scored struct {
		rec   erms.ElectorRecord
		score float64
	}
	list := make([]scored, len(records))
	for i, rec := range records {
		list[i] = scored{rec: rec, score: Similarity(rec, name, relativeName)}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})

	out := make([]erms.ElectorRecord, len(list))
	for i, s := range list {
		out[i] = s.rec
	}
	return out
}
