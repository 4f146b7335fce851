// Package history persists finished searches so they can be reviewed later
// without querying the portal again.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"electorsearch/internal/db"
	"electorsearch/internal/scrapers/erms"
	"electorsearch/internal/search"
)

var ErrNotFound = errors.New("history: search not found")

type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
}

func NewStore(database *sql.DB) Store {
	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
	}
}

// Entry is one saved search.
type Entry struct {
	ID           int64
	CreatedAt    time.Time
	Query        search.Query
	Combinations int
	Failed       int
	Message      string
	Records      []erms.ElectorRecord
}

// Save stores the query and its result in one transaction and returns the entry id.
func (s Store) Save(ctx context.Context, now time.Time, q search.Query, result search.Result) (int64, error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("make tx: %w", err)
	}
	defer discard()

	id, err := tx.CreateSearch(ctx, db.CreateSearchParams{
		CreatedAt:       now.Unix(),
		Assemblies:      strings.Join(q.Assemblies, ","),
		Name:            q.Name,
		RelativeName:    q.RelativeName,
		UsePermutations: q.UsePermutations,
		Combinations:    int64(result.Progress.Total),
		Failed:          int64(result.Progress.Failed),
		Message:         result.Meta.Message,
	})
	if err != nil {
		return 0, fmt.Errorf("create search: %w", err)
	}

	for i, rec := range result.Records {
		err = tx.AddElector(ctx, db.Elector{
			SearchID:     id,
			Position:     int64(i),
			AssemblyNo:   rec.AssemblyNo,
			PartNo:       rec.PartNo,
			SerialNo:     rec.SerialNo,
			HouseNo:      rec.HouseNo,
			Name:         rec.Name,
			Relation:     rec.Relation,
			RelativeName: rec.RelativeName,
			Gender:       rec.Gender,
			EpicNo:       rec.EpicNo,
			SectionName:  rec.SectionName,
		})
		if err != nil {
			return 0, fmt.Errorf("add elector: %w", err)
		}
	}

	err = commit()
	if err != nil {
		return 0, err
	}
	return id, nil
}

func entryFromRow(row db.Search) Entry {
	var assemblies []string
	if row.Assemblies != "" {
		assemblies = strings.Split(row.Assemblies, ",")
	}
	return Entry{
		ID:        row.ID,
		CreatedAt: time.Unix(row.CreatedAt, 0),
		Query: search.Query{
			Assemblies:      assemblies,
			Name:            row.Name,
			RelativeName:    row.RelativeName,
			UsePermutations: row.UsePermutations,
		},
		Combinations: int(row.Combinations),
		Failed:       int(row.Failed),
		Message:      row.Message,
	}
}

// List returns the most recent searches first, without their records.
func (s Store) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.qry.ListSearches(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = entryFromRow(row)
	}
	return entries, nil
}

// Get returns a search with its records in the order they were found.
func (s Store) Get(ctx context.Context, id int64) (Entry, error) {
	row, err := s.qry.GetSearch(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	entry := entryFromRow(row)

	electors, err := s.qry.GetElectors(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range electors {
		entry.Records = append(entry.Records, erms.ElectorRecord{
			AssemblyNo:   e.AssemblyNo,
			PartNo:       e.PartNo,
			SerialNo:     e.SerialNo,
			HouseNo:      e.HouseNo,
			Name:         e.Name,
			Relation:     e.Relation,
			RelativeName: e.RelativeName,
			Gender:       e.Gender,
			EpicNo:       e.EpicNo,
			SectionName:  e.SectionName,
		})
	}
	return entry, nil
}
