package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Search struct {
	ID              int64
	CreatedAt       int64
	Assemblies      string
	Name            string
	RelativeName    string
	UsePermutations bool
	Combinations    int64
	Failed          int64
	Message         string
}

type Elector struct {
	SearchID     int64
	Position     int64
	AssemblyNo   string
	PartNo       string
	SerialNo     string
	HouseNo      string
	Name         string
	Relation     string
	RelativeName string
	Gender       string
	EpicNo       string
	SectionName  string
}

const createSearch = `-- name: CreateSearch :one
INSERT INTO search (created_at, assemblies, name, relative_name, use_permutations, combinations, failed, message)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateSearchParams struct {
	CreatedAt       int64
	Assemblies      string
	Name            string
	RelativeName    string
	UsePermutations bool
	Combinations    int64
	Failed          int64
	Message         string
}

func (q *Queries) CreateSearch(ctx context.Context, arg CreateSearchParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createSearch,
		arg.CreatedAt,
		arg.Assemblies,
		arg.Name,
		arg.RelativeName,
		arg.UsePermutations,
		arg.Combinations,
		arg.Failed,
		arg.Message,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const addElector = `-- name: AddElector :exec
INSERT INTO elector (
    search_id, position, assembly_no, part_no, serial_no, house_no,
    name, relation, relative_name, gender, epic_no, section_name
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING
`

func (q *Queries) AddElector(ctx context.Context, arg Elector) error {
	_, err := q.db.ExecContext(ctx, addElector,
		arg.SearchID,
		arg.Position,
		arg.AssemblyNo,
		arg.PartNo,
		arg.SerialNo,
		arg.HouseNo,
		arg.Name,
		arg.Relation,
		arg.RelativeName,
		arg.Gender,
		arg.EpicNo,
		arg.SectionName,
	)
	return err
}

const searchColumns = `id, created_at, assemblies, name, relative_name, use_permutations, combinations, failed, message`

func scanSearch(scanner interface{ Scan(...any) error }) (Search, error) {
	var i Search
	err := scanner.Scan(
		&i.ID,
		&i.CreatedAt,
		&i.Assemblies,
		&i.Name,
		&i.RelativeName,
		&i.UsePermutations,
		&i.Combinations,
		&i.Failed,
		&i.Message,
	)
	return i, err
}

const getSearch = `-- name: GetSearch :one
SELECT ` + searchColumns + ` FROM search WHERE id = ?
`

func (q *Queries) GetSearch(ctx context.Context, id int64) (Search, error) {
	row := q.db.QueryRowContext(ctx, getSearch, id)
	return scanSearch(row)
}

const listSearches = `-- name: ListSearches :many
SELECT ` + searchColumns + ` FROM search ORDER BY id DESC LIMIT ?
`

func (q *Queries) ListSearches(ctx context.Context, limit int64) ([]Search, error) {
	rows, err := q.db.QueryContext(ctx, listSearches, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Search
	for rows.Next() {
		i, err := scanSearch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getElectors = `-- name: GetElectors :many
SELECT search_id, position, assembly_no, part_no, serial_no, house_no,
    name, relation, relative_name, gender, epic_no, section_name
FROM elector WHERE search_id = ? ORDER BY position
`

func (q *Queries) GetElectors(ctx context.Context, searchID int64) ([]Elector, error) {
	rows, err := q.db.QueryContext(ctx, getElectors, searchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Elector
	for rows.Next() {
		var i Elector
		if err := rows.Scan(
			&i.SearchID,
			&i.Position,
			&i.AssemblyNo,
			&i.PartNo,
			&i.SerialNo,
			&i.HouseNo,
			&i.Name,
			&i.Relation,
			&i.RelativeName,
			&i.Gender,
			&i.EpicNo,
			&i.SectionName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
