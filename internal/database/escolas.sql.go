package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const advanceEscolaIDSeq = `-- name: AdvanceEscolaIDSeq :exec
SELECT setval('escolas_id_seq', GREATEST($1::bigint, (SELECT last_value FROM escolas_id_seq)))
`

func (q *Queries) AdvanceEscolaIDSeq(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, advanceEscolaIDSeq, id)
	return err
}

const createEscola = `-- name: CreateEscola :one
INSERT INTO escolas (id, name, address, synced)
VALUES (COALESCE($1::bigint, nextval('escolas_id_seq')), $2, $3, $4)
RETURNING id, name, address, synced, created_at, updated_at
`

type CreateEscolaParams struct {
	ID      pgtype.Int8 `json:"id"`
	Name    string      `json:"name"`
	Address string      `json:"address"`
	Synced  bool        `json:"synced"`
}

func (q *Queries) CreateEscola(ctx context.Context, arg CreateEscolaParams) (Escola, error) {
	row := q.db.QueryRow(ctx, createEscola,
		arg.ID,
		arg.Name,
		arg.Address,
		arg.Synced,
	)
	var i Escola
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const escolaExists = `-- name: EscolaExists :one
SELECT EXISTS (SELECT 1 FROM escolas WHERE id = $1)
`

func (q *Queries) EscolaExists(ctx context.Context, id int64) (bool, error) {
	row := q.db.QueryRow(ctx, escolaExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const getEscola = `-- name: GetEscola :one
SELECT id, name, address, synced, created_at, updated_at
FROM escolas
WHERE id = $1
`

func (q *Queries) GetEscola(ctx context.Context, id int64) (Escola, error) {
	row := q.db.QueryRow(ctx, getEscola, id)
	var i Escola
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listEscolas = `-- name: ListEscolas :many
SELECT id, name, address, synced, created_at, updated_at
FROM escolas
WHERE ($1::boolean IS NULL OR synced = $1)
ORDER BY id
`

func (q *Queries) ListEscolas(ctx context.Context, synced pgtype.Bool) ([]Escola, error) {
	rows, err := q.db.Query(ctx, listEscolas, synced)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Escola
	for rows.Next() {
		var i Escola
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Address,
			&i.Synced,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const updateEscola = `-- name: UpdateEscola :one
UPDATE escolas
SET name = $2, address = $3, synced = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, address, synced, created_at, updated_at
`

type UpdateEscolaParams struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Synced  bool   `json:"synced"`
}

func (q *Queries) UpdateEscola(ctx context.Context, arg UpdateEscolaParams) (Escola, error) {
	row := q.db.QueryRow(ctx, updateEscola,
		arg.ID,
		arg.Name,
		arg.Address,
		arg.Synced,
	)
	var i Escola
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Address,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
