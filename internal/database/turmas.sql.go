package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const advanceTurmaIDSeq = `-- name: AdvanceTurmaIDSeq :exec
SELECT setval('turmas_id_seq', GREATEST($1::bigint, (SELECT last_value FROM turmas_id_seq)))
`

func (q *Queries) AdvanceTurmaIDSeq(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, advanceTurmaIDSeq, id)
	return err
}

const createTurma = `-- name: CreateTurma :one
INSERT INTO turmas (id, name, escola_id, synced)
VALUES (COALESCE($1::bigint, nextval('turmas_id_seq')), $2, $3, $4)
RETURNING id, name, escola_id, synced, created_at, updated_at
`

type CreateTurmaParams struct {
	ID       pgtype.Int8 `json:"id"`
	Name     string      `json:"name"`
	EscolaID int64       `json:"escola_id"`
	Synced   bool        `json:"synced"`
}

func (q *Queries) CreateTurma(ctx context.Context, arg CreateTurmaParams) (Turma, error) {
	row := q.db.QueryRow(ctx, createTurma,
		arg.ID,
		arg.Name,
		arg.EscolaID,
		arg.Synced,
	)
	var i Turma
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.EscolaID,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getTurma = `-- name: GetTurma :one
SELECT id, name, escola_id, synced, created_at, updated_at
FROM turmas
WHERE id = $1
`

func (q *Queries) GetTurma(ctx context.Context, id int64) (Turma, error) {
	row := q.db.QueryRow(ctx, getTurma, id)
	var i Turma
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.EscolaID,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listTurmas = `-- name: ListTurmas :many
SELECT id, name, escola_id, synced, created_at, updated_at
FROM turmas
WHERE ($1::bigint IS NULL OR escola_id = $1)
ORDER BY id
`

func (q *Queries) ListTurmas(ctx context.Context, escolaID pgtype.Int8) ([]Turma, error) {
	rows, err := q.db.Query(ctx, listTurmas, escolaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Turma
	for rows.Next() {
		var i Turma
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.EscolaID,
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

const turmaExists = `-- name: TurmaExists :one
SELECT EXISTS (SELECT 1 FROM turmas WHERE id = $1)
`

func (q *Queries) TurmaExists(ctx context.Context, id int64) (bool, error) {
	row := q.db.QueryRow(ctx, turmaExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const updateTurma = `-- name: UpdateTurma :one
UPDATE turmas
SET name = $2, escola_id = $3, synced = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, escola_id, synced, created_at, updated_at
`

type UpdateTurmaParams struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	EscolaID int64  `json:"escola_id"`
	Synced   bool   `json:"synced"`
}

func (q *Queries) UpdateTurma(ctx context.Context, arg UpdateTurmaParams) (Turma, error) {
	row := q.db.QueryRow(ctx, updateTurma,
		arg.ID,
		arg.Name,
		arg.EscolaID,
		arg.Synced,
	)
	var i Turma
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.EscolaID,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
