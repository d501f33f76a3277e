package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const advancePresencaIDSeq = `-- name: AdvancePresencaIDSeq :exec
SELECT setval('presencas_id_seq', GREATEST($1::bigint, (SELECT last_value FROM presencas_id_seq)))
`

func (q *Queries) AdvancePresencaIDSeq(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, advancePresencaIDSeq, id)
	return err
}

const createPresenca = `-- name: CreatePresenca :one
INSERT INTO presencas (id, aluno_id, date, present, observacao, synced)
VALUES (COALESCE($1::bigint, nextval('presencas_id_seq')), $2, $3, $4, $5, $6)
RETURNING id, aluno_id, date, present, observacao, synced, created_at, updated_at
`

type CreatePresencaParams struct {
	ID         pgtype.Int8 `json:"id"`
	AlunoID    int64       `json:"aluno_id"`
	Date       pgtype.Date `json:"date"`
	Present    bool        `json:"present"`
	Observacao pgtype.Text `json:"observacao"`
	Synced     bool        `json:"synced"`
}

func (q *Queries) CreatePresenca(ctx context.Context, arg CreatePresencaParams) (Presenca, error) {
	row := q.db.QueryRow(ctx, createPresenca,
		arg.ID,
		arg.AlunoID,
		arg.Date,
		arg.Present,
		arg.Observacao,
		arg.Synced,
	)
	var i Presenca
	err := row.Scan(
		&i.ID,
		&i.AlunoID,
		&i.Date,
		&i.Present,
		&i.Observacao,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPresenca = `-- name: GetPresenca :one
SELECT id, aluno_id, date, present, observacao, synced, created_at, updated_at
FROM presencas
WHERE id = $1
`

func (q *Queries) GetPresenca(ctx context.Context, id int64) (Presenca, error) {
	row := q.db.QueryRow(ctx, getPresenca, id)
	var i Presenca
	err := row.Scan(
		&i.ID,
		&i.AlunoID,
		&i.Date,
		&i.Present,
		&i.Observacao,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getPresencaByAlunoDate = `-- name: GetPresencaByAlunoDate :one
SELECT id, aluno_id, date, present, observacao, synced, created_at, updated_at
FROM presencas
WHERE aluno_id = $1 AND date = $2
`

type GetPresencaByAlunoDateParams struct {
	AlunoID int64       `json:"aluno_id"`
	Date    pgtype.Date `json:"date"`
}

func (q *Queries) GetPresencaByAlunoDate(ctx context.Context, arg GetPresencaByAlunoDateParams) (Presenca, error) {
	row := q.db.QueryRow(ctx, getPresencaByAlunoDate, arg.AlunoID, arg.Date)
	var i Presenca
	err := row.Scan(
		&i.ID,
		&i.AlunoID,
		&i.Date,
		&i.Present,
		&i.Observacao,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listPresencas = `-- name: ListPresencas :many
SELECT p.id, p.aluno_id, p.date, p.present, p.observacao, p.synced, p.created_at, p.updated_at
FROM presencas p
JOIN alunos a ON a.id = p.aluno_id
WHERE ($1::bigint IS NULL OR p.aluno_id = $1)
  AND ($2::bigint IS NULL OR a.turma_id = $2)
  AND ($3::date IS NULL OR p.date = $3)
ORDER BY p.date DESC, p.id
`

type ListPresencasParams struct {
	AlunoID pgtype.Int8 `json:"aluno_id"`
	TurmaID pgtype.Int8 `json:"turma_id"`
	Date    pgtype.Date `json:"date"`
}

func (q *Queries) ListPresencas(ctx context.Context, arg ListPresencasParams) ([]Presenca, error) {
	rows, err := q.db.Query(ctx, listPresencas, arg.AlunoID, arg.TurmaID, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Presenca
	for rows.Next() {
		var i Presenca
		if err := rows.Scan(
			&i.ID,
			&i.AlunoID,
			&i.Date,
			&i.Present,
			&i.Observacao,
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

const presencaExists = `-- name: PresencaExists :one
SELECT EXISTS (SELECT 1 FROM presencas WHERE id = $1)
`

func (q *Queries) PresencaExists(ctx context.Context, id int64) (bool, error) {
	row := q.db.QueryRow(ctx, presencaExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const updatePresenca = `-- name: UpdatePresenca :one
UPDATE presencas
SET aluno_id = $2, date = $3, present = $4, observacao = $5, synced = $6, updated_at = now()
WHERE id = $1
RETURNING id, aluno_id, date, present, observacao, synced, created_at, updated_at
`

type UpdatePresencaParams struct {
	ID         int64       `json:"id"`
	AlunoID    int64       `json:"aluno_id"`
	Date       pgtype.Date `json:"date"`
	Present    bool        `json:"present"`
	Observacao pgtype.Text `json:"observacao"`
	Synced     bool        `json:"synced"`
}

func (q *Queries) UpdatePresenca(ctx context.Context, arg UpdatePresencaParams) (Presenca, error) {
	row := q.db.QueryRow(ctx, updatePresenca,
		arg.ID,
		arg.AlunoID,
		arg.Date,
		arg.Present,
		arg.Observacao,
		arg.Synced,
	)
	var i Presenca
	err := row.Scan(
		&i.ID,
		&i.AlunoID,
		&i.Date,
		&i.Present,
		&i.Observacao,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
