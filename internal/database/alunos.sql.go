package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const advanceAlunoIDSeq = `-- name: AdvanceAlunoIDSeq :exec
SELECT setval('alunos_id_seq', GREATEST($1::bigint, (SELECT last_value FROM alunos_id_seq)))
`

func (q *Queries) AdvanceAlunoIDSeq(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, advanceAlunoIDSeq, id)
	return err
}

const createAluno = `-- name: CreateAluno :one
INSERT INTO alunos (id, name, turma_id, synced)
VALUES (COALESCE($1::bigint, nextval('alunos_id_seq')), $2, $3, $4)
RETURNING id, name, turma_id, synced, created_at, updated_at
`

type CreateAlunoParams struct {
	ID      pgtype.Int8 `json:"id"`
	Name    string      `json:"name"`
	TurmaID int64       `json:"turma_id"`
	Synced  bool        `json:"synced"`
}

func (q *Queries) CreateAluno(ctx context.Context, arg CreateAlunoParams) (Aluno, error) {
	row := q.db.QueryRow(ctx, createAluno,
		arg.ID,
		arg.Name,
		arg.TurmaID,
		arg.Synced,
	)
	var i Aluno
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.TurmaID,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAluno = `-- name: GetAluno :one
SELECT id, name, turma_id, synced, created_at, updated_at
FROM alunos
WHERE id = $1
`

func (q *Queries) GetAluno(ctx context.Context, id int64) (Aluno, error) {
	row := q.db.QueryRow(ctx, getAluno, id)
	var i Aluno
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.TurmaID,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAlunos = `-- name: ListAlunos :many
SELECT id, name, turma_id, synced, created_at, updated_at
FROM alunos
WHERE ($1::bigint IS NULL OR turma_id = $1)
ORDER BY name, id
`

func (q *Queries) ListAlunos(ctx context.Context, turmaID pgtype.Int8) ([]Aluno, error) {
	rows, err := q.db.Query(ctx, listAlunos, turmaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Aluno
	for rows.Next() {
		var i Aluno
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.TurmaID,
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

const alunoExists = `-- name: AlunoExists :one
SELECT EXISTS (SELECT 1 FROM alunos WHERE id = $1)
`

func (q *Queries) AlunoExists(ctx context.Context, id int64) (bool, error) {
	row := q.db.QueryRow(ctx, alunoExists, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const updateAluno = `-- name: UpdateAluno :one
UPDATE alunos
SET name = $2, turma_id = $3, synced = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, turma_id, synced, created_at, updated_at
`

type UpdateAlunoParams struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TurmaID int64  `json:"turma_id"`
	Synced  bool   `json:"synced"`
}

func (q *Queries) UpdateAluno(ctx context.Context, arg UpdateAlunoParams) (Aluno, error) {
	row := q.db.QueryRow(ctx, updateAluno,
		arg.ID,
		arg.Name,
		arg.TurmaID,
		arg.Synced,
	)
	var i Aluno
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.TurmaID,
		&i.Synced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
