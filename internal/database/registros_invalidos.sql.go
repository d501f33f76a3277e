package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createRegistroInvalido = `-- name: CreateRegistroInvalido :one
INSERT INTO registros_invalidos (
    tabela_origem, dados_originais, motivo, observacoes, lote, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5,
    COALESCE($6::timestamptz, now()),
    COALESCE($7::timestamptz, now())
)
RETURNING id, tabela_origem, dados_originais, motivo, resolvido, data_correcao,
          observacoes, lote, created_at, updated_at, deleted_at
`

type CreateRegistroInvalidoParams struct {
	TabelaOrigem   string             `json:"tabela_origem"`
	DadosOriginais []byte             `json:"dados_originais"`
	Motivo         string             `json:"motivo"`
	Observacoes    pgtype.Text        `json:"observacoes"`
	Lote           pgtype.UUID        `json:"lote"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateRegistroInvalido(ctx context.Context, arg CreateRegistroInvalidoParams) (RegistrosInvalido, error) {
	row := q.db.QueryRow(ctx, createRegistroInvalido,
		arg.TabelaOrigem,
		arg.DadosOriginais,
		arg.Motivo,
		arg.Observacoes,
		arg.Lote,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var i RegistrosInvalido
	err := row.Scan(
		&i.ID,
		&i.TabelaOrigem,
		&i.DadosOriginais,
		&i.Motivo,
		&i.Resolvido,
		&i.DataCorrecao,
		&i.Observacoes,
		&i.Lote,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const getRegistroInvalido = `-- name: GetRegistroInvalido :one
SELECT id, tabela_origem, dados_originais, motivo, resolvido, data_correcao,
       observacoes, lote, created_at, updated_at, deleted_at
FROM registros_invalidos
WHERE id = $1
`

func (q *Queries) GetRegistroInvalido(ctx context.Context, id int64) (RegistrosInvalido, error) {
	row := q.db.QueryRow(ctx, getRegistroInvalido, id)
	var i RegistrosInvalido
	err := row.Scan(
		&i.ID,
		&i.TabelaOrigem,
		&i.DadosOriginais,
		&i.Motivo,
		&i.Resolvido,
		&i.DataCorrecao,
		&i.Observacoes,
		&i.Lote,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}

const listRegistrosInvalidos = `-- name: ListRegistrosInvalidos :many
SELECT id, tabela_origem, dados_originais, motivo, resolvido, data_correcao,
       observacoes, lote, created_at, updated_at, deleted_at
FROM registros_invalidos
WHERE ($1::boolean OR deleted_at IS NULL)
  AND ($2::boolean IS NULL OR resolvido = $2)
  AND ($3::text IS NULL OR lower(tabela_origem) = lower($3))
ORDER BY created_at DESC, id DESC
`

type ListRegistrosInvalidosParams struct {
	IncludeDeleted bool        `json:"include_deleted"`
	Resolvido      pgtype.Bool `json:"resolvido"`
	TabelaOrigem   pgtype.Text `json:"tabela_origem"`
}

func (q *Queries) ListRegistrosInvalidos(ctx context.Context, arg ListRegistrosInvalidosParams) ([]RegistrosInvalido, error) {
	rows, err := q.db.Query(ctx, listRegistrosInvalidos, arg.IncludeDeleted, arg.Resolvido, arg.TabelaOrigem)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RegistrosInvalido
	for rows.Next() {
		var i RegistrosInvalido
		if err := rows.Scan(
			&i.ID,
			&i.TabelaOrigem,
			&i.DadosOriginais,
			&i.Motivo,
			&i.Resolvido,
			&i.DataCorrecao,
			&i.Observacoes,
			&i.Lote,
			&i.CreatedAt,
			&i.UpdatedAt,
			&i.DeletedAt,
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

const setRegistroInvalidoDeletedAt = `-- name: SetRegistroInvalidoDeletedAt :execrows
UPDATE registros_invalidos
SET deleted_at = $2
WHERE id = $1
`

type SetRegistroInvalidoDeletedAtParams struct {
	ID        int64              `json:"id"`
	DeletedAt pgtype.Timestamptz `json:"deleted_at"`
}

func (q *Queries) SetRegistroInvalidoDeletedAt(ctx context.Context, arg SetRegistroInvalidoDeletedAtParams) (int64, error) {
	result, err := q.db.Exec(ctx, setRegistroInvalidoDeletedAt, arg.ID, arg.DeletedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const updateRegistroInvalido = `-- name: UpdateRegistroInvalido :one
UPDATE registros_invalidos
SET resolvido = $2, data_correcao = $3, observacoes = $4,
    updated_at = COALESCE($5::timestamptz, now())
WHERE id = $1 AND deleted_at IS NULL
RETURNING id, tabela_origem, dados_originais, motivo, resolvido, data_correcao,
          observacoes, lote, created_at, updated_at, deleted_at
`

type UpdateRegistroInvalidoParams struct {
	ID           int64              `json:"id"`
	Resolvido    bool               `json:"resolvido"`
	DataCorrecao pgtype.Timestamptz `json:"data_correcao"`
	Observacoes  pgtype.Text        `json:"observacoes"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateRegistroInvalido(ctx context.Context, arg UpdateRegistroInvalidoParams) (RegistrosInvalido, error) {
	row := q.db.QueryRow(ctx, updateRegistroInvalido,
		arg.ID,
		arg.Resolvido,
		arg.DataCorrecao,
		arg.Observacoes,
		arg.UpdatedAt,
	)
	var i RegistrosInvalido
	err := row.Scan(
		&i.ID,
		&i.TabelaOrigem,
		&i.DadosOriginais,
		&i.Motivo,
		&i.Resolvido,
		&i.DataCorrecao,
		&i.Observacoes,
		&i.Lote,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.DeletedAt,
	)
	return i, err
}
