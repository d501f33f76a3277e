package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Aluno struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	TurmaID   int64              `json:"turma_id"`
	Synced    bool               `json:"synced"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Escola struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	Address   string             `json:"address"`
	Synced    bool               `json:"synced"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Presenca struct {
	ID         int64              `json:"id"`
	AlunoID    int64              `json:"aluno_id"`
	Date       pgtype.Date        `json:"date"`
	Present    bool               `json:"present"`
	Observacao pgtype.Text        `json:"observacao"`
	Synced     bool               `json:"synced"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
}

type RegistrosInvalido struct {
	ID             int64              `json:"id"`
	TabelaOrigem   string             `json:"tabela_origem"`
	DadosOriginais []byte             `json:"dados_originais"`
	Motivo         string             `json:"motivo"`
	Resolvido      bool               `json:"resolvido"`
	DataCorrecao   pgtype.Timestamptz `json:"data_correcao"`
	Observacoes    pgtype.Text        `json:"observacoes"`
	Lote           pgtype.UUID        `json:"lote"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
	DeletedAt      pgtype.Timestamptz `json:"deleted_at"`
}

type Turma struct {
	ID        int64              `json:"id"`
	Name      string             `json:"name"`
	EscolaID  int64              `json:"escola_id"`
	Synced    bool               `json:"synced"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}
