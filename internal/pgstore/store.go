// Package pgstore implements core.Store on PostgreSQL using the sqlc
// queries in internal/database.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/frequencia/internal/core"
	db "github.com/JonMunkholm/frequencia/internal/database"
)

// SQLSTATE codes the resolver reacts to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Store is a core.Store over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	q    *db.Queries
}

var _ core.Store = (*Store)(nil)

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: db.New(pool)}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Exists reports whether a row of entity has id.
func (s *Store) Exists(ctx context.Context, entity core.EntityType, id int64) (bool, error) {
	var (
		ok  bool
		err error
	)
	switch entity {
	case core.EntityEscola:
		ok, err = s.q.EscolaExists(ctx, id)
	case core.EntityTurma:
		ok, err = s.q.TurmaExists(ctx, id)
	case core.EntityAluno:
		ok, err = s.q.AlunoExists(ctx, id)
	case core.EntityPresenca:
		ok, err = s.q.PresencaExists(ctx, id)
	default:
		return false, fmt.Errorf("%w: %s", core.ErrUnknownEntity, entity)
	}
	if err != nil {
		return false, translateError(err)
	}
	return ok, nil
}

// FindByID loads one row.
func (s *Store) FindByID(ctx context.Context, entity core.EntityType, id int64) (core.Record, error) {
	switch entity {
	case core.EntityEscola:
		row, err := s.q.GetEscola(ctx, id)
		if err != nil {
			return nil, translateError(err)
		}
		return escolaFromRow(row), nil
	case core.EntityTurma:
		row, err := s.q.GetTurma(ctx, id)
		if err != nil {
			return nil, translateError(err)
		}
		return turmaFromRow(row), nil
	case core.EntityAluno:
		row, err := s.q.GetAluno(ctx, id)
		if err != nil {
			return nil, translateError(err)
		}
		return alunoFromRow(row), nil
	case core.EntityPresenca:
		row, err := s.q.GetPresenca(ctx, id)
		if err != nil {
			return nil, translateError(err)
		}
		return presencaFromRow(row), nil
	}
	return nil, fmt.Errorf("%w: %s", core.ErrUnknownEntity, entity)
}

// FindByNaturalKey matches Presenca by (aluno_id, date).
func (s *Store) FindByNaturalKey(ctx context.Context, rec core.Record) (core.Record, error) {
	p, ok := rec.(*core.Presenca)
	if !ok {
		return nil, core.ErrNoNaturalKey
	}
	row, err := s.q.GetPresencaByAlunoDate(ctx, db.GetPresencaByAlunoDateParams{
		AlunoID: p.AlunoID,
		Date:    toPgDate(p.Date),
	})
	if err != nil {
		return nil, translateError(err)
	}
	return presencaFromRow(row), nil
}

// Create inserts rec. Without a client id the sequence assigns one. With a
// client id the row is inserted as sent and the table's sequence is moved
// past it in the same transaction, so later generated ids never collide.
func (s *Store) Create(ctx context.Context, rec core.Record) (core.Record, error) {
	if rec.Key() <= 0 {
		return insert(ctx, s.q, rec)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	q := s.q.WithTx(tx)
	created, err := insert(ctx, q, rec)
	if err != nil {
		return nil, err
	}
	if err := advanceIDSeq(ctx, q, rec.Entity(), created.Key()); err != nil {
		return nil, translateError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, translateError(err)
	}
	return created, nil
}

func insert(ctx context.Context, q *db.Queries, rec core.Record) (core.Record, error) {
	id := toPgInt8(rec.Key())

	switch r := rec.(type) {
	case *core.Escola:
		row, err := q.CreateEscola(ctx, db.CreateEscolaParams{
			ID: id, Name: r.Name, Address: r.Address, Synced: r.Synced,
		})
		if err != nil {
			return nil, translateError(err)
		}
		return escolaFromRow(row), nil

	case *core.Turma:
		row, err := q.CreateTurma(ctx, db.CreateTurmaParams{
			ID: id, Name: r.Name, EscolaID: r.EscolaID, Synced: r.Synced,
		})
		if err != nil {
			return nil, translateError(err)
		}
		return turmaFromRow(row), nil

	case *core.Aluno:
		row, err := q.CreateAluno(ctx, db.CreateAlunoParams{
			ID: id, Name: r.Name, TurmaID: r.TurmaID, Synced: r.Synced,
		})
		if err != nil {
			return nil, translateError(err)
		}
		return alunoFromRow(row), nil

	case *core.Presenca:
		row, err := q.CreatePresenca(ctx, db.CreatePresencaParams{
			ID:         id,
			AlunoID:    r.AlunoID,
			Date:       toPgDate(r.Date),
			Present:    r.Present,
			Observacao: toPgText(r.Observacao),
			Synced:     r.Synced,
		})
		if err != nil {
			return nil, translateError(err)
		}
		return presencaFromRow(row), nil
	}
	return nil, fmt.Errorf("%w: %T", core.ErrUnknownEntity, rec)
}

func advanceIDSeq(ctx context.Context, q *db.Queries, entity core.EntityType, id int64) error {
	switch entity {
	case core.EntityEscola:
		return q.AdvanceEscolaIDSeq(ctx, id)
	case core.EntityTurma:
		return q.AdvanceTurmaIDSeq(ctx, id)
	case core.EntityAluno:
		return q.AdvanceAlunoIDSeq(ctx, id)
	case core.EntityPresenca:
		return q.AdvancePresencaIDSeq(ctx, id)
	}
	return fmt.Errorf("%w: %s", core.ErrUnknownEntity, entity)
}

// Update overwrites the mutable fields of row id.
func (s *Store) Update(ctx context.Context, id int64, rec core.Record) (core.Record, error) {
	switch r := rec.(type) {
	case *core.Escola:
		row, err := s.q.UpdateEscola(ctx, db.UpdateEscolaParams{
			ID: id, Name: r.Name, Address: r.Address, Synced: r.Synced,
		})
		if err != nil {
			return nil, translateError(err)
		}
		return escolaFromRow(row), nil

	case *core.Turma:
		row, err := s.q.UpdateTurma(ctx, db.UpdateTurmaParams{
			ID: id, Name: r.Name, EscolaID: r.EscolaID, Synced: r.Synced,
		})
		if err != nil {
			return nil, translateError(err)
		}
		return turmaFromRow(row), nil

	case *core.Aluno:
		row, err := s.q.UpdateAluno(ctx, db.UpdateAlunoParams{
			ID: id, Name: r.Name, TurmaID: r.TurmaID, Synced: r.Synced,
		})
		if err != nil {
			return nil, translateError(err)
		}
		return alunoFromRow(row), nil

	case *core.Presenca:
		row, err := s.q.UpdatePresenca(ctx, db.UpdatePresencaParams{
			ID:         id,
			AlunoID:    r.AlunoID,
			Date:       toPgDate(r.Date),
			Present:    r.Present,
			Observacao: toPgText(r.Observacao),
			Synced:     r.Synced,
		})
		if err != nil {
			return nil, translateError(err)
		}
		return presencaFromRow(row), nil
	}
	return nil, fmt.Errorf("%w: %T", core.ErrUnknownEntity, rec)
}

// ListEscolas returns schools ordered by id.
func (s *Store) ListEscolas(ctx context.Context, filter core.EscolaFilter) ([]core.Escola, error) {
	rows, err := s.q.ListEscolas(ctx, toPgBool(filter.Synced))
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]core.Escola, len(rows))
	for i, row := range rows {
		out[i] = *escolaFromRow(row)
	}
	return out, nil
}

// ListTurmas returns classes ordered by id.
func (s *Store) ListTurmas(ctx context.Context, filter core.TurmaFilter) ([]core.Turma, error) {
	rows, err := s.q.ListTurmas(ctx, toPgInt8(filter.EscolaID))
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]core.Turma, len(rows))
	for i, row := range rows {
		out[i] = *turmaFromRow(row)
	}
	return out, nil
}

// ListAlunos returns students ordered by name.
func (s *Store) ListAlunos(ctx context.Context, filter core.AlunoFilter) ([]core.Aluno, error) {
	rows, err := s.q.ListAlunos(ctx, toPgInt8(filter.TurmaID))
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]core.Aluno, len(rows))
	for i, row := range rows {
		out[i] = *alunoFromRow(row)
	}
	return out, nil
}

// ListPresencas returns marks ordered by date, newest first.
func (s *Store) ListPresencas(ctx context.Context, filter core.PresencaFilter) ([]core.Presenca, error) {
	params := db.ListPresencasParams{
		AlunoID: toPgInt8(filter.AlunoID),
		TurmaID: toPgInt8(filter.TurmaID),
	}
	if filter.Date != nil {
		params.Date = toPgDate(*filter.Date)
	}

	rows, err := s.q.ListPresencas(ctx, params)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]core.Presenca, len(rows))
	for i, row := range rows {
		out[i] = *presencaFromRow(row)
	}
	return out, nil
}

// CreateRegistroInvalido stores a quarantine row.
func (s *Store) CreateRegistroInvalido(ctx context.Context, reg core.RegistroInvalido) (core.RegistroInvalido, error) {
	row, err := s.q.CreateRegistroInvalido(ctx, db.CreateRegistroInvalidoParams{
		TabelaOrigem: reg.TabelaOrigem,
		// Plain []byte is sent as raw JSON; the named type would be re-encoded.
		DadosOriginais: []byte(reg.DadosOriginais),
		Motivo:         reg.Motivo,
		Observacoes:    toPgText(reg.Observacoes),
		Lote:           toPgUUID(reg.Lote),
		CreatedAt:      toPgTimestamptz(reg.CreatedAt),
		UpdatedAt:      toPgTimestamptz(reg.UpdatedAt),
	})
	if err != nil {
		return core.RegistroInvalido{}, translateError(err)
	}
	return registroFromRow(row), nil
}

// GetRegistroInvalido loads one quarantine row.
func (s *Store) GetRegistroInvalido(ctx context.Context, id int64, includeDeleted bool) (core.RegistroInvalido, error) {
	row, err := s.q.GetRegistroInvalido(ctx, id)
	if err != nil {
		return core.RegistroInvalido{}, translateError(err)
	}
	if row.DeletedAt.Valid && !includeDeleted {
		return core.RegistroInvalido{}, core.ErrNotFound
	}
	return registroFromRow(row), nil
}

// ListRegistrosInvalidos returns quarantine rows newest first.
func (s *Store) ListRegistrosInvalidos(ctx context.Context, filter core.QuarantineFilter) ([]core.RegistroInvalido, error) {
	params := db.ListRegistrosInvalidosParams{
		IncludeDeleted: filter.IncludeDeleted,
		Resolvido:      toPgBool(filter.Resolvido),
	}
	if filter.TabelaOrigem != "" {
		params.TabelaOrigem = pgtype.Text{String: filter.TabelaOrigem, Valid: true}
	}

	rows, err := s.q.ListRegistrosInvalidos(ctx, params)
	if err != nil {
		return nil, translateError(err)
	}
	out := make([]core.RegistroInvalido, len(rows))
	for i, row := range rows {
		out[i] = registroFromRow(row)
	}
	return out, nil
}

// UpdateRegistroInvalido writes the reviewer fields.
func (s *Store) UpdateRegistroInvalido(ctx context.Context, reg core.RegistroInvalido) (core.RegistroInvalido, error) {
	params := db.UpdateRegistroInvalidoParams{
		ID:          reg.ID,
		Resolvido:   reg.Resolvido,
		Observacoes: toPgText(reg.Observacoes),
		UpdatedAt:   toPgTimestamptz(reg.UpdatedAt),
	}
	if reg.DataCorrecao != nil {
		params.DataCorrecao = toPgTimestamptz(*reg.DataCorrecao)
	}

	row, err := s.q.UpdateRegistroInvalido(ctx, params)
	if err != nil {
		return core.RegistroInvalido{}, translateError(err)
	}
	return registroFromRow(row), nil
}

// SetRegistroInvalidoDeletedAt sets or clears the tombstone.
func (s *Store) SetRegistroInvalidoDeletedAt(ctx context.Context, id int64, at *time.Time) error {
	params := db.SetRegistroInvalidoDeletedAtParams{ID: id}
	if at != nil {
		params.DeletedAt = toPgTimestamptz(*at)
	}

	n, err := s.q.SetRegistroInvalidoDeletedAt(ctx, params)
	if err != nil {
		return translateError(err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// translateError maps pgx errors onto the core error vocabulary.
func translateError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &core.ConstraintError{Kind: core.ConstraintUnique, Constraint: pgErr.ConstraintName, Err: err}
		case pgForeignKeyViolation:
			return &core.ConstraintError{Kind: core.ConstraintForeignKey, Constraint: pgErr.ConstraintName, Err: err}
		}
	}
	return err
}

// ----------------------------------------------------------------------------
// Row conversion
// ----------------------------------------------------------------------------

func escolaFromRow(row db.Escola) *core.Escola {
	return &core.Escola{
		ID:        row.ID,
		Name:      row.Name,
		Address:   row.Address,
		Synced:    row.Synced,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func turmaFromRow(row db.Turma) *core.Turma {
	return &core.Turma{
		ID:        row.ID,
		Name:      row.Name,
		EscolaID:  row.EscolaID,
		Synced:    row.Synced,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func alunoFromRow(row db.Aluno) *core.Aluno {
	return &core.Aluno{
		ID:        row.ID,
		Name:      row.Name,
		TurmaID:   row.TurmaID,
		Synced:    row.Synced,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func presencaFromRow(row db.Presenca) *core.Presenca {
	return &core.Presenca{
		ID:         row.ID,
		AlunoID:    row.AlunoID,
		Date:       fromPgDate(row.Date),
		Present:    row.Present,
		Observacao: fromPgText(row.Observacao),
		Synced:     row.Synced,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func registroFromRow(row db.RegistrosInvalido) core.RegistroInvalido {
	reg := core.RegistroInvalido{
		ID:             row.ID,
		TabelaOrigem:   row.TabelaOrigem,
		DadosOriginais: core.Payload(row.DadosOriginais),
		Motivo:         row.Motivo,
		Resolvido:      row.Resolvido,
		DataCorrecao:   fromPgTimestamptz(row.DataCorrecao),
		Observacoes:    fromPgText(row.Observacoes),
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
		DeletedAt:      fromPgTimestamptz(row.DeletedAt),
	}
	if row.Lote.Valid {
		lote := uuid.UUID(row.Lote.Bytes)
		reg.Lote = &lote
	}
	return reg
}

func toPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func fromPgText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func toPgBool(b *bool) pgtype.Bool {
	if b == nil {
		return pgtype.Bool{Valid: false}
	}
	return pgtype.Bool{Bool: *b, Valid: true}
}

// toPgInt8 treats zero as absent: no filter in lists, a sequence id on insert.
func toPgInt8(i int64) pgtype.Int8 {
	if i == 0 {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: i, Valid: true}
}

func toPgDate(d core.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

func fromPgDate(d pgtype.Date) core.Date {
	if !d.Valid {
		return core.Date{}
	}
	return core.DateOf(d.Time)
}

func toPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func fromPgTimestamptz(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toPgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}
