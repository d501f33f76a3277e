// Package memstore is an in-memory core.Store.
//
// It enforces the same foreign keys and the (AlunoId, date) unique key as
// the PostgreSQL schema and reports violations as *core.ConstraintError, so
// the resolver behaves identically against either store. It backs the test
// suites and DB_DRIVER=memory for local runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/frequencia/internal/core"
)

// Constraint names mirror the PostgreSQL schema.
const (
	constraintPresencaKey  = "presencas_aluno_id_date_key"
	constraintTurmaEscola  = "turmas_escola_id_fkey"
	constraintAlunoTurma   = "alunos_turma_id_fkey"
	constraintPresencaAlun = "presencas_aluno_id_fkey"
)

var primaryKeys = map[core.EntityType]string{
	core.EntityEscola:   "escolas_pkey",
	core.EntityTurma:    "turmas_pkey",
	core.EntityAluno:    "alunos_pkey",
	core.EntityPresenca: "presencas_pkey",
}

type presencaKey struct {
	alunoID int64
	date    string
}

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	lastID    map[core.EntityType]int64
	escolas   map[int64]core.Escola
	turmas    map[int64]core.Turma
	alunos    map[int64]core.Aluno
	presencas map[int64]core.Presenca
	byKey     map[presencaKey]int64

	lastRegistroID int64
	registros      map[int64]core.RegistroInvalido

	now func() time.Time

	// BeforeCreate, when set, runs before Create takes the lock. Tests use it
	// to line up concurrent inserts.
	BeforeCreate func(core.Record)
}

// New returns an empty store.
func New() *Store {
	return &Store{
		lastID:    make(map[core.EntityType]int64),
		escolas:   make(map[int64]core.Escola),
		turmas:    make(map[int64]core.Turma),
		alunos:    make(map[int64]core.Aluno),
		presencas: make(map[int64]core.Presenca),
		byKey:     make(map[presencaKey]int64),
		registros: make(map[int64]core.RegistroInvalido),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ core.Store = (*Store)(nil)

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Exists reports whether a row of entity has id.
func (s *Store) Exists(ctx context.Context, entity core.EntityType, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existsLocked(entity, id), nil
}

func (s *Store) existsLocked(entity core.EntityType, id int64) bool {
	var ok bool
	switch entity {
	case core.EntityEscola:
		_, ok = s.escolas[id]
	case core.EntityTurma:
		_, ok = s.turmas[id]
	case core.EntityAluno:
		_, ok = s.alunos[id]
	case core.EntityPresenca:
		_, ok = s.presencas[id]
	}
	return ok
}

// FindByID returns a copy of the row.
func (s *Store) FindByID(ctx context.Context, entity core.EntityType, id int64) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch entity {
	case core.EntityEscola:
		if e, ok := s.escolas[id]; ok {
			return &e, nil
		}
	case core.EntityTurma:
		if t, ok := s.turmas[id]; ok {
			return &t, nil
		}
	case core.EntityAluno:
		if a, ok := s.alunos[id]; ok {
			return &a, nil
		}
	case core.EntityPresenca:
		if p, ok := s.presencas[id]; ok {
			return &p, nil
		}
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownEntity, entity)
	}
	return nil, core.ErrNotFound
}

// FindByNaturalKey matches Presenca by (AlunoId, date).
func (s *Store) FindByNaturalKey(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := rec.(*core.Presenca)
	if !ok {
		return nil, core.ErrNoNaturalKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byKey[keyOf(*p)]
	if !ok {
		return nil, core.ErrNotFound
	}
	found := s.presencas[id]
	return &found, nil
}

// Create inserts rec. A positive rec.Key() is kept as the row id and moves
// the id counter past it; otherwise the next id is assigned.
func (s *Store) Create(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.BeforeCreate != nil {
		s.BeforeCreate(rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkParentLocked(rec); err != nil {
		return nil, err
	}

	id := rec.Key()
	if id <= 0 {
		id = s.lastID[rec.Entity()] + 1
	} else if s.existsLocked(rec.Entity(), id) {
		return nil, primaryKeyViolation(rec.Entity(), id)
	}
	now := s.now()

	switch r := rec.(type) {
	case *core.Escola:
		row := *r
		row.ID, row.CreatedAt, row.UpdatedAt = id, now, now
		s.escolas[id] = row
		s.advanceLocked(rec.Entity(), id)
		return &row, nil

	case *core.Turma:
		row := *r
		row.ID, row.CreatedAt, row.UpdatedAt = id, now, now
		s.turmas[id] = row
		s.advanceLocked(rec.Entity(), id)
		return &row, nil

	case *core.Aluno:
		row := *r
		row.ID, row.CreatedAt, row.UpdatedAt = id, now, now
		s.alunos[id] = row
		s.advanceLocked(rec.Entity(), id)
		return &row, nil

	case *core.Presenca:
		key := keyOf(*r)
		if _, taken := s.byKey[key]; taken {
			return nil, uniqueViolation(key)
		}
		row := *r
		row.ID, row.CreatedAt, row.UpdatedAt = id, now, now
		row.Observacao = cloneString(r.Observacao)
		s.presencas[id] = row
		s.byKey[key] = id
		s.advanceLocked(rec.Entity(), id)
		return &row, nil
	}

	return nil, fmt.Errorf("%w: %T", core.ErrUnknownEntity, rec)
}

// advanceLocked keeps generated ids above every stored id, like setval on
// the PostgreSQL sequences.
func (s *Store) advanceLocked(entity core.EntityType, id int64) {
	if id > s.lastID[entity] {
		s.lastID[entity] = id
	}
}

// Update overwrites the mutable fields of row id.
func (s *Store) Update(ctx context.Context, id int64, rec core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.existsLocked(rec.Entity(), id) {
		return nil, core.ErrNotFound
	}
	if err := s.checkParentLocked(rec); err != nil {
		return nil, err
	}

	now := s.now()

	switch r := rec.(type) {
	case *core.Escola:
		row := s.escolas[id]
		row.Name, row.Address, row.Synced, row.UpdatedAt = r.Name, r.Address, r.Synced, now
		s.escolas[id] = row
		return &row, nil

	case *core.Turma:
		row := s.turmas[id]
		row.Name, row.EscolaID, row.Synced, row.UpdatedAt = r.Name, r.EscolaID, r.Synced, now
		s.turmas[id] = row
		return &row, nil

	case *core.Aluno:
		row := s.alunos[id]
		row.Name, row.TurmaID, row.Synced, row.UpdatedAt = r.Name, r.TurmaID, r.Synced, now
		s.alunos[id] = row
		return &row, nil

	case *core.Presenca:
		row := s.presencas[id]
		oldKey, newKey := keyOf(row), keyOf(*r)
		if owner, taken := s.byKey[newKey]; taken && owner != id {
			return nil, uniqueViolation(newKey)
		}
		row.AlunoID, row.Date, row.Present = r.AlunoID, r.Date, r.Present
		row.Observacao = cloneString(r.Observacao)
		row.Synced, row.UpdatedAt = r.Synced, now
		delete(s.byKey, oldKey)
		s.byKey[newKey] = id
		s.presencas[id] = row
		return &row, nil
	}

	return nil, fmt.Errorf("%w: %T", core.ErrUnknownEntity, rec)
}

func (s *Store) checkParentLocked(rec core.Record) error {
	parent, parentID, ok := rec.Parent()
	if !ok || s.existsLocked(parent, parentID) {
		return nil
	}

	var constraint, table string
	switch rec.Entity() {
	case core.EntityTurma:
		constraint, table = constraintTurmaEscola, "turmas"
	case core.EntityAluno:
		constraint, table = constraintAlunoTurma, "alunos"
	case core.EntityPresenca:
		constraint, table = constraintPresencaAlun, "presencas"
	}
	return &core.ConstraintError{
		Kind:       core.ConstraintForeignKey,
		Constraint: constraint,
		Err: fmt.Errorf("insert or update on table %q violates foreign key constraint %q",
			table, constraint),
	}
}

// ----------------------------------------------------------------------------
// Lists
// ----------------------------------------------------------------------------

// ListEscolas returns schools ordered by id.
func (s *Store) ListEscolas(ctx context.Context, filter core.EscolaFilter) ([]core.Escola, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Escola, 0, len(s.escolas))
	for _, e := range s.escolas {
		if filter.Synced != nil && e.Synced != *filter.Synced {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListTurmas returns classes ordered by id.
func (s *Store) ListTurmas(ctx context.Context, filter core.TurmaFilter) ([]core.Turma, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Turma, 0, len(s.turmas))
	for _, t := range s.turmas {
		if filter.EscolaID != 0 && t.EscolaID != filter.EscolaID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListAlunos returns students ordered by name, then id.
func (s *Store) ListAlunos(ctx context.Context, filter core.AlunoFilter) ([]core.Aluno, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Aluno, 0, len(s.alunos))
	for _, a := range s.alunos {
		if filter.TurmaID != 0 && a.TurmaID != filter.TurmaID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListPresencas returns marks ordered by date descending, then id.
func (s *Store) ListPresencas(ctx context.Context, filter core.PresencaFilter) ([]core.Presenca, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Presenca, 0)
	for _, p := range s.presencas {
		if filter.AlunoID != 0 && p.AlunoID != filter.AlunoID {
			continue
		}
		if filter.TurmaID != 0 && s.alunos[p.AlunoID].TurmaID != filter.TurmaID {
			continue
		}
		if filter.Date != nil && !p.Date.Equal(*filter.Date) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ----------------------------------------------------------------------------
// Quarantine
// ----------------------------------------------------------------------------

// CreateRegistroInvalido stores reg under a new id.
func (s *Store) CreateRegistroInvalido(ctx context.Context, reg core.RegistroInvalido) (core.RegistroInvalido, error) {
	if err := ctx.Err(); err != nil {
		return core.RegistroInvalido{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRegistroID++
	reg.ID = s.lastRegistroID
	now := s.now()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	if reg.UpdatedAt.IsZero() {
		reg.UpdatedAt = now
	}
	reg = cloneRegistro(reg)
	s.registros[reg.ID] = reg
	return cloneRegistro(reg), nil
}

// GetRegistroInvalido returns one row. Tombstoned rows need includeDeleted.
func (s *Store) GetRegistroInvalido(ctx context.Context, id int64, includeDeleted bool) (core.RegistroInvalido, error) {
	if err := ctx.Err(); err != nil {
		return core.RegistroInvalido{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registros[id]
	if !ok || (reg.Deleted() && !includeDeleted) {
		return core.RegistroInvalido{}, core.ErrNotFound
	}
	return cloneRegistro(reg), nil
}

// ListRegistrosInvalidos returns rows newest first.
func (s *Store) ListRegistrosInvalidos(ctx context.Context, filter core.QuarantineFilter) ([]core.RegistroInvalido, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.RegistroInvalido, 0, len(s.registros))
	for _, reg := range s.registros {
		if reg.Deleted() && !filter.IncludeDeleted {
			continue
		}
		if filter.Resolvido != nil && reg.Resolvido != *filter.Resolvido {
			continue
		}
		if filter.TabelaOrigem != "" && !strings.EqualFold(reg.TabelaOrigem, filter.TabelaOrigem) {
			continue
		}
		out = append(out, cloneRegistro(reg))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdateRegistroInvalido writes the reviewer fields of reg.
func (s *Store) UpdateRegistroInvalido(ctx context.Context, reg core.RegistroInvalido) (core.RegistroInvalido, error) {
	if err := ctx.Err(); err != nil {
		return core.RegistroInvalido{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.registros[reg.ID]
	if !ok || row.Deleted() {
		return core.RegistroInvalido{}, core.ErrNotFound
	}
	row.Resolvido = reg.Resolvido
	row.DataCorrecao = cloneTime(reg.DataCorrecao)
	row.Observacoes = cloneString(reg.Observacoes)
	row.UpdatedAt = reg.UpdatedAt
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = s.now()
	}
	s.registros[reg.ID] = row
	return cloneRegistro(row), nil
}

// SetRegistroInvalidoDeletedAt sets or clears the tombstone.
func (s *Store) SetRegistroInvalidoDeletedAt(ctx context.Context, id int64, at *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.registros[id]
	if !ok {
		return core.ErrNotFound
	}
	row.DeletedAt = cloneTime(at)
	s.registros[id] = row
	return nil
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func keyOf(p core.Presenca) presencaKey {
	return presencaKey{alunoID: p.AlunoID, date: p.Date.String()}
}

func uniqueViolation(key presencaKey) error {
	return &core.ConstraintError{
		Kind:       core.ConstraintUnique,
		Constraint: constraintPresencaKey,
		Err: fmt.Errorf("duplicate key value violates unique constraint %q: (aluno_id, date)=(%d, %s) already exists",
			constraintPresencaKey, key.alunoID, key.date),
	}
}

func primaryKeyViolation(entity core.EntityType, id int64) error {
	constraint := primaryKeys[entity]
	return &core.ConstraintError{
		Kind:       core.ConstraintUnique,
		Constraint: constraint,
		Err: fmt.Errorf("duplicate key value violates unique constraint %q: (id)=(%d) already exists",
			constraint, id),
	}
}

func cloneRegistro(reg core.RegistroInvalido) core.RegistroInvalido {
	reg.DadosOriginais = append(core.Payload(nil), reg.DadosOriginais...)
	reg.DataCorrecao = cloneTime(reg.DataCorrecao)
	reg.Observacoes = cloneString(reg.Observacoes)
	reg.DeletedAt = cloneTime(reg.DeletedAt)
	if reg.Lote != nil {
		lote := *reg.Lote
		reg.Lote = &lote
	}
	return reg
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
