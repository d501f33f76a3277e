package core

import (
	"context"
	"time"
)

// EntityStore persists the four canonical entities.
//
// Implementations must enforce the foreign keys and the unique
// (AlunoId, date) constraint at the storage layer, and report violations as
// *ConstraintError so the resolver can tell a lost insert race from a real
// failure. Lookups that match nothing return ErrNotFound.
type EntityStore interface {
	Ping(ctx context.Context) error

	// Exists reports whether a row of the given entity has this id.
	Exists(ctx context.Context, entity EntityType, id int64) (bool, error)

	FindByID(ctx context.Context, entity EntityType, id int64) (Record, error)

	// FindByNaturalKey looks the record up by its business key. Entities
	// without one return ErrNoNaturalKey.
	FindByNaturalKey(ctx context.Context, rec Record) (Record, error)

	// Create inserts rec and returns the stored row. A positive rec.Key() is
	// used as the id and later generated ids stay above it; otherwise the
	// store assigns one. A taken id is a ConstraintUnique violation.
	Create(ctx context.Context, rec Record) (Record, error)

	// Update overwrites every mutable field of row id with rec's values.
	Update(ctx context.Context, id int64, rec Record) (Record, error)

	ListEscolas(ctx context.Context, filter EscolaFilter) ([]Escola, error)
	ListTurmas(ctx context.Context, filter TurmaFilter) ([]Turma, error)
	ListAlunos(ctx context.Context, filter AlunoFilter) ([]Aluno, error)
	ListPresencas(ctx context.Context, filter PresencaFilter) ([]Presenca, error)
}

// QuarantineStore persists RegistroInvalido rows.
type QuarantineStore interface {
	CreateRegistroInvalido(ctx context.Context, reg RegistroInvalido) (RegistroInvalido, error)

	// GetRegistroInvalido returns ErrNotFound for tombstoned rows unless
	// includeDeleted is set.
	GetRegistroInvalido(ctx context.Context, id int64, includeDeleted bool) (RegistroInvalido, error)

	// ListRegistrosInvalidos returns rows newest first.
	ListRegistrosInvalidos(ctx context.Context, filter QuarantineFilter) ([]RegistroInvalido, error)

	// UpdateRegistroInvalido writes resolvido, dataCorrecao and observacoes.
	UpdateRegistroInvalido(ctx context.Context, reg RegistroInvalido) (RegistroInvalido, error)

	// SetRegistroInvalidoDeletedAt sets or, with a nil time, clears the tombstone.
	SetRegistroInvalidoDeletedAt(ctx context.Context, id int64, at *time.Time) error
}

// Store is the full storage collaborator used by Service.
type Store interface {
	EntityStore
	QuarantineStore
}

// EscolaFilter narrows ListEscolas.
type EscolaFilter struct {
	Synced *bool
}

// TurmaFilter narrows ListTurmas. Zero values match everything.
type TurmaFilter struct {
	EscolaID int64
}

// AlunoFilter narrows ListAlunos. Results are ordered by name.
type AlunoFilter struct {
	TurmaID int64
}

// PresencaFilter narrows ListPresencas. Results are ordered by date, newest first.
type PresencaFilter struct {
	AlunoID int64
	TurmaID int64
	Date    *Date
}

// QuarantineFilter narrows ListRegistrosInvalidos.
type QuarantineFilter struct {
	Resolvido      *bool
	TabelaOrigem   string
	IncludeDeleted bool
}
