package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by stores when a lookup matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrNoNaturalKey is returned by FindByNaturalKey for entities that only
	// have a surrogate id.
	ErrNoNaturalKey = errors.New("entity has no natural key")

	// ErrParentNotFound marks records whose referenced owner does not exist.
	ErrParentNotFound = errors.New("parent not found")

	// ErrValidation marks malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyBatch is returned when a sync request carries no records.
	ErrEmptyBatch = errors.New("batch must contain at least one record")

	// ErrBatchTooLarge is returned when a sync request exceeds the configured size.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrUnknownEntity is returned for entity names outside the registry.
	ErrUnknownEntity = errors.New("unknown entity")
)

// ValidationError lists the fields that made an input unusable.
type ValidationError struct {
	Entity EntityType
	Fields []string
	Detail string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	if e.Entity != "" {
		b.WriteString(string(e.Entity))
	} else {
		b.WriteString("input")
	}
	if len(e.Fields) > 0 {
		b.WriteString(": required field missing or invalid: ")
		b.WriteString(strings.Join(e.Fields, ", "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ParentNotFoundError reports a reference to an owner row that does not exist.
type ParentNotFoundError struct {
	Parent EntityType
	ID     int64
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("parent not found: %s %d does not exist", e.Parent, e.ID)
}

func (e *ParentNotFoundError) Unwrap() error { return ErrParentNotFound }

// ConstraintKind distinguishes the storage constraints the resolver reacts to.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintError is how stores surface a violated uniqueness or
// foreign-key constraint.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s constraint %q violated", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// IsUniqueViolation reports whether err carries a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Kind == ConstraintUnique
}

// IsForeignKeyViolation reports whether err carries a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Kind == ConstraintForeignKey
}
