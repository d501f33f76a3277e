package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType names one of the synchronizable entities. The value doubles as
// the tabelaOrigem of quarantine rows.
type EntityType string

const (
	EntityEscola   EntityType = "Escola"
	EntityTurma    EntityType = "Turma"
	EntityAluno    EntityType = "Aluno"
	EntityPresenca EntityType = "Presenca"
)

// Record is implemented by the four canonical entities.
type Record interface {
	// Entity reports which entity the record belongs to.
	Entity() EntityType

	// Key returns the surrogate id, or 0 when the client sent none.
	Key() int64

	// Parent returns the referenced owner, if the entity has one.
	Parent() (EntityType, int64, bool)

	setSynced(bool)
}

// Escola is a school. It is the root of the ownership tree.
type Escola struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Synced    bool      `json:"synced"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e *Escola) Entity() EntityType                { return EntityEscola }
func (e *Escola) Key() int64                        { return e.ID }
func (e *Escola) Parent() (EntityType, int64, bool) { return "", 0, false }
func (e *Escola) setSynced(v bool)                  { e.Synced = v }

// Turma is a class owned by one Escola.
type Turma struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	EscolaID  int64     `json:"EscolaId"`
	Synced    bool      `json:"synced"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Turma) Entity() EntityType                { return EntityTurma }
func (t *Turma) Key() int64                        { return t.ID }
func (t *Turma) Parent() (EntityType, int64, bool) { return EntityEscola, t.EscolaID, true }
func (t *Turma) setSynced(v bool)                  { t.Synced = v }

// Aluno is a student enrolled in one Turma.
type Aluno struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	TurmaID   int64     `json:"TurmaId"`
	Synced    bool      `json:"synced"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Aluno) Entity() EntityType                { return EntityAluno }
func (a *Aluno) Key() int64                        { return a.ID }
func (a *Aluno) Parent() (EntityType, int64, bool) { return EntityTurma, a.TurmaID, true }
func (a *Aluno) setSynced(v bool)                  { a.Synced = v }

// Presenca is one attendance mark. (AlunoID, Date) is unique.
type Presenca struct {
	ID         int64     `json:"id"`
	AlunoID    int64     `json:"AlunoId"`
	Date       Date      `json:"date"`
	Present    bool      `json:"present"`
	Observacao *string   `json:"observacao"`
	Synced     bool      `json:"synced"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (p *Presenca) Entity() EntityType                { return EntityPresenca }
func (p *Presenca) Key() int64                        { return p.ID }
func (p *Presenca) Parent() (EntityType, int64, bool) { return EntityAluno, p.AlunoID, true }
func (p *Presenca) setSynced(v bool)                  { p.Synced = v }

// RegistroInvalido is a quarantined record awaiting human review.
type RegistroInvalido struct {
	ID             int64      `json:"id"`
	TabelaOrigem   string     `json:"tabelaOrigem"`
	DadosOriginais Payload    `json:"dadosOriginais"`
	Motivo         string     `json:"motivo"`
	Resolvido      bool       `json:"resolvido"`
	DataCorrecao   *time.Time `json:"dataCorrecao"`
	Observacoes    *string    `json:"observacoes"`
	Lote           *uuid.UUID `json:"lote,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty"`
}

// Deleted reports whether the row carries a tombstone.
func (r *RegistroInvalido) Deleted() bool {
	return r.DeletedAt != nil
}

// ----------------------------------------------------------------------------
// Date
// ----------------------------------------------------------------------------

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, always in UTC.
type Date struct {
	t time.Time
}

// NewDate returns the date for year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp. Timestamps are
// converted to UTC before the time of day is dropped.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return d.t }

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Equal reports whether both values name the same day.
func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

// Before reports whether d is earlier than o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ----------------------------------------------------------------------------
// Payload
// ----------------------------------------------------------------------------

// Payload is an opaque JSON value kept byte for byte. Quarantine rows store
// whatever the client sent so a reviewer sees it unmodified.
type Payload []byte

// PayloadOf marshals v into a Payload.
func PayloadOf(v any) (Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Payload(b), nil
}

// Valid reports whether p holds a single well-formed JSON value.
func (p Payload) Valid() bool {
	return len(p) > 0 && json.Valid(p)
}

// Decode unmarshals the payload into v.
func (p Payload) Decode(v any) error {
	return json.Unmarshal(p, v)
}

func (p Payload) String() string {
	return string(p)
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	*p = append((*p)[:0], b...)
	return nil
}
