package core

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func init() {
	Register(EntityDefinition{
		Type:     EntityEscola,
		Table:    "escolas",
		BatchKey: "escolas",
		Decode:   decodeEscola,
	})
	Register(EntityDefinition{
		Type:     EntityTurma,
		Table:    "turmas",
		BatchKey: "turmas",
		Decode:   decodeTurma,
	})
	Register(EntityDefinition{
		Type:     EntityAluno,
		Table:    "alunos",
		BatchKey: "alunos",
		Decode:   decodeAluno,
	})
	Register(EntityDefinition{
		Type:       EntityPresenca,
		Table:      "presencas",
		BatchKey:   "presencas",
		NaturalKey: []string{"AlunoId", "date"},
		Decode:     decodePresenca,
	})
}

// validate reports field names by their JSON tag so error messages match
// what the client sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Field names are matched case-insensitively by encoding/json, so the
// camelCase variants older clients send (escolaId, turmaId) decode as well.

type escolaInput struct {
	ID      int64  `json:"id"`
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

type turmaInput struct {
	ID       int64  `json:"id"`
	Name     string `json:"name" validate:"required"`
	EscolaID int64  `json:"EscolaId" validate:"required,gt=0"`
}

type alunoInput struct {
	ID      int64  `json:"id"`
	Name    string `json:"name" validate:"required"`
	TurmaID int64  `json:"TurmaId" validate:"required,gt=0"`
}

type presencaInput struct {
	ID         int64   `json:"id"`
	AlunoID    int64   `json:"AlunoId" validate:"required,gt=0"`
	Date       *Date   `json:"date" validate:"required"`
	Present    *bool   `json:"present" validate:"required"`
	Observacao *string `json:"observacao"`
}

func decodeEscola(raw Payload) (Record, error) {
	var in escolaInput
	if err := decodeInput(EntityEscola, raw, &in, func() {
		in.Name = strings.TrimSpace(in.Name)
		in.Address = strings.TrimSpace(in.Address)
	}); err != nil {
		return nil, err
	}
	return &Escola{ID: clientID(in.ID), Name: in.Name, Address: in.Address}, nil
}

func decodeTurma(raw Payload) (Record, error) {
	var in turmaInput
	if err := decodeInput(EntityTurma, raw, &in, func() {
		in.Name = strings.TrimSpace(in.Name)
	}); err != nil {
		return nil, err
	}
	return &Turma{ID: clientID(in.ID), Name: in.Name, EscolaID: in.EscolaID}, nil
}

func decodeAluno(raw Payload) (Record, error) {
	var in alunoInput
	if err := decodeInput(EntityAluno, raw, &in, func() {
		in.Name = strings.TrimSpace(in.Name)
	}); err != nil {
		return nil, err
	}
	return &Aluno{ID: clientID(in.ID), Name: in.Name, TurmaID: in.TurmaID}, nil
}

func decodePresenca(raw Payload) (Record, error) {
	var in presencaInput
	if err := decodeInput(EntityPresenca, raw, &in, nil); err != nil {
		return nil, err
	}
	return &Presenca{
		ID:         clientID(in.ID),
		AlunoID:    in.AlunoID,
		Date:       *in.Date,
		Present:    *in.Present,
		Observacao: in.Observacao,
	}, nil
}

// clientID drops the non-positive placeholders some clients use for rows
// that were never stored.
func clientID(id int64) int64 {
	if id < 0 {
		return 0
	}
	return id
}

// decodeInput unmarshals raw into dst, applies normalize and validates the
// result against its struct tags.
func decodeInput(entity EntityType, raw Payload, dst any, normalize func()) error {
	if !raw.Valid() {
		return &ValidationError{Entity: entity, Detail: "record is not valid JSON"}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if typeErr.Field == "" {
				return &ValidationError{Entity: entity, Detail: "record must be a JSON object"}
			}
			return &ValidationError{Entity: entity, Fields: []string{typeErr.Field}}
		}
		return &ValidationError{Entity: entity, Detail: err.Error()}
	}

	if normalize != nil {
		normalize()
	}

	if err := validate.Struct(dst); err != nil {
		return newValidationError(entity, err)
	}
	return nil
}

// newValidationError converts validator output into a *ValidationError.
func newValidationError(entity EntityType, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return &ValidationError{Entity: entity, Fields: fields}
	}
	return &ValidationError{Entity: entity, Detail: err.Error()}
}
