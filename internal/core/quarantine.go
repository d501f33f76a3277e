package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/frequencia/internal/logging"
)

// QuarantineParams describes one rejected record to be kept for review.
type QuarantineParams struct {
	Source  string
	Payload Payload
	Reason  string
	Notes   *string
	BatchID *uuid.UUID
}

// QuarantineInput is the body of a manual quarantine entry.
type QuarantineInput struct {
	TabelaOrigem   string  `json:"tabelaOrigem" validate:"required"`
	DadosOriginais Payload `json:"dadosOriginais" validate:"required"`
	Motivo         string  `json:"motivo" validate:"required"`
	Observacoes    *string `json:"observacoes"`
}

// QuarantineUpdate carries the reviewer-editable fields. Nil fields are left
// untouched.
type QuarantineUpdate struct {
	Resolvido   *bool   `json:"resolvido"`
	Observacoes *string `json:"observacoes"`
}

// Quarantine stores one rejected record verbatim. resolvido starts false.
func (s *Service) Quarantine(ctx context.Context, p QuarantineParams) (RegistroInvalido, error) {
	if strings.TrimSpace(p.Source) == "" {
		return RegistroInvalido{}, &ValidationError{Fields: []string{"tabelaOrigem"}}
	}
	if !p.Payload.Valid() {
		return RegistroInvalido{}, &ValidationError{Fields: []string{"dadosOriginais"}, Detail: "must be valid JSON"}
	}
	if strings.TrimSpace(p.Reason) == "" {
		return RegistroInvalido{}, &ValidationError{Fields: []string{"motivo"}}
	}

	now := s.now()
	reg, err := s.store.CreateRegistroInvalido(ctx, RegistroInvalido{
		TabelaOrigem:   p.Source,
		DadosOriginais: p.Payload,
		Motivo:         p.Reason,
		Observacoes:    p.Notes,
		Lote:           p.BatchID,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return RegistroInvalido{}, fmt.Errorf("quarantine %s record: %w", p.Source, err)
	}

	logging.FromContext(ctx).Debug("record quarantined",
		"registro_invalido_id", reg.ID,
		"tabela_origem", reg.TabelaOrigem,
		"motivo", reg.Motivo,
	)
	return reg, nil
}

// CreateQuarantine records a manual quarantine entry.
func (s *Service) CreateQuarantine(ctx context.Context, in QuarantineInput) (RegistroInvalido, error) {
	if err := validate.Struct(in); err != nil {
		return RegistroInvalido{}, newValidationError("", err)
	}
	if string(in.DadosOriginais) == "null" {
		return RegistroInvalido{}, &ValidationError{Fields: []string{"dadosOriginais"}}
	}
	return s.Quarantine(ctx, QuarantineParams{
		Source:  in.TabelaOrigem,
		Payload: in.DadosOriginais,
		Reason:  in.Motivo,
		Notes:   in.Observacoes,
	})
}

// ListQuarantine returns quarantine rows, newest first. Tombstoned rows are
// included only when filter.IncludeDeleted is set.
func (s *Service) ListQuarantine(ctx context.Context, filter QuarantineFilter) ([]RegistroInvalido, error) {
	regs, err := s.store.ListRegistrosInvalidos(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quarantine: %w", err)
	}
	return regs, nil
}

// GetQuarantine returns one live quarantine row or ErrNotFound.
func (s *Service) GetQuarantine(ctx context.Context, id int64) (RegistroInvalido, error) {
	return s.store.GetRegistroInvalido(ctx, id, false)
}

// UpdateQuarantine applies a reviewer's changes. Marking a row resolved
// stamps dataCorrecao with the current time; unmarking clears it.
func (s *Service) UpdateQuarantine(ctx context.Context, id int64, upd QuarantineUpdate) (RegistroInvalido, error) {
	reg, err := s.store.GetRegistroInvalido(ctx, id, false)
	if err != nil {
		return RegistroInvalido{}, err
	}

	now := s.now()
	if upd.Resolvido != nil {
		reg.Resolvido = *upd.Resolvido
		if reg.Resolvido {
			reg.DataCorrecao = &now
		} else {
			reg.DataCorrecao = nil
		}
	}
	if upd.Observacoes != nil {
		reg.Observacoes = upd.Observacoes
	}
	reg.UpdatedAt = now

	updated, err := s.store.UpdateRegistroInvalido(ctx, reg)
	if err != nil {
		return RegistroInvalido{}, fmt.Errorf("update quarantine %d: %w", id, err)
	}
	return updated, nil
}

// DeleteQuarantine tombstones a row. The row stays recoverable.
func (s *Service) DeleteQuarantine(ctx context.Context, id int64) error {
	if _, err := s.store.GetRegistroInvalido(ctx, id, false); err != nil {
		return err
	}
	now := s.now()
	return s.store.SetRegistroInvalidoDeletedAt(ctx, id, &now)
}

// RestoreQuarantine clears the tombstone of a deleted row.
func (s *Service) RestoreQuarantine(ctx context.Context, id int64) (RegistroInvalido, error) {
	reg, err := s.store.GetRegistroInvalido(ctx, id, true)
	if err != nil {
		return RegistroInvalido{}, err
	}
	if !reg.Deleted() {
		return reg, nil
	}
	if err := s.store.SetRegistroInvalidoDeletedAt(ctx, id, nil); err != nil {
		return RegistroInvalido{}, fmt.Errorf("restore quarantine %d: %w", id, err)
	}
	return s.store.GetRegistroInvalido(ctx, id, false)
}
