package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "validation error",
			err:      &ValidationError{Entity: EntityPresenca, Fields: []string{"AlunoId"}},
			wantCode: "VAL001",
		},
		{
			name:     "wrapped parent not found",
			err:      fmt.Errorf("resolve: %w", &ParentNotFoundError{Parent: EntityAluno, ID: 999}),
			wantCode: "REF001",
		},
		{
			name:     "parent not found as plain text",
			err:      errors.New("parent not found: Aluno 999 does not exist"),
			wantCode: "REF001",
		},
		{
			name:     "record not found",
			err:      ErrNotFound,
			wantCode: "NF001",
		},
		{
			name:     "empty batch",
			err:      ErrEmptyBatch,
			wantCode: "SYNC001",
		},
		{
			name:     "too many syncs",
			err:      ErrTooManySyncs,
			wantCode: "SYNC003",
		},
		{
			name:     "postgres duplicate key text",
			err:      errors.New(`ERROR: duplicate key value violates unique constraint "presencas_aluno_id_date_key" (SQLSTATE 23505)`),
			wantCode: "DB001",
		},
		{
			name:     "constraint error carrying foreign key text",
			err:      &ConstraintError{Kind: ConstraintForeignKey, Err: errors.New("violates foreign key constraint")},
			wantCode: "DB002",
		},
		{
			name:     "invalid date",
			err:      errors.New(`invalid date "31/02": expected YYYY-MM-DD`),
			wantCode: "VAL002",
		},
		{
			name:     "timeout",
			err:      errors.New("context deadline exceeded"),
			wantCode: "DB004",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("DUPLICATE KEY value violates"),
			wantCode: "DB001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() returned an empty message")
			}
		})
	}
}
