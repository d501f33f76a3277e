package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/frequencia/internal/core"
)

// handleListQuarantine lists quarantine rows, newest first.
//
// Query parameters:
//   - resolvido: true|false
//   - tabelaOrigem: Escola, Turma, Aluno or Presenca
//   - incluirExcluidos: include tombstoned rows
func (s *Server) handleListQuarantine(w http.ResponseWriter, r *http.Request) {
	resolvido, err := queryBool(r, "resolvido")
	if err != nil {
		respondError(w, r, err)
		return
	}
	includeDeleted, err := queryBool(r, "incluirExcluidos")
	if err != nil {
		respondError(w, r, err)
		return
	}

	filter := core.QuarantineFilter{
		Resolvido:      resolvido,
		TabelaOrigem:   strings.TrimSpace(r.URL.Query().Get("tabelaOrigem")),
		IncludeDeleted: includeDeleted != nil && *includeDeleted,
	}

	regs, err := s.service.ListQuarantine(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, orEmpty(regs))
}

func (s *Server) handleCreateQuarantine(w http.ResponseWriter, r *http.Request) {
	var in core.QuarantineInput
	if err := s.decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	reg, err := s.service.CreateQuarantine(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, reg)
}

func (s *Server) handleGetQuarantine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	reg, err := s.service.GetQuarantine(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, reg)
}

// handleUpdateQuarantine lets a reviewer mark a row resolved and add notes.
func (s *Server) handleUpdateQuarantine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var upd core.QuarantineUpdate
	if err := s.decodeJSON(w, r, &upd); err != nil {
		respondError(w, r, err)
		return
	}

	reg, err := s.service.UpdateQuarantine(r.Context(), id, upd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, reg)
}

func (s *Server) handleDeleteQuarantine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.service.DeleteQuarantine(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRestoreQuarantine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	reg, err := s.service.RestoreQuarantine(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, reg)
}
