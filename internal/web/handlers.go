package web

import (
	"net/http"

	"github.com/JonMunkholm/frequencia/internal/core"
	"github.com/JonMunkholm/frequencia/internal/logging"
)

// ============================================================================
// Writes
// ============================================================================

// handleSave stores one record sent on its own. A new row answers 201, an
// existing one 200; both carry the stored record.
func (s *Server) handleSave(entity core.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := s.readBody(w, r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		out, err := s.service.Save(r.Context(), entity, core.Payload(body))
		if err != nil {
			respondError(w, r, err)
			return
		}

		status := http.StatusOK
		if out.Action == core.ActionCreated {
			status = http.StatusCreated
		}
		writeJSONStatus(w, status, out.Record)
	}
}

// handleSync reconciles a batch. Failed records do not fail the request:
// they are listed in the summary and kept in the quarantine table.
func (s *Server) handleSync(entity core.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def, ok := core.Get(entity)
		if !ok {
			respondError(w, r, core.ErrUnknownEntity)
			return
		}

		body, err := s.readBody(w, r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		records, err := batchRecords(body, def)
		if err != nil {
			respondError(w, r, err)
			return
		}

		logging.FromContext(r.Context()).Info("sync received",
			"entity", entity,
			"records", len(records),
		)

		summary, err := s.service.SyncBatch(withOrigin(r.Context(), r), entity, records)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, summary)
	}
}

// ============================================================================
// Reads
// ============================================================================

func (s *Server) handleListEscolas(w http.ResponseWriter, r *http.Request) {
	synced, err := queryBool(r, "synced")
	if err != nil {
		respondError(w, r, err)
		return
	}

	escolas, err := s.service.ListEscolas(r.Context(), core.EscolaFilter{Synced: synced})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, orEmpty(escolas))
}

func (s *Server) handleListTurmas(w http.ResponseWriter, r *http.Request) {
	escolaID, err := queryID(r, "escolaId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.writeTurmas(w, r, escolaID)
}

// handleListTurmasOfEscola serves the nested turma listings, which name the
// school id parameter differently.
func (s *Server) handleListTurmasOfEscola(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		escolaID, err := pathID(r, param)
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.writeTurmas(w, r, escolaID)
	}
}

func (s *Server) writeTurmas(w http.ResponseWriter, r *http.Request, escolaID int64) {
	turmas, err := s.service.ListTurmas(r.Context(), core.TurmaFilter{EscolaID: escolaID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, orEmpty(turmas))
}

func (s *Server) handleListAlunos(w http.ResponseWriter, r *http.Request) {
	turmaID, err := queryID(r, "turmaId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.writeAlunos(w, r, turmaID)
}

func (s *Server) handleListAlunosOfTurma(param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		turmaID, err := pathID(r, param)
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.writeAlunos(w, r, turmaID)
	}
}

func (s *Server) writeAlunos(w http.ResponseWriter, r *http.Request, turmaID int64) {
	alunos, err := s.service.ListAlunos(r.Context(), core.AlunoFilter{TurmaID: turmaID})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, orEmpty(alunos))
}

func (s *Server) handleListPresencas(w http.ResponseWriter, r *http.Request) {
	var (
		filter core.PresencaFilter
		err    error
	)
	if filter.AlunoID, err = queryID(r, "alunoId"); err != nil {
		respondError(w, r, err)
		return
	}
	if filter.TurmaID, err = queryID(r, "turmaId"); err != nil {
		respondError(w, r, err)
		return
	}
	if filter.Date, err = queryDate(r); err != nil {
		respondError(w, r, err)
		return
	}

	presencas, err := s.service.ListPresencas(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, orEmpty(presencas))
}

// handleTurmaPresencas lists one class's attendance on one day. The date is
// required.
func (s *Server) handleTurmaPresencas(w http.ResponseWriter, r *http.Request) {
	turmaID, err := pathID(r, "turmaId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	date, err := queryDate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if date == nil {
		respondError(w, r, badRequest(&core.ValidationError{
			Fields: []string{"date"},
			Detail: "date is required",
		}))
		return
	}

	presencas, err := s.service.ListPresencas(r.Context(), core.PresencaFilter{TurmaID: turmaID, Date: date})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, orEmpty(presencas))
}

// handleAttendanceHistory returns a student's marks with their statistics.
func (s *Server) handleAttendanceHistory(w http.ResponseWriter, r *http.Request) {
	alunoID, err := pathID(r, "alunoId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	date, err := queryDate(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	history, err := s.service.AttendanceHistory(r.Context(), alunoID, date)
	if err != nil {
		respondError(w, r, err)
		return
	}
	history.Presencas = orEmpty(history.Presencas)
	writeJSON(w, history)
}
