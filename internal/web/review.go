package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/frequencia/internal/core"
	"github.com/JonMunkholm/frequencia/internal/logging"
	"github.com/JonMunkholm/frequencia/internal/web/templates"
)

// handleReviewPage lists unresolved quarantine rows for a human reviewer.
// Filtering by ?tabelaOrigem= narrows the list to one entity.
func (s *Server) handleReviewPage(w http.ResponseWriter, r *http.Request) {
	tabela := strings.TrimSpace(r.URL.Query().Get("tabelaOrigem"))
	unresolved := false
	regs, err := s.service.ListQuarantine(r.Context(), core.QuarantineFilter{
		Resolvido:    &unresolved,
		TabelaOrigem: tabela,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	params := templates.ReviewPageParams{Registros: regs, TabelaOrigem: tabela}
	if err := templates.ReviewPage(params).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render review page", "error", err)
	}
}
