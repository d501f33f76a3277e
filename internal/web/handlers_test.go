package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/frequencia/internal/config"
	"github.com/JonMunkholm/frequencia/internal/core"
	"github.com/JonMunkholm/frequencia/internal/memstore"
)

// syncResponse mirrors core.SyncSummary with the synced records left raw,
// since core.Record is an interface.
type syncResponse struct {
	Lote            uuid.UUID         `json:"lote"`
	Sucessos        int               `json:"sucessos"`
	Falhas          int               `json:"falhas"`
	Criados         int               `json:"criados"`
	Atualizados     int               `json:"atualizados"`
	Sincronizados   []json.RawMessage `json:"sincronizados"`
	RegistrosFalhos []core.FailedItem `json:"registrosFalhos"`
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Sync: config.SyncConfig{
			MaxBatchSize:  100,
			MaxConcurrent: 4,
			MaxWait:       time.Second,
			MaxBodyBytes:  64 * 1024,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := testConfig()
	svc := core.NewService(memstore.New(), core.ServiceOptions{
		MaxBatchSize:  cfg.Sync.MaxBatchSize,
		MaxConcurrent: cfg.Sync.MaxConcurrent,
		MaxWait:       cfg.Sync.MaxWait,
	})
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

// seed creates one escola, turma and aluno through the API and returns the
// aluno and turma ids.
func seed(t *testing.T, s *Server) (alunoID, turmaID int64) {
	t.Helper()

	rec := do(t, s, http.MethodPost, "/api/escolas", `{"name":"Escola Central","address":"Rua A, 1"}`)
	expectStatus(t, rec, http.StatusCreated)
	escola := decode[core.Escola](t, rec)

	rec = do(t, s, http.MethodPost, "/api/turmas", fmt.Sprintf(`{"name":"5A","EscolaId":%d}`, escola.ID))
	expectStatus(t, rec, http.StatusCreated)
	turma := decode[core.Turma](t, rec)

	rec = do(t, s, http.MethodPost, "/api/alunos", fmt.Sprintf(`{"name":"Ana","TurmaId":%d}`, turma.ID))
	expectStatus(t, rec, http.StatusCreated)
	aluno := decode[core.Aluno](t, rec)

	return aluno.ID, turma.ID
}

func TestSave_CreateThenUpdate(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/escolas", `{"name":"Escola Central","address":"Rua A, 1","synced":false}`)
	expectStatus(t, rec, http.StatusCreated)
	created := decode[core.Escola](t, rec)
	if created.ID == 0 || !created.Synced {
		t.Fatalf("unexpected created escola %+v", created)
	}

	rec = do(t, s, http.MethodPost, "/api/escolas",
		fmt.Sprintf(`{"id":%d,"name":"Escola Central II","address":"Rua B, 2"}`, created.ID))
	expectStatus(t, rec, http.StatusOK)
	updated := decode[core.Escola](t, rec)
	if updated.ID != created.ID || updated.Name != "Escola Central II" {
		t.Errorf("unexpected updated escola %+v", updated)
	}

	rec = do(t, s, http.MethodGet, "/api/escolas", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]core.Escola](t, rec); len(list) != 1 {
		t.Errorf("got %d escolas, want 1", len(list))
	}
}

func TestSave_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"missing name", "/api/escolas", `{"address":"Rua A"}`, http.StatusBadRequest, "VAL001"},
		{"malformed json", "/api/escolas", `{"name":`, http.StatusBadRequest, "VAL001"},
		{"missing parent", "/api/turmas", `{"name":"5A","EscolaId":42}`, http.StatusNotFound, "REF001"},
		{"bad date", "/api/presencas", `{"AlunoId":1,"date":"01/03/2024","present":true}`, http.StatusBadRequest, "VAL001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			expectStatus(t, rec, tt.wantStatus)

			resp := decode[ErrorResponse](t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (error %q)", resp.Code, tt.wantCode, resp.Error)
			}
			if resp.Message == "" || resp.Error == "" {
				t.Errorf("incomplete error response %+v", resp)
			}
		})
	}
}

func TestSync_PartialFailureIsQuarantined(t *testing.T) {
	s := newTestServer(t)
	alunoID, _ := seed(t, s)

	body := fmt.Sprintf(`{"records":[
		{"AlunoId":%d,"date":"2024-03-01","present":true},
		{"AlunoId":999,"date":"2024-03-01","present":false}
	]}`, alunoID)

	rec := do(t, s, http.MethodPost, "/api/presencas/sync", body)
	expectStatus(t, rec, http.StatusOK)

	summary := decode[syncResponse](t, rec)
	if summary.Sucessos != 1 || summary.Falhas != 1 || summary.Criados != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.RegistrosFalhos[0].Indice != 1 {
		t.Errorf("failed index = %d, want 1", summary.RegistrosFalhos[0].Indice)
	}

	rec = do(t, s, http.MethodGet, "/api/registros-invalidos?tabelaOrigem=Presenca&resolvido=false", "")
	expectStatus(t, rec, http.StatusOK)
	regs := decode[[]core.RegistroInvalido](t, rec)
	if len(regs) != 1 {
		t.Fatalf("got %d quarantine rows, want 1", len(regs))
	}
	if !strings.Contains(regs[0].Motivo, "Aluno 999") {
		t.Errorf("motivo = %q", regs[0].Motivo)
	}
	if regs[0].Lote == nil || *regs[0].Lote != summary.Lote {
		t.Errorf("lote = %v, want %s", regs[0].Lote, summary.Lote)
	}
}

func TestSync_ResendIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	alunoID, _ := seed(t, s)

	body := fmt.Sprintf(`{"presencas":[
		{"AlunoId":%d,"date":"2024-03-01","present":true},
		{"AlunoId":%d,"date":"2024-03-02","present":false}
	]}`, alunoID, alunoID)

	for i, path := range []string{"/api/presencas/sync", "/api/presencas/batch"} {
		rec := do(t, s, http.MethodPost, path, body)
		expectStatus(t, rec, http.StatusOK)
		summary := decode[syncResponse](t, rec)
		if summary.Sucessos != 2 {
			t.Fatalf("run %d: sucessos = %d, want 2", i, summary.Sucessos)
		}
		if i == 1 && summary.Atualizados != 2 {
			t.Errorf("resend: atualizados = %d, want 2", summary.Atualizados)
		}
	}

	rec := do(t, s, http.MethodGet, fmt.Sprintf("/api/presencas?alunoId=%d", alunoID), "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]core.Presenca](t, rec); len(list) != 2 {
		t.Errorf("got %d presencas, want 2", len(list))
	}
}

func TestSync_OfflineHierarchyResend(t *testing.T) {
	s := newTestServer(t)

	steps := []struct {
		path string
		body string
	}{
		{"/api/escolas/sync", `{"escolas":[{"id":100,"name":"Escola Rural","address":"Estrada 3"}]}`},
		{"/api/escolas/sync", `{"escolas":[{"id":100,"name":"Escola Rural","address":"Estrada 3"}]}`},
		{"/api/turmas/sync", `{"turmas":[{"id":200,"name":"Multisseriada","EscolaId":100}]}`},
		{"/api/alunos/sync", `{"alunos":[{"id":300,"name":"Bia","TurmaId":200}]}`},
		{"/api/presencas/sync", `{"presencas":[{"AlunoId":300,"date":"2024-03-01","present":true}]}`},
	}
	for i, step := range steps {
		rec := do(t, s, http.MethodPost, step.path, step.body)
		expectStatus(t, rec, http.StatusOK)
		if summary := decode[syncResponse](t, rec); summary.Sucessos != 1 || summary.Falhas != 0 {
			t.Fatalf("step %d %s: sucessos/falhas = %d/%d: %+v",
				i, step.path, summary.Sucessos, summary.Falhas, summary.RegistrosFalhos)
		}
	}

	rec := do(t, s, http.MethodGet, "/api/escolas", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]core.Escola](t, rec); len(list) != 1 || list[0].ID != 100 {
		t.Errorf("escolas after resend = %+v, want one row with id 100", list)
	}
}

func TestSync_BatchShapeErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing list", `{}`, "SYNC001"},
		{"null list", `{"records":null}`, "SYNC001"},
		{"empty list", `{"records":[]}`, "SYNC001"},
		{"not a list", `{"records":{"name":"x"}}`, "VAL003"},
		{"not json", `records`, "VAL003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/escolas/sync", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)
			if resp := decode[ErrorResponse](t, rec); resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestSync_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	body := `{"records":[{"name":"` + strings.Repeat("x", int(s.cfg.Sync.MaxBodyBytes)) + `"}]}`

	rec := do(t, s, http.MethodPost, "/api/escolas/sync", body)
	expectStatus(t, rec, http.StatusRequestEntityTooLarge)
}

func TestNestedListings(t *testing.T) {
	s := newTestServer(t)
	alunoID, turmaID := seed(t, s)

	rec := do(t, s, http.MethodGet, fmt.Sprintf("/api/turmas/%d/alunos", turmaID), "")
	expectStatus(t, rec, http.StatusOK)
	if alunos := decode[[]core.Aluno](t, rec); len(alunos) != 1 || alunos[0].ID != alunoID {
		t.Errorf("unexpected alunos %+v", alunos)
	}

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/alunos/turmas/%d", turmaID), "")
	expectStatus(t, rec, http.StatusOK)
	if alunos := decode[[]core.Aluno](t, rec); len(alunos) != 1 {
		t.Errorf("got %d alunos, want 1", len(alunos))
	}

	rec = do(t, s, http.MethodGet, "/api/turmas/escolas/9999", "")
	expectStatus(t, rec, http.StatusOK)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty listing = %s, want []", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/escolas/abc/turmas", "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestTurmaPresencas_RequiresDate(t *testing.T) {
	s := newTestServer(t)
	alunoID, turmaID := seed(t, s)

	rec := do(t, s, http.MethodPost, "/api/presencas",
		fmt.Sprintf(`{"AlunoId":%d,"date":"2024-03-01","present":true}`, alunoID))
	expectStatus(t, rec, http.StatusCreated)

	path := fmt.Sprintf("/api/presencas/turmas/%d/presencas", turmaID)

	rec = do(t, s, http.MethodGet, path, "")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodGet, path+"?date=2024-13-01", "")
	expectStatus(t, rec, http.StatusBadRequest)
	if resp := decode[ErrorResponse](t, rec); resp.Code != "VAL002" {
		t.Errorf("code = %q, want VAL002", resp.Code)
	}

	rec = do(t, s, http.MethodGet, path+"?date=2024-03-01", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]core.Presenca](t, rec); len(list) != 1 {
		t.Errorf("got %d presencas, want 1", len(list))
	}

	rec = do(t, s, http.MethodGet, path+"?data=2024-03-02", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]core.Presenca](t, rec); len(list) != 0 {
		t.Errorf("got %d presencas, want 0", len(list))
	}
}

func TestAttendanceHistory(t *testing.T) {
	s := newTestServer(t)
	alunoID, _ := seed(t, s)

	body := fmt.Sprintf(`{"records":[
		{"AlunoId":%[1]d,"date":"2024-03-01","present":true},
		{"AlunoId":%[1]d,"date":"2024-03-02","present":true},
		{"AlunoId":%[1]d,"date":"2024-03-03","present":false},
		{"AlunoId":%[1]d,"date":"2024-03-04","present":true}
	]}`, alunoID)
	expectStatus(t, do(t, s, http.MethodPost, "/api/presencas/sync", body), http.StatusOK)

	rec := do(t, s, http.MethodGet, fmt.Sprintf("/api/presencas/alunos/%d", alunoID), "")
	expectStatus(t, rec, http.StatusOK)

	history := decode[core.AttendanceHistory](t, rec)
	want := core.Statistics{TotalRegistros: 4, TotalPresencas: 3, TotalFaltas: 1, Frequencia: "75%"}
	if history.Estatisticas != want {
		t.Errorf("estatisticas = %+v, want %+v", history.Estatisticas, want)
	}
	if len(history.Presencas) != 4 || history.Presencas[0].Date.String() != "2024-03-04" {
		t.Errorf("presencas not ordered newest first: %+v", history.Presencas)
	}

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/presencas/alunos/%d?date=2024-03-03", alunoID), "")
	expectStatus(t, rec, http.StatusOK)
	history = decode[core.AttendanceHistory](t, rec)
	if history.Estatisticas.Frequencia != "0%" || len(history.Presencas) != 1 {
		t.Errorf("filtered history = %+v", history)
	}
}

func TestQuarantineLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/registros-invalidos",
		`{"tabelaOrigem":"Aluno","dadosOriginais":{"name":"Bia","TurmaId":77},"motivo":"turma desconhecida"}`)
	expectStatus(t, rec, http.StatusCreated)
	reg := decode[core.RegistroInvalido](t, rec)
	if reg.ID == 0 || reg.Resolvido {
		t.Fatalf("unexpected created row %+v", reg)
	}
	path := fmt.Sprintf("/api/registros-invalidos/%d", reg.ID)

	rec = do(t, s, http.MethodPut, path, `{"resolvido":true,"observacoes":"turma criada"}`)
	expectStatus(t, rec, http.StatusOK)
	updated := decode[core.RegistroInvalido](t, rec)
	if !updated.Resolvido || updated.DataCorrecao == nil || updated.Observacoes == nil {
		t.Errorf("unexpected updated row %+v", updated)
	}

	expectStatus(t, do(t, s, http.MethodDelete, path, ""), http.StatusNoContent)
	expectStatus(t, do(t, s, http.MethodGet, path, ""), http.StatusNotFound)
	expectStatus(t, do(t, s, http.MethodDelete, path, ""), http.StatusNotFound)

	rec = do(t, s, http.MethodGet, "/api/registros-invalidos?incluirExcluidos=true", "")
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]core.RegistroInvalido](t, rec); len(list) != 1 || list[0].DeletedAt == nil {
		t.Errorf("tombstoned row missing from list: %+v", list)
	}

	rec = do(t, s, http.MethodPost, path+"/restaurar", "")
	expectStatus(t, rec, http.StatusOK)
	expectStatus(t, do(t, s, http.MethodGet, path, ""), http.StatusOK)

	expectStatus(t, do(t, s, http.MethodGet, "/api/registros-invalidos/424242", ""), http.StatusNotFound)
}

func TestCreateQuarantine_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing motivo", `{"tabelaOrigem":"Aluno","dadosOriginais":{"a":1}}`},
		{"missing payload", `{"tabelaOrigem":"Aluno","motivo":"x"}`},
		{"null payload", `{"tabelaOrigem":"Aluno","dadosOriginais":null,"motivo":"x"}`},
		{"bad filter body", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/registros-invalidos", tt.body)
			expectStatus(t, rec, http.StatusBadRequest)
		})
	}

	rec := do(t, s, http.MethodGet, "/api/registros-invalidos?resolvido=maybe", "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestReviewPage_EscapesPayload(t *testing.T) {
	s := newTestServer(t)

	expectStatus(t, do(t, s, http.MethodPost, "/api/registros-invalidos",
		`{"tabelaOrigem":"Escola","dadosOriginais":{"name":"<script>alert(1)</script>"},"motivo":"<b>ruim</b>"}`),
		http.StatusCreated)

	req := httptest.NewRequest(http.MethodGet, "/revisao", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	if strings.Contains(body, "<script>") || strings.Contains(body, "<b>ruim") {
		t.Errorf("page contains unescaped input: %s", body)
	}
	if !strings.Contains(body, "&lt;b&gt;ruim&lt;/b&gt;") {
		t.Errorf("motivo missing from page")
	}
	if got := rec.Header().Get("Content-Security-Policy"); got == "" {
		t.Error("CSP header not set")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "")
	expectStatus(t, rec, http.StatusOK)

	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	if _, ok := body["sync"]; !ok {
		t.Error("sync status missing")
	}
}
