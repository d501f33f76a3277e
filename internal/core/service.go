package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/frequencia/internal/logging"
)

// ServiceOptions tunes batch processing.
type ServiceOptions struct {
	// MaxBatchSize rejects batches with more records. Zero disables the check.
	MaxBatchSize int

	// MaxConcurrent and MaxWait configure the SyncLimiter.
	MaxConcurrent int
	MaxWait       time.Duration

	// Timeout bounds one batch. Zero means only the caller's context applies.
	Timeout time.Duration
}

// Service ties the resolver, the batch fold and the quarantine recorder to
// one Store.
type Service struct {
	store    Store
	resolver *Resolver
	limiter  *SyncLimiter
	opts     ServiceOptions
	now      func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store, opts ServiceOptions) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store),
		limiter:  NewSyncLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:     opts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks the store connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Save decodes and resolves one record submitted on its own. Validation
// failures and rejections are returned as errors and nothing is quarantined.
func (s *Service) Save(ctx context.Context, entity EntityType, raw Payload) (Outcome, error) {
	def, ok := Get(entity)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	rec, err := def.Decode(raw)
	if err != nil {
		return Outcome{}, err
	}

	out := s.resolver.Resolve(ctx, rec)
	if !out.OK() {
		return out, out.Err
	}

	logging.FromContext(ctx).Debug("record saved",
		"entity", entity,
		"id", out.Record.Key(),
		"action", out.Action,
	)
	return out, nil
}

// SyncSummary is the response of one batch sync.
type SyncSummary struct {
	Lote             uuid.UUID    `json:"lote"`
	Tabela           EntityType   `json:"tabela"`
	Message          string       `json:"message"`
	TotalProcessadas int          `json:"totalProcessadas"`
	Sucessos         int          `json:"sucessos"`
	Falhas           int          `json:"falhas"`
	Criados          int          `json:"criados"`
	Atualizados      int          `json:"atualizados"`
	Recuperados      int          `json:"recuperados"`
	Sincronizados    []Record     `json:"sincronizados"`
	RegistrosFalhos  []FailedItem `json:"registrosFalhos"`
}

// FailedItem is one record of a batch that could not be stored.
type FailedItem struct {
	Indice             int     `json:"indice"`
	Registro           Payload `json:"registro"`
	Motivo             string  `json:"motivo"`
	RegistroInvalidoID *int64  `json:"registroInvalidoId,omitempty"`
}

// SyncBatch reconciles a list of raw records of one entity.
//
// An empty list or one above MaxBatchSize is rejected before anything is
// processed. Otherwise every record is decoded and resolved on its own, and
// each failure is quarantined with the batch id as lote. The batch holds one
// SyncLimiter slot for its whole run.
func (s *Service) SyncBatch(ctx context.Context, entity EntityType, records []Payload) (*SyncSummary, error) {
	def, ok := Get(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	if len(records) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.opts.MaxBatchSize > 0 && len(records) > s.opts.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d records, limit is %d", ErrBatchTooLarge, len(records), s.opts.MaxBatchSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	lote := uuid.New()
	log := logging.WithFields(ctx, "lote", lote.String(), "entity", entity).
		With(OriginFromContext(ctx).logAttrs()...)
	ctx = logging.NewContext(ctx, log)
	start := time.Now()

	result := ReconcileBatch(ctx, records, func(ctx context.Context, raw Payload) Outcome {
		rec, err := def.Decode(raw)
		if err != nil {
			return Rejected(err)
		}
		return s.resolver.Resolve(ctx, rec)
	})

	summary := &SyncSummary{
		Lote:             lote,
		Tabela:           entity,
		TotalProcessadas: result.Total(),
		Sucessos:         len(result.Succeeded),
		Falhas:           len(result.Failed),
		Criados:          result.Count(ActionCreated),
		Atualizados:      result.Count(ActionUpdated),
		Recuperados:      result.Recovered(),
		Sincronizados:    make([]Record, 0, len(result.Succeeded)),
		RegistrosFalhos:  make([]FailedItem, 0, len(result.Failed)),
	}
	summary.Message = fmt.Sprintf("%d %s(s) sincronizado(s) com sucesso",
		summary.Sucessos, strings.ToLower(string(entity)))

	for _, e := range result.Succeeded {
		summary.Sincronizados = append(summary.Sincronizados, e.Outcome.Record)
	}

	// Failures are recorded even when the batch ran out of time.
	qctx := context.WithoutCancel(ctx)
	for _, e := range result.Failed {
		item := FailedItem{Indice: e.Index, Registro: e.Raw, Motivo: e.Outcome.Reason}

		reg, err := s.Quarantine(qctx, QuarantineParams{
			Source:  string(entity),
			Payload: e.Raw,
			Reason:  e.Outcome.Reason,
			BatchID: &lote,
		})
		if err != nil {
			log.Error("quarantine failed",
				"index", e.Index,
				"reason", e.Outcome.Reason,
				"error", err,
			)
		} else {
			item.RegistroInvalidoID = &reg.ID
		}
		summary.RegistrosFalhos = append(summary.RegistrosFalhos, item)
	}

	log.Info("batch synced",
		"total", summary.TotalProcessadas,
		"succeeded", summary.Sucessos,
		"failed", summary.Falhas,
		"created", summary.Criados,
		"updated", summary.Atualizados,
		"recovered", summary.Recuperados,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return summary, nil
}

// SyncStatus reports the limiter state for health checks.
func (s *Service) SyncStatus() SyncLimiterStatus {
	return s.limiter.Status()
}

// WaitForSyncs blocks until in-flight batches finish or ctx is done.
func (s *Service) WaitForSyncs(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

// ListEscolas returns schools, optionally filtered by synced state.
func (s *Service) ListEscolas(ctx context.Context, filter EscolaFilter) ([]Escola, error) {
	rows, err := s.store.ListEscolas(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list escolas: %w", err)
	}
	return rows, nil
}

// ListTurmas returns classes, optionally those of one school.
func (s *Service) ListTurmas(ctx context.Context, filter TurmaFilter) ([]Turma, error) {
	rows, err := s.store.ListTurmas(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list turmas: %w", err)
	}
	return rows, nil
}

// ListAlunos returns students ordered by name, optionally those of one class.
func (s *Service) ListAlunos(ctx context.Context, filter AlunoFilter) ([]Aluno, error) {
	rows, err := s.store.ListAlunos(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list alunos: %w", err)
	}
	return rows, nil
}

// ListPresencas returns attendance marks, newest date first.
func (s *Service) ListPresencas(ctx context.Context, filter PresencaFilter) ([]Presenca, error) {
	rows, err := s.store.ListPresencas(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list presencas: %w", err)
	}
	return rows, nil
}

// AttendanceHistory is the attendance of one student with its statistics.
type AttendanceHistory struct {
	AlunoID      int64      `json:"alunoId"`
	Presencas    []Presenca `json:"presencas"`
	Estatisticas Statistics `json:"estatisticas"`
}

// AttendanceHistory lists a student's marks, optionally for one date, and
// summarizes them.
func (s *Service) AttendanceHistory(ctx context.Context, alunoID int64, date *Date) (AttendanceHistory, error) {
	rows, err := s.ListPresencas(ctx, PresencaFilter{AlunoID: alunoID, Date: date})
	if err != nil {
		return AttendanceHistory{}, err
	}
	return AttendanceHistory{
		AlunoID:      alunoID,
		Presencas:    rows,
		Estatisticas: ComputeStatistics(rows),
	}, nil
}
