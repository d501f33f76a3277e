package core

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/JonMunkholm/frequencia/internal/logging"
)

// ResolveFunc resolves one raw record of a batch.
type ResolveFunc func(ctx context.Context, raw Payload) Outcome

// BatchEntry is one record of a batch together with what happened to it.
type BatchEntry struct {
	Index   int
	Raw     Payload
	Outcome Outcome
}

// BatchResult splits a batch into stored and failed records, each in input order.
type BatchResult struct {
	Succeeded []BatchEntry
	Failed    []BatchEntry
}

// Total returns the number of records processed.
func (r BatchResult) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// Count returns how many stored records ended with action a.
func (r BatchResult) Count(a Action) int {
	n := 0
	for _, e := range r.Succeeded {
		if e.Outcome.Action == a {
			n++
		}
	}
	return n
}

// Recovered returns how many creates were turned into updates after a
// natural-key conflict.
func (r BatchResult) Recovered() int {
	n := 0
	for _, e := range r.Succeeded {
		if e.Outcome.Recovered {
			n++
		}
	}
	return n
}

// ReconcileBatch folds resolve over records strictly in order. Each call is
// isolated: an error or panic becomes a failed entry and the fold moves on.
// Nothing is wrapped in a transaction, so records resolved before an
// interruption stay stored.
//
// Once ctx is done, the remaining records are reported as failed with the
// context error as reason instead of being attempted.
func ReconcileBatch(ctx context.Context, records []Payload, resolve ResolveFunc) BatchResult {
	result := BatchResult{
		Succeeded: make([]BatchEntry, 0, len(records)),
	}

	for i, raw := range records {
		var out Outcome
		if err := ctx.Err(); err != nil {
			out = Rejected(fmt.Errorf("batch interrupted: %w", err))
		} else {
			out = resolveIsolated(ctx, i, raw, resolve)
		}

		entry := BatchEntry{Index: i, Raw: raw, Outcome: out}
		if out.OK() {
			result.Succeeded = append(result.Succeeded, entry)
		} else {
			result.Failed = append(result.Failed, entry)
		}
	}

	return result
}

func resolveIsolated(ctx context.Context, index int, raw Payload, resolve ResolveFunc) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).Error("panic while resolving record",
				"index", index,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			out = Rejected(fmt.Errorf("internal error: %v", r))
		}
	}()
	return resolve(ctx, raw)
}
