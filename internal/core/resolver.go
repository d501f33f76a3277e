package core

// resolver.go decides, for one incoming record, whether it updates an
// existing row or creates a new one.
//
// Resolution order:
//
//  1. The referenced parent must exist, else the record is rejected.
//  2. A known surrogate id updates that row.
//  3. A natural-key match (Presenca: AlunoId + date) updates that row.
//  4. Otherwise a new row is created. A positive client id is kept, so
//     children recorded offline against it still find their parent; without
//     one the store assigns the id.
//  5. If the create loses a race on the id or the natural key, the record is
//     looked up once more and applied as an update.
//
// Every stored row leaves with synced=true. No locks are taken here; the
// store's unique constraint is what makes step 5 safe.

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/frequencia/internal/logging"
)

// Action is the result kind of one resolution.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionRejected Action = "rejected"
)

// Outcome reports what happened to one record.
type Outcome struct {
	Action Action

	// Record is the stored row. Nil when rejected.
	Record Record

	// Recovered is set when a create hit the natural-key constraint and was
	// applied as an update instead.
	Recovered bool

	// Reason is the human-readable rejection cause, kept as quarantine motivo.
	Reason string

	// Err is the underlying rejection error.
	Err error
}

// OK reports whether the record was stored.
func (o Outcome) OK() bool {
	return o.Action == ActionCreated || o.Action == ActionUpdated
}

// Rejected builds a rejected outcome from err.
func Rejected(err error) Outcome {
	if err == nil {
		err = errors.New("record rejected")
	}
	return Outcome{Action: ActionRejected, Reason: err.Error(), Err: err}
}

// Resolver applies the resolution order against an EntityStore.
type Resolver struct {
	store EntityStore
}

// NewResolver creates a resolver backed by store.
func NewResolver(store EntityStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve stores rec, or explains why it could not.
func (r *Resolver) Resolve(ctx context.Context, rec Record) Outcome {
	if rec == nil {
		return Rejected(&ValidationError{Detail: "empty record"})
	}

	if parent, parentID, ok := rec.Parent(); ok {
		exists, err := r.store.Exists(ctx, parent, parentID)
		if err != nil {
			return Rejected(fmt.Errorf("check %s %d: %w", parent, parentID, err))
		}
		if !exists {
			return Rejected(&ParentNotFoundError{Parent: parent, ID: parentID})
		}
	}

	rec.setSynced(true)

	if id := rec.Key(); id > 0 {
		_, err := r.store.FindByID(ctx, rec.Entity(), id)
		if err == nil {
			return r.update(ctx, id, rec)
		}
		if !errors.Is(err, ErrNotFound) {
			return r.reject(rec, err)
		}
	}

	existing, err := r.store.FindByNaturalKey(ctx, rec)
	switch {
	case err == nil:
		return r.update(ctx, existing.Key(), rec)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoNaturalKey):
	default:
		return r.reject(rec, err)
	}

	created, err := r.store.Create(ctx, rec)
	if err == nil {
		return Outcome{Action: ActionCreated, Record: created}
	}
	if IsUniqueViolation(err) {
		return r.retryAsUpdate(ctx, rec, err)
	}
	return r.reject(rec, err)
}

func (r *Resolver) update(ctx context.Context, id int64, rec Record) Outcome {
	updated, err := r.store.Update(ctx, id, rec)
	if err != nil {
		return r.reject(rec, err)
	}
	return Outcome{Action: ActionUpdated, Record: updated}
}

// retryAsUpdate is the single fallback after a create collided with a row
// stored concurrently under the same id or natural key.
func (r *Resolver) retryAsUpdate(ctx context.Context, rec Record, createErr error) Outcome {
	existing, err := r.findStored(ctx, rec)
	if err != nil {
		return r.reject(rec, createErr)
	}

	out := r.update(ctx, existing.Key(), rec)
	if out.OK() {
		out.Recovered = true
		logging.FromContext(ctx).Info("conflict recovered as update",
			"entity", rec.Entity(),
			"id", existing.Key(),
		)
	}
	return out
}

func (r *Resolver) findStored(ctx context.Context, rec Record) (Record, error) {
	if id := rec.Key(); id > 0 {
		existing, err := r.store.FindByID(ctx, rec.Entity(), id)
		if !errors.Is(err, ErrNotFound) {
			return existing, err
		}
	}
	return r.store.FindByNaturalKey(ctx, rec)
}

// reject turns a store error into a rejected outcome. Foreign key violations
// mean the parent vanished between the existence check and the write.
func (r *Resolver) reject(rec Record, err error) Outcome {
	if IsForeignKeyViolation(err) {
		if parent, parentID, ok := rec.Parent(); ok {
			return Rejected(&ParentNotFoundError{Parent: parent, ID: parentID})
		}
	}
	return Rejected(err)
}
