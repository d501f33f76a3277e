// Package core reconciles records synchronized by offline clients.
//
// Clients create Escola, Turma, Aluno and Presenca rows locally and send them
// in batches. The package merges them into a Store without duplicate rows and
// keeps every record it could not store in a quarantine table for review. It
// knows nothing about HTTP or SQL and can be driven by handlers, commands or
// tests with any [Store].
//
// # Entity Registry
//
// Each entity is registered at init time with [Register]. The definition
// carries its decoder, which validates required fields, and its natural key:
//
//	core.Register(EntityDefinition{
//	    Type:       EntityPresenca,
//	    Table:      "presencas",
//	    NaturalKey: []string{"AlunoId", "date"},
//	    Decode:     decodePresenca,
//	})
//
// # Resolution
//
// [Resolver.Resolve] stores one record. A known id or a natural-key match
// updates the existing row; anything else is created. When a create loses a
// race on the natural key, the record is applied once more as an update, so
// concurrent syncs of the same Presenca end with a single row.
//
// # Batches
//
// [Service.SyncBatch] runs [ReconcileBatch] over a batch strictly in order.
// Records commit one by one; a failure or panic in one never stops the rest.
// Each failed record is quarantined verbatim with its reason, and the caller
// gets a [SyncSummary] with the counts and the failed list.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages using [MapError]. Each
// category has a code for support reference:
//
//   - VAL001-VAL003: Validation errors (missing fields, dates, JSON)
//   - REF001, NF001: Missing parent or record
//   - DB001-DB004: Database errors (constraints, connections, timeouts)
//   - SYNC001-SYNC004: Batch shape and capacity errors
package core
