package database

import (
	"context"
	_ "embed"
	"fmt"
)

// Schema is the DDL for every table. All statements are idempotent.
//
//go:embed schema.sql
var Schema string

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
