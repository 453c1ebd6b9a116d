package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Helper functions shared across repository implementations

func tx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	log := logger.FromContext(ctx).WithPrefix("repo")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	return nil
}

// stateText encodes a state snapshot for a NOT NULL JSON text column.
func stateText(s models.State) (string, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// nullableStateText encodes a state snapshot for a nullable JSON text column.
func nullableStateText(s models.State) (any, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func parseState(ns sql.NullString) (models.State, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var s models.State
	if err := json.Unmarshal([]byte(ns.String), &s); err != nil {
		return nil, err
	}
	return s, nil
}

func nullableMetadataText(m *models.ActionMetadata) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func parseMetadata(ns sql.NullString) (*models.ActionMetadata, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var m models.ActionMetadata
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
