package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/puzzlereplay/internal/logger"
	"github.com/vytor/puzzlereplay/internal/models"
	"github.com/vytor/puzzlereplay/internal/repository"
)

const actionColumns = `id, replay_id, sequence_number, action_type, timestamp,
	action_data, state_before, state_after, metadata, created_at`

type actionRepository struct {
	db *sql.DB
}

// NewActionRepository creates a new ActionRepository implementation
func NewActionRepository(db *sql.DB) repository.ActionRepository {
	return &actionRepository{db: db}
}

func (r *actionRepository) Append(ctx context.Context, action models.Action) (*models.Action, error) {
	log := logger.FromContext(ctx).WithPrefix("action_repo")
	log.Debug("appending action: replay_id=%s, type=%s", action.ReplayID, action.ActionType)

	actionData, err := stateText(action.ActionData)
	if err != nil {
		return nil, err
	}
	stateBefore, err := nullableStateText(action.StateBefore)
	if err != nil {
		return nil, err
	}
	stateAfter, err := nullableStateText(action.StateAfter)
	if err != nil {
		return nil, err
	}
	metadata, err := nullableMetadataText(action.Metadata)
	if err != nil {
		return nil, err
	}

	// Sequence assignment and insert run in one transaction so concurrent
	// recorders on the same replay cannot claim the same number.
	err = tx(ctx, r.db, func(t *sql.Tx) error {
		var next int
		if err := t.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(sequence_number) + 1, 0) FROM replay_actions WHERE replay_id = ?`,
			action.ReplayID,
		).Scan(&next); err != nil {
			return err
		}
		action.SequenceNumber = next

		_, err := t.ExecContext(ctx, `
INSERT INTO replay_actions (`+actionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			action.ID, action.ReplayID, action.SequenceNumber, action.ActionType, action.Timestamp,
			actionData, stateBefore, stateAfter, metadata, action.CreatedAt,
		)
		return err
	})
	if err != nil {
		log.Error("failed to append action: %v", err)
		return nil, err
	}

	log.Debug("action appended: seq=%d", action.SequenceNumber)
	return &action, nil
}

func (r *actionRepository) ListByReplay(ctx context.Context, replayID string) ([]models.Action, error) {
	log := logger.FromContext(ctx).WithPrefix("action_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT `+actionColumns+`
FROM replay_actions
WHERE replay_id = ?
ORDER BY sequence_number ASC
`, replayID)
	if err != nil {
		log.Error("failed to list actions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var actions []models.Action
	for rows.Next() {
		var a models.Action
		var actionData, stateBefore, stateAfter, metadata sql.NullString
		if err := rows.Scan(
			&a.ID, &a.ReplayID, &a.SequenceNumber, &a.ActionType, &a.Timestamp,
			&actionData, &stateBefore, &stateAfter, &metadata, &a.CreatedAt,
		); err != nil {
			log.Error("failed to scan action row: %v", err)
			return nil, err
		}
		if a.ActionData, err = parseState(actionData); err != nil {
			return nil, err
		}
		if a.StateBefore, err = parseState(stateBefore); err != nil {
			return nil, err
		}
		if a.StateAfter, err = parseState(stateAfter); err != nil {
			return nil, err
		}
		if a.Metadata, err = parseMetadata(metadata); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	log.Debug("found %d actions for replay %s", len(actions), replayID)
	return actions, rows.Err()
}

func (r *actionRepository) ApplyCompression(ctx context.Context, replayID string, rewrites []models.StateRewrite) error {
	log := logger.FromContext(ctx).WithPrefix("action_repo")
	log.Debug("applying compression: replay_id=%s, rewrites=%d", replayID, len(rewrites))

	// Encode outside the transaction so a marshal failure cannot leave a
	// partially rewritten log.
	encoded := make([]any, len(rewrites))
	for i, rw := range rewrites {
		v, err := nullableStateText(rw.StateAfter)
		if err != nil {
			return err
		}
		encoded[i] = v
	}

	err := tx(ctx, r.db, func(t *sql.Tx) error {
		for i, rw := range rewrites {
			if _, err := t.ExecContext(ctx,
				`UPDATE replay_actions SET state_after = ? WHERE id = ?`,
				encoded[i], rw.ActionID,
			); err != nil {
				return err
			}
		}
		_, err := t.ExecContext(ctx,
			`UPDATE puzzle_replays SET is_compressed = 1 WHERE id = ?`,
			replayID,
		)
		return err
	})
	if err != nil {
		log.Error("failed to apply compression: %v", err)
	}
	return err
}
