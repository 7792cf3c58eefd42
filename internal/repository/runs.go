package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"tradesim/types"
)

// RunSummary is the stored headline view of a past run, retrievable
// without loading the full trade list.
type RunSummary struct {
	ID        uuid.UUID         `json:"id"`
	Error     string            `json:"error,omitempty"`
	Summary   types.Summary     `json:"summary"`
	Settings  types.RunSettings `json:"settings"`
	Timestamp time.Time         `json:"timestamp"`
}

const insertRunQuery = `
INSERT INTO sim_runs (id, error, summary, stats, metrics, settings, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const insertTradeQuery = `
INSERT INTO sim_trades (
	id, run_id, instrument, direction, entry_time, exit_time,
	entry_price, exit_price, quantity, exit_reason, gross_pnl, net_pnl, commission
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// SaveRunResult persists one immutable result: the run row plus its
// trades, in a single transaction. The structured blobs go in as JSONB
// so summaries stay queryable without a wide schema.
func (db *Database) SaveRunResult(ctx context.Context, res *types.RunResult) error {
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	stats, err := json.Marshal(res.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	metrics, err := json.Marshal(res.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	settings, err := json.Marshal(res.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertRunQuery,
		res.ID, res.Error, summary, stats, metrics, settings, res.Timestamp); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, t := range res.Trades {
		if _, err := tx.Exec(ctx, insertTradeQuery,
			t.ID, res.ID, t.Instrument, string(t.Direction), t.EntryTime, t.ExitTime,
			t.EntryPrice, t.ExitPrice, t.Quantity, string(t.ExitReason),
			t.GrossPnL, t.NetPnL, t.Commission); err != nil {
			return fmt.Errorf("insert trade %s: %w", t.ID, err)
		}
	}
	return tx.Commit(ctx)
}

const selectRunQuery = `
SELECT id, error, summary, settings, created_at FROM sim_runs WHERE id = $1`

// GetRunSummary loads one stored run in summary form.
func (db *Database) GetRunSummary(ctx context.Context, id uuid.UUID) (*RunSummary, error) {
	row := db.pool.QueryRow(ctx, selectRunQuery, id)
	summary, err := scanRunSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return summary, nil
}

const listRunsQuery = `
SELECT id, error, summary, settings, created_at
FROM sim_runs ORDER BY created_at DESC LIMIT $1`

// ListRunSummaries returns the most recent runs, newest first.
func (db *Database) ListRunSummaries(ctx context.Context, limit int) ([]*RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx, listRunsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*RunSummary
	for rows.Next() {
		summary, err := scanRunSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

func scanRunSummary(row pgx.Row) (*RunSummary, error) {
	var (
		rs           RunSummary
		summaryJSON  []byte
		settingsJSON []byte
	)
	if err := row.Scan(&rs.ID, &rs.Error, &summaryJSON, &settingsJSON, &rs.Timestamp); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summaryJSON, &rs.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(settingsJSON, &rs.Settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &rs, nil
}
