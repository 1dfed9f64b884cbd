// Package archive mirrors settled ledger rows into PostgreSQL so
// settled history survives ledger file resets and can be queried with
// SQL. The CSV ledgers stay the source of truth; the archive is an
// append-behind copy.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/apovetkin/fonhockey/internal/pkg/config"
	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

// Archive writes settled rows to a settled_events table.
type Archive struct {
	db *sql.DB
}

// New opens the archive. DSN is required; configure an empty DSN to
// run without archiving.
func New(cfg *config.PostgresConfig) (*Archive, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	a := &Archive{db: db}
	if err := a.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL archive initialized successfully")
	return a, nil
}

func (a *Archive) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS settled_events (
		id SERIAL PRIMARY KEY,
		league VARCHAR(100) NOT NULL,
		event_name VARCHAR(500) NOT NULL,
		event_time VARCHAR(100) NOT NULL,
		parse_timestamp VARCHAR(100) NOT NULL,
		odds_1 VARCHAR(100) NOT NULL DEFAULT '',
		odds_x VARCHAR(100) NOT NULL DEFAULT '',
		odds_2 VARCHAR(100) NOT NULL DEFAULT '',
		odds_1x VARCHAR(100) NOT NULL DEFAULT '',
		odds_12 VARCHAR(100) NOT NULL DEFAULT '',
		odds_x2 VARCHAR(100) NOT NULL DEFAULT '',
		fora_1 VARCHAR(100) NOT NULL DEFAULT '',
		fora_2 VARCHAR(100) NOT NULL DEFAULT '',
		total_value VARCHAR(100) NOT NULL DEFAULT '',
		total_over VARCHAR(100) NOT NULL DEFAULT '',
		total_under VARCHAR(100) NOT NULL DEFAULT '',
		match_result VARCHAR(200) NOT NULL DEFAULT '',
		archived_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(league, event_name, event_time, parse_timestamp)
	);

	CREATE INDEX IF NOT EXISTS idx_settled_events_league_time ON settled_events(league, event_time);
	`
	_, err := a.db.ExecContext(ctx, query)
	return err
}

// StoreSettled upserts every settled row. Unsettled rows are skipped:
// they may still change in the ledger. Returns how many rows were
// written.
func (a *Archive) StoreSettled(ctx context.Context, league string, rows []models.OddsRecord) (int, error) {
	query := `
	INSERT INTO settled_events (
		league, event_name, event_time, parse_timestamp,
		odds_1, odds_x, odds_2, odds_1x, odds_12, odds_x2,
		fora_1, fora_2, total_value, total_over, total_under,
		match_result
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (league, event_name, event_time, parse_timestamp) DO UPDATE SET
		odds_1 = EXCLUDED.odds_1,
		odds_x = EXCLUDED.odds_x,
		odds_2 = EXCLUDED.odds_2,
		odds_1x = EXCLUDED.odds_1x,
		odds_12 = EXCLUDED.odds_12,
		odds_x2 = EXCLUDED.odds_x2,
		fora_1 = EXCLUDED.fora_1,
		fora_2 = EXCLUDED.fora_2,
		total_value = EXCLUDED.total_value,
		total_over = EXCLUDED.total_over,
		total_under = EXCLUDED.total_under,
		match_result = EXCLUDED.match_result
	`

	written := 0
	for i := range rows {
		r := &rows[i]
		if !r.Settled() {
			continue
		}
		_, err := a.db.ExecContext(ctx, query,
			league, r.EventName, r.EventTime, r.ParseTimestamp,
			r.Odds1, r.OddsX, r.Odds2, r.Odds1X, r.Odds12, r.OddsX2,
			r.Fora1, r.Fora2, r.TotalValue, r.TotalOver, r.TotalUnder,
			r.MatchResult,
		)
		if err != nil {
			return written, fmt.Errorf("failed to archive %s: %w", r.EventName, err)
		}
		written++
	}
	return written, nil
}

// Close releases the connection pool.
func (a *Archive) Close() error {
	return a.db.Close()
}
