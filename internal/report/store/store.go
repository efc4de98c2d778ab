// Package store keeps a history of reports in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/commonwords/internal/report"
	"github.com/Adithya-Monish-Kumar-K/commonwords/pkg/postgres"
)

// Schema creates the tables the Store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS report_runs (
    id          UUID PRIMARY KEY,
    files       JSONB NOT NULL,
    top_n       INT NOT NULL,
    word_count  INT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS report_words (
    run_id UUID NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
    rank   INT NOT NULL,
    word   TEXT NOT NULL,
    count  INT NOT NULL,
    PRIMARY KEY (run_id, rank)
);`

// Store persists reports. Each report is written in one transaction: a
// report_runs row plus one report_words row per ranked word.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "report-store"),
	}
}

func (s *Store) Name() string { return "postgres" }

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("applying report schema: %w", err)
	}
	return nil
}

func (s *Store) Deliver(ctx context.Context, r *report.Report) error {
	files, err := json.Marshal(r.Sources)
	if err != nil {
		return fmt.Errorf("marshaling sources: %w", err)
	}
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_runs (id, files, top_n, word_count, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			r.RunID, files, r.Params.TopN, len(r.Words), r.GeneratedAt,
		); err != nil {
			return fmt.Errorf("inserting report run: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO report_words (run_id, rank, word, count) VALUES ($1, $2, $3, $4)
			ON CONFLICT (run_id, rank) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing word insert: %w", err)
		}
		defer stmt.Close()
		for _, w := range r.Words {
			if _, err := stmt.ExecContext(ctx, r.RunID, w.Rank, w.Word, w.Count); err != nil {
				return fmt.Errorf("inserting word %q: %w", w.Word, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving report %s: %w", r.RunID, err)
	}
	s.logger.Info("report saved", "run_id", r.RunID, "words", len(r.Words))
	return nil
}
