// Package store handles SQLite persistence of solver runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/verte-zerg/cipherbreak/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when no run matches an id.
var ErrNotFound = errors.New("run not found")

// ErrAmbiguous is returned when an id prefix matches more than one run.
var ErrAmbiguous = errors.New("run id prefix is ambiguous")

// Store wraps SQLite access for run history.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			cipher TEXT NOT NULL,
			ciphertext TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error TEXT NOT NULL,
			total INTEGER NOT NULL,
			tried INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_results (
			run_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			key_text TEXT NOT NULL,
			plaintext TEXT NOT NULL,
			score REAL NOT NULL,
			PRIMARY KEY (run_id, rank)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type runRow struct {
	ID         string `db:"id"`
	Cipher     string `db:"cipher"`
	Ciphertext string `db:"ciphertext"`
	StartedAt  string `db:"started_at"`
	EndedAt    string `db:"ended_at"`
	Outcome    string `db:"outcome"`
	Error      string `db:"error"`
	Total      int    `db:"total"`
	Tried      int64  `db:"tried"`
}

type resultRow struct {
	RunID     string  `db:"run_id"`
	Rank      int     `db:"rank"`
	KeyText   string  `db:"key_text"`
	Plaintext string  `db:"plaintext"`
	Score     float64 `db:"score"`
}

// InsertRun stores a finished run and its ranked candidates.
func (s *Store) InsertRun(ctx context.Context, rec model.RunRecord, results []model.Candidate) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	row := runRow{
		ID:         rec.ID,
		Cipher:     rec.Cipher,
		Ciphertext: rec.Ciphertext,
		StartedAt:  rec.StartedAt.UTC().Format(timeLayout),
		EndedAt:    rec.EndedAt.UTC().Format(timeLayout),
		Outcome:    string(rec.Outcome),
		Error:      rec.Error,
		Total:      rec.Total,
		Tried:      rec.Tried,
	}
	if _, err = tx.NamedExecContext(ctx,
		`INSERT INTO runs (id, cipher, ciphertext, started_at, ended_at, outcome, error, total, tried)
		 VALUES (:id, :cipher, :ciphertext, :started_at, :ended_at, :outcome, :error, :total, :tried)`, row); err != nil {
		return err
	}

	for i, c := range results {
		rr := resultRow{RunID: rec.ID, Rank: i + 1, KeyText: c.KeyText, Plaintext: c.Plaintext, Score: c.Score}
		if _, err = tx.NamedExecContext(ctx,
			`INSERT INTO run_results (run_id, rank, key_text, plaintext, score)
			 VALUES (:run_id, :rank, :key_text, :plaintext, :score)`, rr); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type summaryRow struct {
	ID        string          `db:"id"`
	Cipher    string          `db:"cipher"`
	EndedAt   string          `db:"ended_at"`
	Outcome   string          `db:"outcome"`
	Tried     int64           `db:"tried"`
	BestKey   sql.NullString  `db:"key_text"`
	BestScore sql.NullFloat64 `db:"score"`
	Preview   sql.NullString  `db:"plaintext"`
}

// ListRuns returns run summaries, most recent first, with each run's best candidate.
func (s *Store) ListRuns(ctx context.Context, filter model.HistoryFilter) ([]model.RunSummary, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Cipher != "" {
		clauses = append(clauses, "r.cipher = ?")
		args = append(args, filter.Cipher)
	}
	if filter.Since != nil {
		clauses = append(clauses, "r.ended_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT r.id, r.cipher, r.ended_at, r.outcome, r.tried, b.key_text, b.score, b.plaintext
		FROM runs r
		LEFT JOIN run_results b ON b.run_id = r.id AND b.rank = 1
		WHERE %s
		ORDER BY r.ended_at DESC`, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []summaryRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]model.RunSummary, 0, len(rows))
	for _, row := range rows {
		endedAt, err := time.Parse(timeLayout, row.EndedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, model.RunSummary{
			ID:        row.ID,
			Cipher:    row.Cipher,
			EndedAt:   endedAt,
			Outcome:   model.Outcome(row.Outcome),
			Tried:     row.Tried,
			BestKey:   row.BestKey.String,
			BestScore: row.BestScore.Float64,
			Preview:   row.Preview.String,
		})
	}
	return out, nil
}

// GetRun loads a run and its ranked candidates. id may be a unique prefix.
func (s *Store) GetRun(ctx context.Context, id string) (model.RunRecord, []model.Candidate, error) {
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, cipher, ciphertext, started_at, ended_at, outcome, error, total, tried
		 FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(id), id); err != nil {
		return model.RunRecord{}, nil, err
	}
	switch {
	case len(rows) == 0 || id == "":
		return model.RunRecord{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(rows) > 1:
		return model.RunRecord{}, nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
	row := rows[0]
	startedAt, err := time.Parse(timeLayout, row.StartedAt)
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	endedAt, err := time.Parse(timeLayout, row.EndedAt)
	if err != nil {
		return model.RunRecord{}, nil, err
	}
	rec := model.RunRecord{
		ID:         row.ID,
		Cipher:     row.Cipher,
		Ciphertext: row.Ciphertext,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
		Outcome:    model.Outcome(row.Outcome),
		Error:      row.Error,
		Total:      row.Total,
		Tried:      row.Tried,
	}

	var results []resultRow
	if err := s.db.SelectContext(ctx, &results,
		`SELECT run_id, rank, key_text, plaintext, score FROM run_results WHERE run_id = ? ORDER BY rank`, row.ID); err != nil {
		return model.RunRecord{}, nil, err
	}
	candidates := make([]model.Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, model.Candidate{Plaintext: r.Plaintext, KeyText: r.KeyText, Score: r.Score})
	}
	return rec, candidates, nil
}
