// Package store persists journeys and their stages to SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wayfinder/internal/journey"
)

// ErrNotFound is returned when a journey id has no row.
var ErrNotFound = errors.New("store: journey not found")

// Store is the SQLite-backed journey store. It implements journey.Store and
// adds the listing and status operations the CLI needs for resume and status
// reporting.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the journey database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS journeys (
		id TEXT PRIMARY KEY,
		input TEXT NOT NULL,
		status TEXT NOT NULL,
		current_stage_index INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stages (
		id TEXT PRIMARY KEY,
		journey_id TEXT NOT NULL REFERENCES journeys(id),
		number INTEGER NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		prompt TEXT,
		result TEXT,
		thinking TEXT,
		created_at DATETIME NOT NULL,
		completed_at DATETIME,
		UNIQUE(journey_id, number)
	);

	CREATE INDEX IF NOT EXISTS idx_stages_journey ON stages(journey_id, number);
	CREATE INDEX IF NOT EXISTS idx_journeys_status ON journeys(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateJourney inserts a new journey row.
func (s *Store) CreateJourney(ctx context.Context, rec journey.JourneyRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journeys (id, input, status, current_stage_index, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Input, string(rec.Status), rec.CurrentStageIndex, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert journey: %w", err)
	}
	return nil
}

// UpdateJourney upserts the journey row. The orchestrator calls this after
// every stage, so a first call for an unseen id creates the row.
func (s *Store) UpdateJourney(ctx context.Context, rec journey.JourneyRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journeys (id, input, status, current_stage_index, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			current_stage_index = excluded.current_stage_index,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Input, string(rec.Status), rec.CurrentStageIndex, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to update journey: %w", err)
	}
	return nil
}

// GetJourney loads one journey row.
func (s *Store) GetJourney(ctx context.Context, id string) (*journey.JourneyRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, input, status, current_stage_index, created_at, updated_at
		FROM journeys WHERE id = ?`, id)

	var rec journey.JourneyRecord
	var status string
	err := row.Scan(&rec.ID, &rec.Input, &status, &rec.CurrentStageIndex, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load journey: %w", err)
	}
	rec.Status = journey.JourneyStatus(status)
	return &rec, nil
}

// SetStatus updates only the lifecycle status. The CLI uses it to request a
// pause or stop that the orchestrator picks up between stages.
func (s *Store) SetStatus(ctx context.Context, id string, status journey.JourneyStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE journeys SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListJourneys returns journeys newest first, optionally filtered by status.
func (s *Store) ListJourneys(ctx context.Context, status journey.JourneyStatus) ([]journey.JourneyRecord, error) {
	query := `SELECT id, input, status, current_stage_index, created_at, updated_at FROM journeys`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journeys: %w", err)
	}
	defer rows.Close()

	var out []journey.JourneyRecord
	for rows.Next() {
		var rec journey.JourneyRecord
		var st string
		if err := rows.Scan(&rec.ID, &rec.Input, &st, &rec.CurrentStageIndex, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journey: %w", err)
		}
		rec.Status = journey.JourneyStatus(st)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CreateStage inserts one completed stage. A re-run of the same stage number
// replaces the earlier row.
func (s *Store) CreateStage(ctx context.Context, journeyID string, stage journey.Stage) error {
	var completedAt any
	if !stage.CompletedAt.IsZero() {
		completedAt = stage.CompletedAt.UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stages (id, journey_id, number, type, status, prompt, result, thinking, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(journey_id, number) DO UPDATE SET
			id = excluded.id,
			type = excluded.type,
			status = excluded.status,
			prompt = excluded.prompt,
			result = excluded.result,
			thinking = excluded.thinking,
			completed_at = excluded.completed_at`,
		stage.ID, journeyID, stage.Number, string(stage.Type), string(stage.Status),
		stage.Prompt, stage.Result, stage.Thinking, stage.CreatedAt.UTC(), completedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stage: %w", err)
	}
	return nil
}

// ListStages returns a journey's stages in execution order.
func (s *Store) ListStages(ctx context.Context, journeyID string) ([]journey.Stage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, type, status, prompt, result, thinking, created_at, completed_at
		FROM stages WHERE journey_id = ? ORDER BY number`, journeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	var out []journey.Stage
	for rows.Next() {
		var st journey.Stage
		var typ, status string
		var completedAt sql.NullTime
		if err := rows.Scan(&st.ID, &st.Number, &typ, &status, &st.Prompt, &st.Result, &st.Thinking, &st.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		st.Type = journey.StageType(typ)
		st.Status = journey.StageStatus(status)
		if completedAt.Valid {
			st.CompletedAt = completedAt.Time
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// ExportJourney serializes one journey and its stages to JSON.
func (s *Store) ExportJourney(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.GetJourney(ctx, id)
	if err != nil {
		return nil, err
	}
	stages, err := s.ListStages(ctx, id)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(struct {
		Journey *journey.JourneyRecord `json:"journey"`
		Stages  []journey.Stage        `json:"stages"`
	}{rec, stages}, "", "  ")
}
