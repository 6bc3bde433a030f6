package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/circleapp/theater/internal/repository/checkin"
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the check-in database at path. Use ":memory:" for a
// throwaway store.
func Open(path string, logger *slog.Logger) (*repo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writes.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS check_ins (
		id          TEXT PRIMARY KEY,
		member_id   TEXT NOT NULL,
		label       TEXT NOT NULL DEFAULT '',
		latitude    REAL NOT NULL,
		longitude   REAL NOT NULL,
		accuracy    REAL NOT NULL DEFAULT 0,
		source      TEXT NOT NULL DEFAULT '',
		captured_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create check_ins: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS check_ins_member ON check_ins (member_id, captured_at DESC)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create check_ins index: %w", err)
	}

	return &repo{db: db, logger: logger}, nil
}

func (r *repo) Close() error {
	return r.db.Close()
}

func (r *repo) Save(ctx context.Context, c checkin.CheckIn) error {
	r.logger.DebugContext(ctx, "called", "id", c.ID, "member_id", c.MemberID)
	_, err := r.db.ExecContext(ctx, `INSERT INTO check_ins (id, member_id, label, latitude, longitude, accuracy, source, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.MemberID, c.Label, c.Latitude, c.Longitude, c.Accuracy, c.Source, c.CapturedAt)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("insert check-in: %w", err)
	}

	return nil
}

func (r *repo) Get(ctx context.Context, id string) (checkin.CheckIn, error) {
	var c checkin.CheckIn
	err := r.db.QueryRowContext(ctx, `SELECT id, member_id, label, latitude, longitude, accuracy, source, captured_at
		FROM check_ins WHERE id = ?`, id).
		Scan(&c.ID, &c.MemberID, &c.Label, &c.Latitude, &c.Longitude, &c.Accuracy, &c.Source, &c.CapturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return checkin.CheckIn{}, checkin.ErrNotFound
	}
	if err != nil {
		return checkin.CheckIn{}, fmt.Errorf("get check-in: %w", err)
	}

	return c, nil
}

// ListByMember returns a member's check-ins, newest first.
func (r *repo) ListByMember(ctx context.Context, memberID string, limit int) ([]checkin.CheckIn, error) {
	r.logger.DebugContext(ctx, "called", "member_id", memberID, "limit", limit)
	rows, err := r.db.QueryContext(ctx, `SELECT id, member_id, label, latitude, longitude, accuracy, source, captured_at
		FROM check_ins WHERE member_id = ? ORDER BY captured_at DESC, id LIMIT ?`, memberID, limit)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	result := make([]checkin.CheckIn, 0)
	for rows.Next() {
		var c checkin.CheckIn
		if err := rows.Scan(&c.ID, &c.MemberID, &c.Label, &c.Latitude, &c.Longitude, &c.Accuracy, &c.Source, &c.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("check-in rows: %w", err)
	}

	return result, nil
}
