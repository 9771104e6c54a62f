package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"presence/internal/apperr"
	"presence/internal/store"
)

// Repository persists sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionCols = `id, faculty_id, session_key, lat, lng, radius_m, subject, class_name, is_active, expires_at, created_at`

// KeyExists reports whether any session record holds the key. The check
// spans expired sessions too: keys are never reclaimed.
func (r *Repository) KeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE session_key = $1)`, key).Scan(&exists)
	return exists, err
}

// Insert writes a new session. A session_key collision surfaces as
// apperr.ErrDuplicate so the service can regenerate.
func (r *Repository) Insert(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, faculty_id, session_key, lat, lng, radius_m, subject, class_name, is_active, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, s.ID, s.FacultyID, s.Key, s.Lat, s.Lng, s.Radius, s.Subject, s.ClassName, s.IsActive, s.ExpiresAt)
	if err := row.Scan(&s.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Session{}, fmt.Errorf("%w: session key %s", apperr.ErrDuplicate, s.Key)
		}
		return Session{}, err
	}
	return s, nil
}

// GetByID returns a single session.
func (r *Repository) GetByID(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// GetByKey returns the session holding the submitted key.
func (r *Repository) GetByKey(ctx context.Context, key string) (Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE session_key = $1`, key)
	return scanSession(row)
}

// ListByFaculty returns the faculty's sessions newest-first, each with
// its attendance count.
func (r *Repository) ListByFaculty(ctx context.Context, facultyID string) ([]HistoryItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.faculty_id, s.session_key, s.lat, s.lng, s.radius_m,
		       s.subject, s.class_name, s.is_active, s.expires_at, s.created_at,
		       COUNT(a.id)
		FROM sessions s
		LEFT JOIN attendance_records a ON a.session_id = s.id
		WHERE s.faculty_id = $1
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []HistoryItem
	for rows.Next() {
		var it HistoryItem
		if err := rows.Scan(&it.ID, &it.FacultyID, &it.Key, &it.Lat, &it.Lng, &it.Radius,
			&it.Subject, &it.ClassName, &it.IsActive, &it.ExpiresAt, &it.CreatedAt,
			&it.AttendanceCount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Deactivate clears the active flag.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: session %s", apperr.ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.FacultyID, &s.Key, &s.Lat, &s.Lng, &s.Radius,
		&s.Subject, &s.ClassName, &s.IsActive, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: session", apperr.ErrNotFound)
	}
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

var _ Store = (*Repository)(nil)
