package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"presence/internal/apperr"
	"presence/internal/store"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether the student already holds a record for the
// session. Advisory only; the unique index decides under races.
func (r *Repository) Exists(ctx context.Context, sessionID, studentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records WHERE session_id = $1 AND student_id = $2
		)
	`, sessionID, studentID).Scan(&exists)
	return exists, err
}

// Insert writes a new record. A (session, student) conflict surfaces as
// apperr.ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = StatusPresent
	}
	if rec.VerifyStatus == "" {
		rec.VerifyStatus = VerifyPending
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, session_id, student_id, snapshot_url, lat, lng, status, verify_status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, rec.ID, rec.SessionID, rec.StudentID, rec.SnapshotURL, rec.Lat, rec.Lng, rec.Status, rec.VerifyStatus)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Record{}, fmt.Errorf("%w: attendance for session %s", apperr.ErrDuplicate, rec.SessionID)
		}
		return Record{}, err
	}
	return rec, nil
}

// Get returns a single record by id.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, student_id, snapshot_url, lat, lng, status, verify_status, match_score, created_at
		FROM attendance_records WHERE id = $1
	`, id)
	var rec Record
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.SnapshotURL, &rec.Lat, &rec.Lng,
		&rec.Status, &rec.VerifyStatus, &rec.MatchScore, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: attendance record %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// UpdateVerification records the worker's face-check result.
func (r *Repository) UpdateVerification(ctx context.Context, id, verifyStatus string, score *float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET verify_status = $2, match_score = COALESCE($3, match_score)
		WHERE id = $1
	`, id, verifyStatus, score)
	return err
}

// Roster returns all records for a session joined with the student
// identity, for the faculty detail view.
func (r *Repository) Roster(ctx context.Context, sessionID string) ([]RosterEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.session_id, a.student_id, a.snapshot_url, a.lat, a.lng,
		       a.status, a.verify_status, a.match_score, a.created_at,
		       u.name, u.email, u.profile_image_url
		FROM attendance_records a
		JOIN users u ON u.id = a.student_id
		WHERE a.session_id = $1
		ORDER BY a.created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []RosterEntry
	for rows.Next() {
		var e RosterEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.StudentID, &e.SnapshotURL, &e.Lat, &e.Lng,
			&e.Status, &e.VerifyStatus, &e.MatchScore, &e.CreatedAt,
			&e.StudentName, &e.StudentEmail, &e.ProfileImageURL); err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}
	return roster, rows.Err()
}

// History returns the student's attendance newest-first, shaped for the
// student dashboard.
func (r *Repository) History(ctx context.Context, studentID string) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.created_at, s.subject, f.name
		FROM attendance_records a
		JOIN sessions s ON s.id = a.session_id
		JOIN users f ON f.id = s.faculty_id
		WHERE a.student_id = $1
		ORDER BY a.created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []HistoryEntry
	for rows.Next() {
		var createdAt time.Time
		var subject, facultyName string
		if err := rows.Scan(&createdAt, &subject, &facultyName); err != nil {
			return nil, err
		}
		if subject == "" {
			subject = "Unknown"
		}
		history = append(history, HistoryEntry{
			Date:        createdAt.Format("2006-01-02"),
			Subject:     subject,
			Status:      StatusPresent,
			FacultyName: facultyName,
		})
	}
	return history, rows.Err()
}

// Reports aggregates present-counts per session with optional filters.
// The date filter spans the server-local calendar day inclusively.
func (r *Repository) Reports(ctx context.Context, f ReportFilter) ([]Report, error) {
	query := `
		SELECT s.session_key, s.created_at, s.subject, s.class_name, COUNT(a.id)
		FROM sessions s
		LEFT JOIN attendance_records a ON a.session_id = s.id AND a.status = 'Present'`
	var clauses []string
	var args []any

	if f.FacultyID != "" {
		args = append(args, f.FacultyID)
		clauses = append(clauses, fmt.Sprintf("s.faculty_id = $%d", len(args)))
	}
	if !f.Date.IsZero() {
		dayStart := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.Local)
		args = append(args, dayStart)
		clauses = append(clauses, fmt.Sprintf("s.created_at >= $%d", len(args)))
		args = append(args, dayStart.Add(24*time.Hour))
		clauses = append(clauses, fmt.Sprintf("s.created_at < $%d", len(args)))
	}
	if f.Subject != "" {
		args = append(args, f.Subject)
		clauses = append(clauses, fmt.Sprintf("s.subject = $%d", len(args)))
	}
	if f.ClassName != "" {
		args = append(args, f.ClassName)
		clauses = append(clauses, fmt.Sprintf("s.class_name = $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " GROUP BY s.id ORDER BY s.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var rep Report
		var createdAt time.Time
		if err := rows.Scan(&rep.SessionKey, &createdAt, &rep.Subject, &rep.ClassName, &rep.Present); err != nil {
			return nil, err
		}
		rep.Date = createdAt.Format("2006-01-02")
		if rep.Subject == "" {
			rep.Subject = "Unknown"
		}
		if rep.ClassName == "" {
			rep.ClassName = "Unknown"
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

var _ Store = (*Repository)(nil)
