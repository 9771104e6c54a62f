package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"presence/internal/apperr"
	"presence/internal/geo"
	"presence/internal/metrics"
	"presence/internal/session"
)

// Outcome is the terminal state of an admission check.
type Outcome string

const (
	// Accepted: all checks passed and exactly one record was persisted.
	Accepted Outcome = "accepted"
	// NoSession: no session holds the submitted key.
	NoSession Outcome = "no_session"
	// Inactive: the session was deactivated or its expiry has passed.
	Inactive Outcome = "inactive"
	// Duplicate: this student already holds a record for the session,
	// whether caught by the advisory check or the insert constraint.
	Duplicate Outcome = "duplicate"
	// OutOfRange: the claimed location falls outside the geofence.
	OutOfRange Outcome = "out_of_range"
)

// Result carries the outcome of one admission check. Overage is set for
// OutOfRange; Record for Accepted.
type Result struct {
	Outcome Outcome
	Overage int
	Record  *Record
}

// SessionLookup resolves a submitted key to its session.
type SessionLookup interface {
	GetByKey(ctx context.Context, key string) (session.Session, error)
}

// Store persists attendance records. Insert must return
// apperr.ErrDuplicate on a (session, student) conflict; that unique
// constraint is the real duplicate guard, the Exists pre-check only
// saves a doomed insert.
type Store interface {
	Exists(ctx context.Context, sessionID, studentID string) (bool, error)
	Insert(ctx context.Context, rec Record) (Record, error)
}

// SnapshotFunc stores the check-in snapshot and returns its URL. Mark
// invokes it only after every read-only check has passed, so rejected
// submissions never pay for an upload.
type SnapshotFunc func(ctx context.Context) (string, error)

// Service runs the admission check.
type Service struct {
	sessions SessionLookup
	records  Store
	now      func() time.Time
}

// NewService creates a service over the session lookup and record store.
func NewService(sessions SessionLookup, records Store) *Service {
	return &Service{sessions: sessions, records: records, now: time.Now}
}

// Mark runs the admission checks in order, short-circuiting on the
// first failure; only an acceptance writes state. A rejection is a
// Result, not an error: errors mean the check itself could not run.
// A nil snapshot leaves the record without an image.
func (s *Service) Mark(ctx context.Context, studentID, key string, loc geo.Point, snapshot SnapshotFunc) (Result, error) {
	if studentID == "" || key == "" {
		return Result{}, fmt.Errorf("%w: student id and session key required", apperr.ErrValidation)
	}

	sess, err := s.sessions.GetByKey(ctx, key)
	if errors.Is(err, apperr.ErrNotFound) {
		return s.reject(NoSession, 0), nil
	}
	if err != nil {
		return Result{}, err
	}

	if !sess.Open(s.now()) {
		return s.reject(Inactive, 0), nil
	}

	if exists, err := s.records.Exists(ctx, sess.ID, studentID); err != nil {
		return Result{}, err
	} else if exists {
		return s.reject(Duplicate, 0), nil
	}

	if inside, overage := sess.Fence().Check(loc); !inside {
		return s.reject(OutOfRange, overage), nil
	}

	var snapshotURL string
	if snapshot != nil {
		snapshotURL, err = snapshot(ctx)
		if err != nil {
			return Result{}, err
		}
	}

	rec, err := s.records.Insert(ctx, Record{
		SessionID:    sess.ID,
		StudentID:    studentID,
		SnapshotURL:  snapshotURL,
		Lat:          loc.Lat,
		Lng:          loc.Lng,
		Status:       StatusPresent,
		VerifyStatus: VerifyPending,
	})
	if errors.Is(err, apperr.ErrDuplicate) {
		// Lost the race between the advisory check and the insert.
		// Indistinguishable from a pre-check hit on purpose.
		return s.reject(Duplicate, 0), nil
	}
	if err != nil {
		return Result{}, err
	}

	metrics.AdmissionOutcomes.WithLabelValues(string(Accepted)).Inc()
	return Result{Outcome: Accepted, Record: &rec}, nil
}

func (s *Service) reject(outcome Outcome, overage int) Result {
	metrics.AdmissionOutcomes.WithLabelValues(string(outcome)).Inc()
	return Result{Outcome: outcome, Overage: overage}
}
