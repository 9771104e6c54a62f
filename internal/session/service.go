package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"presence/internal/apperr"
)

// keyAttempts bounds create-time key regeneration. The advisory
// existence check makes exhaustion at realistic scale effectively
// impossible; the bound exists so a near-full keyspace fails loudly
// instead of spinning.
const keyAttempts = 5

// Store is the persistence surface the service needs. Insert must
// return apperr.ErrDuplicate when the session key collides; that
// constraint, not the advisory KeyExists check, is the uniqueness
// guarantee.
type Store interface {
	KeyExists(ctx context.Context, key string) (bool, error)
	Insert(ctx context.Context, s Session) (Session, error)
	GetByID(ctx context.Context, id string) (Session, error)
	GetByKey(ctx context.Context, key string) (Session, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]HistoryItem, error)
	Deactivate(ctx context.Context, id string) error
}

// Service coordinates session creation and faculty-facing queries.
type Service struct {
	store      Store
	defaultTTL time.Duration
	intn       func(int) int
	now        func() time.Time
}

// NewService creates a service backed by a store. defaultTTL applies
// when faculty do not specify a session duration.
func NewService(store Store, defaultTTL time.Duration) *Service {
	if defaultTTL <= 0 {
		defaultTTL = 3 * time.Hour
	}
	return &Service{store: store, defaultTTL: defaultTTL, intn: defaultIntn, now: time.Now}
}

// CreateParams carries faculty input for a new session.
type CreateParams struct {
	FacultyID     string
	Lat           float64
	Lng           float64
	Radius        float64
	Subject       string
	ClassName     string
	ActiveMinutes int
}

// Create issues a unique key and persists the session. A key collision
// at insert time regenerates and retries up to keyAttempts.
func (s *Service) Create(ctx context.Context, p CreateParams) (Session, error) {
	if p.FacultyID == "" {
		return Session{}, fmt.Errorf("%w: faculty id required", apperr.ErrValidation)
	}
	if p.Radius <= 0 {
		return Session{}, fmt.Errorf("%w: radius must be positive", apperr.ErrValidation)
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return Session{}, fmt.Errorf("%w: coordinates out of range", apperr.ErrValidation)
	}

	ttl := s.defaultTTL
	if p.ActiveMinutes > 0 {
		ttl = time.Duration(p.ActiveMinutes) * time.Minute
	}
	now := s.now()

	sess := Session{
		FacultyID: p.FacultyID,
		Lat:       p.Lat,
		Lng:       p.Lng,
		Radius:    p.Radius,
		Subject:   p.Subject,
		ClassName: p.ClassName,
		IsActive:  true,
		ExpiresAt: now.Add(ttl),
	}

	for attempt := 0; attempt < keyAttempts; attempt++ {
		key := randKey(s.intn)

		// Advisory pre-check to cut down insert retries.
		if exists, err := s.store.KeyExists(ctx, key); err != nil {
			return Session{}, err
		} else if exists {
			continue
		}

		sess.Key = key
		created, err := s.store.Insert(ctx, sess)
		if errors.Is(err, apperr.ErrDuplicate) {
			continue // lost the insert race, regenerate
		}
		if err != nil {
			return Session{}, err
		}
		return created, nil
	}
	return Session{}, fmt.Errorf("session key space exhausted after %d attempts", keyAttempts)
}

// GetByKey returns the session a student's submitted key refers to.
func (s *Service) GetByKey(ctx context.Context, key string) (Session, error) {
	return s.store.GetByKey(ctx, key)
}

// History lists the faculty's sessions newest-first with attendance counts.
func (s *Service) History(ctx context.Context, facultyID string) ([]HistoryItem, error) {
	return s.store.ListByFaculty(ctx, facultyID)
}

// Detail returns a session after checking the requester owns it or is
// an admin.
func (s *Service) Detail(ctx context.Context, id, requesterID, requesterRole string) (Session, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess.FacultyID != requesterID && requesterRole != "admin" {
		return Session{}, fmt.Errorf("%w: not the session owner", apperr.ErrForbidden)
	}
	return sess, nil
}

// Deactivate closes a session early. Same ownership rule as Detail.
func (s *Service) Deactivate(ctx context.Context, id, requesterID, requesterRole string) error {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sess.FacultyID != requesterID && requesterRole != "admin" {
		return fmt.Errorf("%w: not the session owner", apperr.ErrForbidden)
	}
	return s.store.Deactivate(ctx, id)
}
