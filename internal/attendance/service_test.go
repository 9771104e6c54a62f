package attendance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presence/internal/apperr"
	"presence/internal/geo"
	"presence/internal/session"
)

type fakeSessions struct {
	byKey map[string]session.Session
}

func (f *fakeSessions) GetByKey(_ context.Context, key string) (session.Session, error) {
	s, ok := f.byKey[key]
	if !ok {
		return session.Session{}, fmt.Errorf("%w: session", apperr.ErrNotFound)
	}
	return s, nil
}

// fakeRecords enforces (session, student) uniqueness like the database
// unique index, so racing inserts behave as in production.
type fakeRecords struct {
	mu      sync.Mutex
	records map[string]Record
	n       int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[string]Record{}}
}

func (f *fakeRecords) key(sessionID, studentID string) string {
	return sessionID + "/" + studentID
}

func (f *fakeRecords) Exists(_ context.Context, sessionID, studentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[f.key(sessionID, studentID)]
	return ok, nil
}

func (f *fakeRecords) Insert(_ context.Context, rec Record) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(rec.SessionID, rec.StudentID)
	if _, ok := f.records[k]; ok {
		return Record{}, fmt.Errorf("%w: attendance", apperr.ErrDuplicate)
	}
	f.n++
	rec.ID = fmt.Sprintf("rec-%d", f.n)
	rec.CreatedAt = time.Now()
	f.records[k] = rec
	return rec, nil
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func classroomSession() session.Session {
	return session.Session{
		ID:        "sess-1",
		FacultyID: "fac-1",
		Key:       "482193",
		Lat:       12.9716,
		Lng:       77.5946,
		Radius:    100,
		IsActive:  true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func newTestService(sess ...session.Session) (*Service, *fakeRecords) {
	lookup := &fakeSessions{byKey: map[string]session.Session{}}
	for _, s := range sess {
		lookup.byKey[s.Key] = s
	}
	records := newFakeRecords()
	return NewService(lookup, records), records
}

func staticSnapshot(url string) SnapshotFunc {
	return func(context.Context) (string, error) { return url, nil }
}

func TestMarkAccepted(t *testing.T) {
	svc, records := newTestService(classroomSession())

	res, err := svc.Mark(context.Background(), "stu-1", "482193",
		geo.Point{Lat: 12.9716, Lng: 77.5946}, staticSnapshot("https://cdn.example/snap.jpg"))
	require.NoError(t, err)

	assert.Equal(t, Accepted, res.Outcome)
	require.NotNil(t, res.Record)
	assert.Equal(t, StatusPresent, res.Record.Status)
	assert.Equal(t, VerifyPending, res.Record.VerifyStatus)
	assert.Equal(t, 1, records.count())
}

func TestMarkDuplicateOnResubmit(t *testing.T) {
	svc, records := newTestService(classroomSession())
	loc := geo.Point{Lat: 12.9716, Lng: 77.5946}

	_, err := svc.Mark(context.Background(), "stu-1", "482193", loc, staticSnapshot("snap1.jpg"))
	require.NoError(t, err)

	res, err := svc.Mark(context.Background(), "stu-1", "482193", loc, staticSnapshot("snap2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, Duplicate, res.Outcome)
	assert.Nil(t, res.Record)
	assert.Equal(t, 1, records.count())
}

func TestMarkOutOfRange(t *testing.T) {
	svc, records := newTestService(classroomSession())

	// ~2km from the fence center.
	res, err := svc.Mark(context.Background(), "stu-2", "482193",
		geo.Point{Lat: 12.9800, Lng: 77.6100}, staticSnapshot("snap.jpg"))
	require.NoError(t, err)

	assert.Equal(t, OutOfRange, res.Outcome)
	assert.Greater(t, res.Overage, 1000)
	assert.Equal(t, 0, records.count())
}

func TestMarkExpiredSession(t *testing.T) {
	sess := classroomSession()
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	svc, records := newTestService(sess)

	// Location is correct; expiry alone rejects.
	res, err := svc.Mark(context.Background(), "stu-1", "482193",
		geo.Point{Lat: 12.9716, Lng: 77.5946}, staticSnapshot("snap.jpg"))
	require.NoError(t, err)
	assert.Equal(t, Inactive, res.Outcome)
	assert.Equal(t, 0, records.count())
}

func TestMarkDeactivatedSession(t *testing.T) {
	sess := classroomSession()
	sess.IsActive = false
	svc, records := newTestService(sess)

	res, err := svc.Mark(context.Background(), "stu-1", "482193",
		geo.Point{Lat: 12.9716, Lng: 77.5946}, staticSnapshot("snap.jpg"))
	require.NoError(t, err)
	assert.Equal(t, Inactive, res.Outcome)
	assert.Equal(t, 0, records.count())
}

func TestMarkUnknownKey(t *testing.T) {
	svc, records := newTestService(classroomSession())

	res, err := svc.Mark(context.Background(), "stu-1", "000000",
		geo.Point{Lat: 12.9716, Lng: 77.5946}, staticSnapshot("snap.jpg"))
	require.NoError(t, err)
	assert.Equal(t, NoSession, res.Outcome)
	assert.Equal(t, 0, records.count())
}

func TestMarkValidation(t *testing.T) {
	svc, _ := newTestService(classroomSession())

	_, err := svc.Mark(context.Background(), "", "482193", geo.Point{}, staticSnapshot("snap.jpg"))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Mark(context.Background(), "stu-1", "", geo.Point{}, staticSnapshot("snap.jpg"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// Two requests for the same (session, student) racing past the advisory
// duplicate check must still persist exactly one record: the store's
// uniqueness constraint is authoritative and the loser sees Duplicate.
func TestMarkConcurrentSameStudent(t *testing.T) {
	svc, records := newTestService(classroomSession())
	loc := geo.Point{Lat: 12.9716, Lng: 77.5946}

	const racers = 8
	outcomes := make(chan Outcome, racers)
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Mark(context.Background(), "stu-1", "482193", loc, staticSnapshot("snap.jpg"))
			if err != nil {
				errs <- err
				return
			}
			outcomes <- res.Outcome
		}()
	}
	wg.Wait()
	close(outcomes)
	close(errs)

	for err := range errs {
		t.Fatalf("mark failed: %v", err)
	}
	accepted := 0
	for o := range outcomes {
		switch o {
		case Accepted:
			accepted++
		case Duplicate:
		default:
			t.Fatalf("unexpected outcome %q", o)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, records.count())
}

func TestMarkBoundaryJustInside(t *testing.T) {
	sess := session.Session{
		ID: "sess-0", Key: "101010",
		Lat: 0, Lng: 0, Radius: 1000,
		IsActive: true, ExpiresAt: time.Now().Add(time.Hour),
	}
	svc, _ := newTestService(sess)

	// ~555m east of the center on the equator.
	res, err := svc.Mark(context.Background(), "stu-1", "101010",
		geo.Point{Lat: 0, Lng: 0.005}, staticSnapshot("snap.jpg"))
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Outcome)

	// ~2223m east: out by ~1223m.
	res, err = svc.Mark(context.Background(), "stu-2", "101010",
		geo.Point{Lat: 0, Lng: 0.02}, staticSnapshot("snap.jpg"))
	require.NoError(t, err)
	assert.Equal(t, OutOfRange, res.Outcome)
	assert.InDelta(t, 1223, res.Overage, 1)
}

// The snapshot upload is the expensive external side effect; every
// rejection must short-circuit before it runs.
func TestMarkSnapshotDeferredUntilChecksPass(t *testing.T) {
	active := classroomSession()
	expired := classroomSession()
	expired.Key = "555555"
	expired.ID = "sess-2"
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	svc, records := newTestService(active, expired)

	uploads := 0
	snapshot := func(context.Context) (string, error) {
		uploads++
		return "https://cdn.example/snap.jpg", nil
	}
	inFence := geo.Point{Lat: 12.9716, Lng: 77.5946}

	res, err := svc.Mark(context.Background(), "stu-1", "000000", inFence, snapshot)
	require.NoError(t, err)
	assert.Equal(t, NoSession, res.Outcome)

	res, err = svc.Mark(context.Background(), "stu-1", "555555", inFence, snapshot)
	require.NoError(t, err)
	assert.Equal(t, Inactive, res.Outcome)

	res, err = svc.Mark(context.Background(), "stu-1", "482193",
		geo.Point{Lat: 12.9800, Lng: 77.6100}, snapshot)
	require.NoError(t, err)
	assert.Equal(t, OutOfRange, res.Outcome)

	assert.Equal(t, 0, uploads)

	res, err = svc.Mark(context.Background(), "stu-1", "482193", inFence, snapshot)
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Outcome)
	assert.Equal(t, "https://cdn.example/snap.jpg", res.Record.SnapshotURL)
	assert.Equal(t, 1, uploads)

	res, err = svc.Mark(context.Background(), "stu-1", "482193", inFence, snapshot)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, res.Outcome)
	assert.Equal(t, 1, uploads)
	assert.Equal(t, 1, records.count())
}

func TestMarkSnapshotErrorAbortsWithoutRecord(t *testing.T) {
	svc, records := newTestService(classroomSession())

	failing := func(context.Context) (string, error) {
		return "", fmt.Errorf("%w: snapshot upload", apperr.ErrUnavailable)
	}
	_, err := svc.Mark(context.Background(), "stu-1", "482193",
		geo.Point{Lat: 12.9716, Lng: 77.5946}, failing)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.Equal(t, 0, records.count())
}

func TestMarkNilSnapshotKeepsRecordBare(t *testing.T) {
	svc, _ := newTestService(classroomSession())

	res, err := svc.Mark(context.Background(), "stu-1", "482193",
		geo.Point{Lat: 12.9716, Lng: 77.5946}, nil)
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Outcome)
	assert.Empty(t, res.Record.SnapshotURL)
}
