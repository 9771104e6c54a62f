package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"presence/internal/apperr"
	"presence/internal/attendance"
	"presence/internal/auth"
	"presence/internal/classroom"
	"presence/internal/cloudinary"
	"presence/internal/config"
	"presence/internal/geo"
	"presence/internal/queue"
	"presence/internal/session"
	"presence/internal/user"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testKey    = "test-signing-key"
	testIssuer = "presence-test"
)

type fakeUserStore struct {
	users      map[string]user.User // by id
	lastUpdate user.UpdateParams
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]user.User{}}
}

func (f *fakeUserStore) Insert(_ context.Context, u user.User) (user.User, error) {
	for _, e := range f.users {
		if e.Email == u.Email {
			return user.User{}, fmt.Errorf("%w: email taken", apperr.ErrDuplicate)
		}
	}
	u.ID = fmt.Sprintf("u%d", len(f.users)+1)
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, apperr.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, apperr.ErrNotFound
}

func (f *fakeUserStore) GetByIdentifier(_ context.Context, identifier string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == identifier || u.RollNo == identifier || u.Phone == identifier {
			return u, nil
		}
	}
	return user.User{}, apperr.ErrNotFound
}

func (f *fakeUserStore) ListByRole(_ context.Context, role string) ([]user.User, error) {
	var out []user.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) Update(_ context.Context, id string, p user.UpdateParams) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, apperr.ErrNotFound
	}
	f.lastUpdate = p
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.FaceImages != nil {
		u.FaceImages = p.FaceImages
	}
	f.users[id] = u
	return u, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) CountByRole(_ context.Context, role string) (int, error) {
	n := 0
	for _, u := range f.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserStore) SetResetToken(_ context.Context, id, _ string, _ time.Time) error {
	return nil
}

func (f *fakeUserStore) GetByResetToken(_ context.Context, _ string) (user.User, error) {
	return user.User{}, apperr.ErrNotFound
}

func (f *fakeUserStore) ResetPassword(_ context.Context, _, _ string) error { return nil }

type noopMailer struct{}

func (noopMailer) Configured() bool { return false }

func (noopMailer) Send(context.Context, string, string, string) error { return nil }

type stubSessions struct {
	create     func(session.CreateParams) (session.Session, error)
	detail     func(id string) (session.Session, error)
	history    []session.HistoryItem
	deactivate func(id string) error
}

func (s *stubSessions) Create(_ context.Context, p session.CreateParams) (session.Session, error) {
	return s.create(p)
}

func (s *stubSessions) History(_ context.Context, _ string) ([]session.HistoryItem, error) {
	return s.history, nil
}

func (s *stubSessions) Detail(_ context.Context, id, _, _ string) (session.Session, error) {
	return s.detail(id)
}

func (s *stubSessions) Deactivate(_ context.Context, id, _, _ string) error {
	return s.deactivate(id)
}

type stubAdmitter struct {
	mark func(studentID, key string, loc geo.Point, snapshot attendance.SnapshotFunc) (attendance.Result, error)
}

func (s *stubAdmitter) Mark(_ context.Context, studentID, key string, loc geo.Point, snapshot attendance.SnapshotFunc) (attendance.Result, error) {
	return s.mark(studentID, key, loc, snapshot)
}

type stubReader struct {
	roster  []attendance.RosterEntry
	history []attendance.HistoryEntry
	reports []attendance.Report
	filter  attendance.ReportFilter
}

func (s *stubReader) Roster(_ context.Context, _ string) ([]attendance.RosterEntry, error) {
	return s.roster, nil
}

func (s *stubReader) History(_ context.Context, _ string) ([]attendance.HistoryEntry, error) {
	return s.history, nil
}

func (s *stubReader) Reports(_ context.Context, f attendance.ReportFilter) ([]attendance.Report, error) {
	s.filter = f
	return s.reports, nil
}

type stubClassrooms struct {
	rooms      map[string]classroom.Classroom
	lastUpdate classroom.UpdateParams
}

func (s *stubClassrooms) Insert(_ context.Context, c classroom.Classroom) (classroom.Classroom, error) {
	c.ID = fmt.Sprintf("c%d", len(s.rooms)+1)
	s.rooms[c.ID] = c
	return c, nil
}

func (s *stubClassrooms) List(_ context.Context) ([]classroom.Classroom, error) {
	var out []classroom.Classroom
	for _, c := range s.rooms {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubClassrooms) Get(_ context.Context, id string) (classroom.Classroom, error) {
	c, ok := s.rooms[id]
	if !ok {
		return classroom.Classroom{}, apperr.ErrNotFound
	}
	return c, nil
}

func (s *stubClassrooms) Update(_ context.Context, id string, p classroom.UpdateParams) (classroom.Classroom, error) {
	s.lastUpdate = p
	return s.Get(context.Background(), id)
}

func (s *stubClassrooms) Delete(_ context.Context, id string) error {
	if _, ok := s.rooms[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(s.rooms, id)
	return nil
}

func (s *stubClassrooms) Count(_ context.Context) (int, error) { return len(s.rooms), nil }

type fixture struct {
	router     *gin.Engine
	userStore  *fakeUserStore
	sessions   *stubSessions
	admissions *stubAdmitter
	reader     *stubReader
	classrooms *stubClassrooms
	q          *queue.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureCDN(t, nil)
}

func newFixtureCDN(t *testing.T, cdn *cloudinary.Client) *fixture {
	t.Helper()

	cfg := config.App{
		Env:           "test",
		JWTIssuer:     testIssuer,
		JWTSigningKey: testKey,
		TokenTTL:      time.Hour,
	}
	f := &fixture{
		userStore:  newFakeUserStore(),
		sessions:   &stubSessions{},
		admissions: &stubAdmitter{},
		reader:     &stubReader{},
		classrooms: &stubClassrooms{rooms: map[string]classroom.Classroom{}},
		q:          queue.NewInMemory(16),
	}
	users := user.NewService(f.userStore, noopMailer{}, zap.NewNop(), time.Minute, false)
	h := New(cfg, zap.NewNop(), users, f.sessions, f.admissions, f.reader, f.classrooms, cdn, f.q)

	f.router = gin.New()
	h.Register(f.router)
	return f
}

func (f *fixture) addUser(t *testing.T, name, email, password, role string) user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := f.userStore.Insert(context.Background(), user.User{
		Name: name, Email: email, PasswordHash: string(hash), Role: role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) token(t *testing.T, u user.User) string {
	t.Helper()
	tok, err := auth.Issue(u.ID, u.Role, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	return tok.Value
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func jsonReq(method, path string, body any, token string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)

	w := f.do(jsonReq(http.MethodPost, "/api/auth/login", gin.H{
		"identifier": "asha@example.com", "password": "sekrit1",
	}, ""))
	require.Equal(t, http.StatusOK, w.Code)

	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "asha@example.com", resp.Email)
	require.NotEmpty(t, resp.Token)

	w = f.do(jsonReq(http.MethodGet, "/api/auth/me", nil, resp.Token))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "asha@example.com")
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)

	w := f.do(jsonReq(http.MethodPost, "/api/auth/login", gin.H{
		"identifier": "asha@example.com", "password": "wrong",
	}, ""))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterIssuesToken(t *testing.T) {
	f := newFixture(t)

	w := f.do(jsonReq(http.MethodPost, "/api/auth/register", gin.H{
		"name": "Ravi", "email": "ravi@example.com", "password": "sekrit1", "role": "student",
	}, ""))
	require.Equal(t, http.StatusCreated, w.Code)

	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "student", resp.Role)
	require.NotEmpty(t, resp.Token)
}

func TestRoleEnforcement(t *testing.T) {
	f := newFixture(t)
	student := f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)

	w := f.do(jsonReq(http.MethodGet, "/api/faculty/history", nil, f.token(t, student)))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(jsonReq(http.MethodGet, "/api/faculty/history", nil, ""))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func markReq(t *testing.T, key, location, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("sessionKey", key))
	require.NoError(t, mw.WriteField("location", location))
	part, err := mw.CreateFormFile("image", "snap.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpegdata"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/student/mark-attendance", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestMarkAttendanceOutcomes(t *testing.T) {
	cases := []struct {
		name       string
		result     attendance.Result
		wantStatus int
		wantBody   string
	}{
		{"accepted", attendance.Result{Outcome: attendance.Accepted, Record: &attendance.Record{ID: "r1", StudentID: "u1"}}, http.StatusCreated, "marked successfully"},
		{"unknown key", attendance.Result{Outcome: attendance.NoSession}, http.StatusNotFound, "Invalid session key"},
		{"expired", attendance.Result{Outcome: attendance.Inactive}, http.StatusBadRequest, "inactive or has expired"},
		{"duplicate", attendance.Result{Outcome: attendance.Duplicate}, http.StatusConflict, "already marked"},
		{"out of range", attendance.Result{Outcome: attendance.OutOfRange, Overage: 37}, http.StatusBadRequest, "out of range by 37 meters"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			student := f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)
			f.admissions.mark = func(_, _ string, _ geo.Point, _ attendance.SnapshotFunc) (attendance.Result, error) {
				return tc.result, nil
			}

			w := f.do(markReq(t, "482193", `{"lat":12.9716,"lng":77.5946}`, f.token(t, student)))
			require.Equal(t, tc.wantStatus, w.Code)
			require.Contains(t, w.Body.String(), tc.wantBody)
		})
	}
}

func TestMarkAttendanceEnqueuesVerification(t *testing.T) {
	f := newFixture(t)
	student := f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)
	f.admissions.mark = func(studentID, _ string, _ geo.Point, _ attendance.SnapshotFunc) (attendance.Result, error) {
		return attendance.Result{
			Outcome: attendance.Accepted,
			Record:  &attendance.Record{ID: "r1", StudentID: studentID},
		}, nil
	}

	w := f.do(markReq(t, "482193", `{"lat":1,"lng":2}`, f.token(t, student)))
	require.Equal(t, http.StatusCreated, w.Code)

	ch, err := f.q.Consume(context.Background())
	require.NoError(t, err)
	select {
	case msg := <-ch:
		require.Equal(t, queue.TypeVerifyAttendance, msg.Type)
		var job attendance.VerifyJob
		require.NoError(t, json.Unmarshal(msg.Body, &job))
		require.Equal(t, "r1", job.RecordID)
		require.Equal(t, student.ID, job.StudentID)
	case <-time.After(time.Second):
		t.Fatal("no verification job published")
	}
}

func TestMarkAttendanceRejectsBadForm(t *testing.T) {
	f := newFixture(t)
	student := f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)

	w := f.do(markReq(t, "", `{"lat":1,"lng":2}`, f.token(t, student)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "sessionKey")

	w = f.do(markReq(t, "482193", "not json", f.token(t, student)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "location")
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	faculty := f.addUser(t, "Prof", "prof@example.com", "sekrit1", user.RoleFaculty)
	f.sessions.create = func(p session.CreateParams) (session.Session, error) {
		require.Equal(t, faculty.ID, p.FacultyID)
		require.Equal(t, 100.0, p.Radius)
		return session.Session{ID: "s1", Key: "482193", FacultyID: p.FacultyID}, nil
	}

	w := f.do(jsonReq(http.MethodPost, "/api/faculty/create-session", gin.H{
		"lat": 12.9716, "lng": 77.5946, "radius": 100, "subject": "Physics",
	}, f.token(t, faculty)))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "482193")
}

func TestCreateSessionMissingRadius(t *testing.T) {
	f := newFixture(t)
	faculty := f.addUser(t, "Prof", "prof@example.com", "sekrit1", user.RoleFaculty)

	w := f.do(jsonReq(http.MethodPost, "/api/faculty/create-session", gin.H{
		"lat": 12.9716, "lng": 77.5946,
	}, f.token(t, faculty)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionDetailErrorMapping(t *testing.T) {
	f := newFixture(t)
	faculty := f.addUser(t, "Prof", "prof@example.com", "sekrit1", user.RoleFaculty)

	f.sessions.detail = func(string) (session.Session, error) {
		return session.Session{}, fmt.Errorf("%w: not the session owner", apperr.ErrForbidden)
	}
	w := f.do(jsonReq(http.MethodGet, "/api/faculty/session/s1", nil, f.token(t, faculty)))
	require.Equal(t, http.StatusForbidden, w.Code)

	f.sessions.detail = func(string) (session.Session, error) {
		return session.Session{}, apperr.ErrNotFound
	}
	w = f.do(jsonReq(http.MethodGet, "/api/faculty/session/s1", nil, f.token(t, faculty)))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminStatsAndUsers(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "Root", "root@example.com", "sekrit1", user.RoleAdmin)
	f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)
	f.addUser(t, "Prof", "prof@example.com", "sekrit1", user.RoleFaculty)

	w := f.do(jsonReq(http.MethodGet, "/api/admin/stats", nil, f.token(t, admin)))
	require.Equal(t, http.StatusOK, w.Code)
	var stats user.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.Students)
	require.Equal(t, 1, stats.Faculty)

	w = f.do(jsonReq(http.MethodGet, "/api/admin/users?role=faculty", nil, f.token(t, admin)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "prof@example.com")
	require.False(t, strings.Contains(w.Body.String(), "asha@example.com"))
}

func TestAdminReportDateFilter(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "Root", "root@example.com", "sekrit1", user.RoleAdmin)

	w := f.do(jsonReq(http.MethodGet, "/api/admin/attendance?date=nope", nil, f.token(t, admin)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(jsonReq(http.MethodGet, "/api/admin/attendance?date=2026-03-02&subject=Physics", nil, f.token(t, admin)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Physics", f.reader.filter.Subject)
	require.Equal(t, 2, f.reader.filter.Date.Day())
}

func TestClassroomCRUD(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "Root", "root@example.com", "sekrit1", user.RoleAdmin)

	w := f.do(jsonReq(http.MethodPost, "/api/admin/create-classroom", gin.H{
		"name": "Lab 1", "referenceImages": []string{"https://cdn.example.com/a.jpg"},
	}, f.token(t, admin)))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "Lab 1")

	w = f.do(jsonReq(http.MethodGet, "/api/admin/classrooms", nil, f.token(t, admin)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Lab 1")

	w = f.do(jsonReq(http.MethodDelete, "/api/admin/classroom/c1", nil, f.token(t, admin)))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(jsonReq(http.MethodDelete, "/api/admin/classroom/c1", nil, f.token(t, admin)))
	require.Equal(t, http.StatusNotFound, w.Code)
}

// testCDN returns a cloudinary client pointed at a local server and a
// counter of upload requests it received.
func testCDN(t *testing.T, status int) (*cloudinary.Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status >= 300 {
			http.Error(w, `{"error":{"message":"boom"}}`, status)
			return
		}
		_ = json.NewEncoder(w).Encode(cloudinary.UploadResult{SecureURL: "https://cdn.example/snap.jpg"})
	}))
	t.Cleanup(srv.Close)

	cdn := cloudinary.New("demo", "key", "secret", "")
	cdn.BaseURL = srv.URL
	return cdn, &hits
}

// A rejected check-in must never reach image storage: the handler hands
// the admission check a deferred upload, not an already-uploaded URL.
func TestMarkAttendanceRejectionSkipsUpload(t *testing.T) {
	cdn, hits := testCDN(t, http.StatusOK)
	f := newFixtureCDN(t, cdn)
	student := f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)

	f.admissions.mark = func(_, _ string, _ geo.Point, snapshot attendance.SnapshotFunc) (attendance.Result, error) {
		require.NotNil(t, snapshot)
		return attendance.Result{Outcome: attendance.Duplicate}, nil
	}

	w := f.do(markReq(t, "482193", `{"lat":12.9716,"lng":77.5946}`, f.token(t, student)))
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, int32(0), hits.Load())
}

func TestMarkAttendanceUploadsOnAccept(t *testing.T) {
	cdn, hits := testCDN(t, http.StatusOK)
	f := newFixtureCDN(t, cdn)
	student := f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)

	f.admissions.mark = func(studentID, _ string, _ geo.Point, snapshot attendance.SnapshotFunc) (attendance.Result, error) {
		url, err := snapshot(context.Background())
		require.NoError(t, err)
		return attendance.Result{
			Outcome: attendance.Accepted,
			Record:  &attendance.Record{ID: "r1", StudentID: studentID, SnapshotURL: url},
		}, nil
	}

	w := f.do(markReq(t, "482193", `{"lat":12.9716,"lng":77.5946}`, f.token(t, student)))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "https://cdn.example/snap.jpg")
	require.Equal(t, int32(1), hits.Load())
}

func TestMarkAttendanceUploadFailure(t *testing.T) {
	cdn, _ := testCDN(t, http.StatusInternalServerError)
	f := newFixtureCDN(t, cdn)
	student := f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)

	f.admissions.mark = func(_, _ string, _ geo.Point, snapshot attendance.SnapshotFunc) (attendance.Result, error) {
		_, err := snapshot(context.Background())
		return attendance.Result{}, err
	}

	w := f.do(markReq(t, "482193", `{"lat":12.9716,"lng":77.5946}`, f.token(t, student)))
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "Upstream service unavailable")
}

// An explicit empty image list clears stored images; an absent field
// leaves them untouched.
func TestAdminUpdateDistinguishesEmptyFromAbsent(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "Root", "root@example.com", "sekrit1", user.RoleAdmin)
	target := f.addUser(t, "Asha", "asha@example.com", "sekrit1", user.RoleStudent)

	w := f.do(jsonReq(http.MethodPut, "/api/admin/user/"+target.ID, gin.H{
		"faceImages": []string{},
	}, f.token(t, admin)))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.userStore.lastUpdate.FaceImages)
	require.Empty(t, f.userStore.lastUpdate.FaceImages)

	name := "Asha R"
	w = f.do(jsonReq(http.MethodPut, "/api/admin/user/"+target.ID, gin.H{
		"name": name,
	}, f.token(t, admin)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, f.userStore.lastUpdate.FaceImages)

	w = f.do(jsonReq(http.MethodPost, "/api/admin/create-classroom", gin.H{
		"name": "Lab 1", "referenceImages": []string{"https://cdn.example.com/a.jpg"},
	}, f.token(t, admin)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(jsonReq(http.MethodPut, "/api/admin/classroom/c1", gin.H{
		"referenceImages": []string{},
	}, f.token(t, admin)))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.classrooms.lastUpdate.ReferenceImages)
	require.Empty(t, f.classrooms.lastUpdate.ReferenceImages)
}
