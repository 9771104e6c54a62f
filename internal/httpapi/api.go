// Package httpapi mounts the JSON API consumed by the browser frontend.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

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

// AttendanceReader is the read side of attendance: rosters, student
// history, and admin reports. *attendance.Repository satisfies it.
type AttendanceReader interface {
	Roster(ctx context.Context, sessionID string) ([]attendance.RosterEntry, error)
	History(ctx context.Context, studentID string) ([]attendance.HistoryEntry, error)
	Reports(ctx context.Context, f attendance.ReportFilter) ([]attendance.Report, error)
}

// ClassroomStore is the classroom persistence surface.
// *classroom.Repository satisfies it.
type ClassroomStore interface {
	Insert(ctx context.Context, c classroom.Classroom) (classroom.Classroom, error)
	List(ctx context.Context) ([]classroom.Classroom, error)
	Get(ctx context.Context, id string) (classroom.Classroom, error)
	Update(ctx context.Context, id string, p classroom.UpdateParams) (classroom.Classroom, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Sessions is the session lifecycle surface the faculty handlers need.
// *session.Service satisfies it.
type Sessions interface {
	Create(ctx context.Context, p session.CreateParams) (session.Session, error)
	History(ctx context.Context, facultyID string) ([]session.HistoryItem, error)
	Detail(ctx context.Context, id, requesterID, requesterRole string) (session.Session, error)
	Deactivate(ctx context.Context, id, requesterID, requesterRole string) error
}

// Admitter decides a check-in attempt. *attendance.Service satisfies it.
type Admitter interface {
	Mark(ctx context.Context, studentID, key string, loc geo.Point, snapshot attendance.SnapshotFunc) (attendance.Result, error)
}

// Handler carries the wired services for every route group.
type Handler struct {
	cfg        config.App
	log        *zap.Logger
	users      *user.Service
	sessions   Sessions
	admissions Admitter
	attReader  AttendanceReader
	classrooms ClassroomStore
	cdn        *cloudinary.Client // nil when not configured
	q          queue.Queue        // nil when verification is disabled
}

// New creates the handler set.
func New(cfg config.App, log *zap.Logger, users *user.Service, sess Sessions,
	admissions Admitter, attReader AttendanceReader, classrooms ClassroomStore,
	cdn *cloudinary.Client, q queue.Queue) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		cfg: cfg, log: log,
		users: users, sessions: sess, admissions: admissions,
		attReader: attReader, classrooms: classrooms,
		cdn: cdn, q: q,
	}
}

// Register mounts all route groups on the engine.
func (h *Handler) Register(r *gin.Engine) {
	protect := auth.Protect(h.cfg.JWTSigningKey, h.cfg.JWTIssuer)

	api := r.Group("/api")
	{
		a := api.Group("/auth")
		a.POST("/register", h.registerUser)
		a.POST("/login", h.login)
		a.GET("/me", protect, h.me)
		a.POST("/forgotpassword", h.forgotPassword)
		a.PUT("/resetpassword/:token", h.resetPassword)
	}
	{
		f := api.Group("/faculty", protect, auth.Authorize(user.RoleFaculty, user.RoleAdmin))
		f.POST("/create-session", h.createSession)
		f.GET("/history", h.sessionHistory)
		f.GET("/session/:id", h.sessionDetail)
		f.POST("/session/:id/deactivate", h.deactivateSession)
	}
	{
		s := api.Group("/student", protect, auth.Authorize(user.RoleStudent))
		s.POST("/mark-attendance", h.markAttendance)
		s.GET("/attendance-history", h.attendanceHistory)
	}
	{
		ad := api.Group("/admin", protect, auth.Authorize(user.RoleAdmin))
		ad.GET("/stats", h.adminStats)
		ad.GET("/users", h.adminListUsers)
		ad.POST("/add-user", h.adminAddUser)
		ad.PUT("/user/:id", h.adminUpdateUser)
		ad.DELETE("/user/:id", h.adminDeleteUser)
		ad.GET("/classrooms", h.adminListClassrooms)
		ad.POST("/create-classroom", h.adminCreateClassroom)
		ad.PUT("/classroom/:id", h.adminUpdateClassroom)
		ad.DELETE("/classroom/:id", h.adminDeleteClassroom)
		ad.GET("/attendance", h.adminAttendanceReport)
	}
}

// fail translates a service error into its response category:
// validation 400, credentials 401, authorization 403, missing 404,
// conflicts 409; everything else is logged and hidden behind 500.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "Not authorized"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	case errors.Is(err, apperr.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, apperr.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"message": "Upstream service unavailable"})
	default:
		h.log.Error("handler failure", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
	}
}

func claims(c *gin.Context) auth.Claims {
	cl, _ := auth.FromContext(c)
	return cl
}
