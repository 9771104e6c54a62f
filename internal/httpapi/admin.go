package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presence/internal/apperr"
	"presence/internal/attendance"
	"presence/internal/classroom"
	"presence/internal/metrics"
	"presence/internal/user"
)

func (h *Handler) adminStats(c *gin.Context) {
	ctx := c.Request.Context()
	students, err := h.users.CountByRole(ctx, user.RoleStudent)
	if err != nil {
		h.fail(c, err)
		return
	}
	faculty, err := h.users.CountByRole(ctx, user.RoleFaculty)
	if err != nil {
		h.fail(c, err)
		return
	}
	classrooms, err := h.classrooms.Count(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Stats{Students: students, Faculty: faculty, Classrooms: classrooms})
}

func (h *Handler) adminListUsers(c *gin.Context) {
	role := c.Query("role")
	if role == "" {
		role = user.RoleStudent
	}
	users, err := h.users.ListByRole(c.Request.Context(), role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// adminAddUser creates an account on a user's behalf. Same payload as
// self-registration, but no token is issued.
func (h *Handler) adminAddUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	faceURLs, ok := h.resolveImages(c, req.FaceImages, "faces")
	if !ok {
		return
	}
	u, err := h.users.Register(c.Request.Context(), user.RegisterParams{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          req.Role,
		Phone:         req.Phone,
		RollNo:        req.RollNo,
		Branch:        req.Branch,
		Year:          req.Year,
		Department:    req.Department,
		Subject:       req.Subject,
		FaceImageURLs: faceURLs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

type updateUserRequest struct {
	Name       *string  `json:"name"`
	Email      *string  `json:"email"`
	Phone      *string  `json:"phone"`
	RollNo     *string  `json:"rollNo"`
	Branch     *string  `json:"branch"`
	Year       *string  `json:"year"`
	Department *string  `json:"department"`
	Subject    *string  `json:"subject"`
	FaceImages []string `json:"faceImages"` // URLs kept, base64 uploaded
}

func (h *Handler) adminUpdateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	faceURLs, ok := h.resolveImages(c, req.FaceImages, "faces")
	if !ok {
		return
	}
	u, err := h.users.Update(c.Request.Context(), c.Param("id"), user.UpdateParams{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		RollNo:     req.RollNo,
		Branch:     req.Branch,
		Year:       req.Year,
		Department: req.Department,
		Subject:    req.Subject,
		FaceImages: faceURLs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) adminDeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *Handler) adminListClassrooms(c *gin.Context) {
	rooms, err := h.classrooms.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classrooms": rooms})
}

type classroomRequest struct {
	Name            string   `json:"name" binding:"required"`
	Building        string   `json:"building"`
	Floor           string   `json:"floor"`
	ReferenceImages []string `json:"referenceImages"`
}

func (h *Handler) adminCreateClassroom(c *gin.Context) {
	var req classroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	refs, ok := h.resolveImages(c, req.ReferenceImages, "classrooms")
	if !ok {
		return
	}
	room, err := h.classrooms.Insert(c.Request.Context(), classroom.Classroom{
		Name:            req.Name,
		Building:        req.Building,
		Floor:           req.Floor,
		ReferenceImages: refs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"classroom": room})
}

type updateClassroomRequest struct {
	Name            *string  `json:"name"`
	Building        *string  `json:"building"`
	Floor           *string  `json:"floor"`
	ReferenceImages []string `json:"referenceImages"`
}

func (h *Handler) adminUpdateClassroom(c *gin.Context) {
	var req updateClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	refs, ok := h.resolveImages(c, req.ReferenceImages, "classrooms")
	if !ok {
		return
	}
	room, err := h.classrooms.Update(c.Request.Context(), c.Param("id"), classroom.UpdateParams{
		Name:            req.Name,
		Building:        req.Building,
		Floor:           req.Floor,
		ReferenceImages: refs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classroom": room})
}

func (h *Handler) adminDeleteClassroom(c *gin.Context) {
	if err := h.classrooms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Classroom deleted"})
}

// adminAttendanceReport lists per-session summaries filtered by the
// optional date (YYYY-MM-DD), subject, and className query parameters.
func (h *Handler) adminAttendanceReport(c *gin.Context) {
	filter := attendance.ReportFilter{
		FacultyID: c.Query("facultyId"),
		Subject:   c.Query("subject"),
		ClassName: c.Query("className"),
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "date must be YYYY-MM-DD"})
			return
		}
		filter.Date = day
	}

	reports, err := h.attReader.Reports(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// resolveImages passes URLs through untouched and uploads base64 data
// URIs, preserving order. A nil input stays nil (field absent, leave
// as-is) while a non-nil empty list stays empty so an update can clear
// stored images. The second return is false once a response has been
// written.
func (h *Handler) resolveImages(c *gin.Context, images []string, folder string) ([]string, bool) {
	if images == nil {
		return nil, true
	}
	out := make([]string, 0, len(images))
	for _, img := range images {
		if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
			out = append(out, img)
			continue
		}
		if h.cdn == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Image storage not configured"})
			return nil, false
		}
		res, err := h.cdn.UploadBase64(img, folder)
		if err != nil {
			metrics.ImageUploads.WithLabelValues("error").Inc()
			h.log.Warn("image upload failed", zap.Error(err))
			h.fail(c, fmt.Errorf("%w: image upload", apperr.ErrUnavailable))
			return nil, false
		}
		metrics.ImageUploads.WithLabelValues("ok").Inc()
		out = append(out, res.SecureURL)
	}
	return out, true
}
