package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presence/internal/apperr"
	"presence/internal/attendance"
	"presence/internal/geo"
	"presence/internal/metrics"
	"presence/internal/queue"
)

// maxSnapshotBytes caps the check-in snapshot upload.
const maxSnapshotBytes = 8 << 20

type locationPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// markAttendance handles the student check-in form: a session key, a
// GPS location, and a camera snapshot, submitted as multipart.
func (h *Handler) markAttendance(c *gin.Context) {
	key := c.PostForm("sessionKey")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "sessionKey is required"})
		return
	}

	var loc locationPayload
	if err := json.Unmarshal([]byte(c.PostForm("location")), &loc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "location must be JSON with lat and lng"})
		return
	}

	snapshot, ok := h.readSnapshot(c)
	if !ok {
		return
	}

	cl := claims(c)
	res, err := h.admissions.Mark(c.Request.Context(), cl.UserID, key, geo.Point{Lat: loc.Lat, Lng: loc.Lng}, snapshot)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch res.Outcome {
	case attendance.Accepted:
		h.enqueueVerification(c, res.Record)
		c.JSON(http.StatusCreated, gin.H{
			"message":    "Attendance marked successfully",
			"attendance": res.Record,
		})
	case attendance.NoSession:
		c.JSON(http.StatusNotFound, gin.H{"message": "Invalid session key"})
	case attendance.Inactive:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Session is inactive or has expired"})
	case attendance.Duplicate:
		c.JSON(http.StatusConflict, gin.H{"message": "Attendance already marked for this session"})
	case attendance.OutOfRange:
		c.JSON(http.StatusBadRequest, gin.H{
			"message": fmt.Sprintf("You are out of range by %d meters.", res.Overage),
		})
	default:
		h.fail(c, fmt.Errorf("unexpected admission outcome %q", res.Outcome))
	}
}

// readSnapshot validates and buffers the multipart image part, returning
// a deferred upload the admission check runs only once every rejection
// gate has passed. Without configured storage the record is kept
// without a snapshot.
func (h *Handler) readSnapshot(c *gin.Context) (attendance.SnapshotFunc, bool) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "image file is required"})
		return nil, false
	}
	defer file.Close()

	if h.cdn == nil {
		h.log.Warn("image storage not configured, keeping record without snapshot")
		return nil, true
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSnapshotBytes+1))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if len(data) > maxSnapshotBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "image too large"})
		return nil, false
	}

	return func(context.Context) (string, error) {
		res, err := h.cdn.UploadBytes(data, header.Filename, "attendance")
		if err != nil {
			metrics.ImageUploads.WithLabelValues("error").Inc()
			h.log.Warn("snapshot upload failed", zap.Error(err))
			return "", fmt.Errorf("%w: snapshot upload", apperr.ErrUnavailable)
		}
		metrics.ImageUploads.WithLabelValues("ok").Inc()
		return res.SecureURL, nil
	}, true
}

// enqueueVerification hands the accepted record to the async verifier.
// Queue trouble never fails the check-in; the record stays unverified.
func (h *Handler) enqueueVerification(c *gin.Context, rec *attendance.Record) {
	if h.q == nil || rec == nil {
		return
	}
	body, err := json.Marshal(attendance.VerifyJob{RecordID: rec.ID, StudentID: rec.StudentID})
	if err != nil {
		return
	}
	if err := h.q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeVerifyAttendance, Body: body}); err != nil {
		h.log.Warn("verification enqueue failed", zap.String("record", rec.ID), zap.Error(err))
	}
}

func (h *Handler) attendanceHistory(c *gin.Context) {
	cl := claims(c)
	entries, err := h.attReader.History(c.Request.Context(), cl.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
