package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"presence/internal/metrics"
	"presence/internal/session"
)

type createSessionRequest struct {
	// Pointers distinguish "missing" from a legitimate zero coordinate.
	Lat           *float64 `json:"lat" binding:"required"`
	Lng           *float64 `json:"lng" binding:"required"`
	Radius        float64  `json:"radius" binding:"required,gt=0"`
	Subject       string   `json:"subject"`
	ClassName     string   `json:"className"`
	ActiveMinutes int      `json:"activeMinutes"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	cl := claims(c)
	sess, err := h.sessions.Create(c.Request.Context(), session.CreateParams{
		FacultyID:     cl.UserID,
		Lat:           *req.Lat,
		Lng:           *req.Lng,
		Radius:        req.Radius,
		Subject:       req.Subject,
		ClassName:     req.ClassName,
		ActiveMinutes: req.ActiveMinutes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.SessionsCreated.Inc()
	c.JSON(http.StatusCreated, gin.H{"message": "Session created", "session": sess})
}

func (h *Handler) sessionHistory(c *gin.Context) {
	cl := claims(c)
	items, err := h.sessions.History(c.Request.Context(), cl.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": items})
}

// sessionDetail returns the session together with its check-in roster.
func (h *Handler) sessionDetail(c *gin.Context) {
	cl := claims(c)
	sess, err := h.sessions.Detail(c.Request.Context(), c.Param("id"), cl.UserID, cl.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	roster, err := h.attReader.Roster(c.Request.Context(), sess.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "attendees": roster})
}

func (h *Handler) deactivateSession(c *gin.Context) {
	cl := claims(c)
	if err := h.sessions.Deactivate(c.Request.Context(), c.Param("id"), cl.UserID, cl.Role); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deactivated"})
}
