package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presence/internal/apperr"
	"presence/internal/auth"
	"presence/internal/metrics"
	"presence/internal/user"
)

type registerRequest struct {
	Name       string   `json:"name" binding:"required"`
	Email      string   `json:"email" binding:"required,email"`
	Password   string   `json:"password" binding:"required,min=6"`
	Role       string   `json:"role" binding:"required"`
	Phone      string   `json:"phone"`
	RollNo     string   `json:"rollNo"`
	Branch     string   `json:"branch"`
	Year       string   `json:"year"`
	Department string   `json:"department"`
	Subject    string   `json:"subject"`
	FaceImages []string `json:"faceImages"` // base64 data URIs
}

type authResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func (h *Handler) issueToken(c *gin.Context, u user.User, status int) {
	tok, err := auth.Issue(u.ID, u.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.TokenTTL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, authResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Token: tok.Value})
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var faceURLs []string
	if len(req.FaceImages) > 0 {
		if h.cdn == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Image storage not configured"})
			return
		}
		urls, err := h.cdn.UploadBase64Batch(req.FaceImages, "faces")
		if err != nil {
			metrics.ImageUploads.WithLabelValues("error").Inc()
			h.log.Warn("face image upload failed", zap.Error(err))
			h.fail(c, fmt.Errorf("%w: face image upload", apperr.ErrUnavailable))
			return
		}
		metrics.ImageUploads.WithLabelValues("ok").Inc()
		faceURLs = urls
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
	h.issueToken(c, u, http.StatusCreated)
}

type loginRequest struct {
	// Identifier accepts an email, roll number, or phone number.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.issueToken(c, u, http.StatusOK)
}

func (h *Handler) me(c *gin.Context) {
	cl := claims(c)
	u, err := h.users.Get(c.Request.Context(), cl.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	err := h.users.ForgotPassword(c.Request.Context(), req.Email, h.cfg.FrontendURL)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		h.fail(c, err)
		return
	}
	// Same reply whether or not the account exists.
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link has been sent"})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	u, err := h.users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.issueToken(c, u, http.StatusOK)
}
