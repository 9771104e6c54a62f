package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"presence/internal/apperr"
	"presence/internal/metrics"
)

// ErrInvalidCredentials covers both unknown identifiers and wrong
// passwords, so login failures do not reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByIdentifier(ctx context.Context, identifier string) (User, error)
	ListByRole(ctx context.Context, role string) ([]User, error)
	Update(ctx context.Context, id string, p UpdateParams) (User, error)
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, role string) (int, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	GetByResetToken(ctx context.Context, tokenHash string) (User, error)
	ResetPassword(ctx context.Context, id, passwordHash string) error
}

// Mailer sends the password-reset email.
type Mailer interface {
	Configured() bool
	Send(ctx context.Context, to, subject, body string) error
}

// Service implements registration, login, and the password-reset flow.
type Service struct {
	store      Store
	mail       Mailer
	log        *zap.Logger
	resetTTL   time.Duration
	production bool
}

// NewService creates a service. resetTTL bounds reset-token validity.
func NewService(store Store, mail Mailer, log *zap.Logger, resetTTL time.Duration, production bool) *Service {
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, mail: mail, log: log, resetTTL: resetTTL, production: production}
}

// RegisterParams carries a self-service or admin-created registration.
// FaceImageURLs are Cloudinary URLs already uploaded by the caller.
type RegisterParams struct {
	Name          string
	Email         string
	Password      string
	Role          string
	Phone         string
	RollNo        string
	Branch        string
	Year          string
	Department    string
	Subject       string
	FaceImageURLs []string
}

// Register hashes the credential and creates the identity. The unique
// index on email is the authoritative duplicate guard; the pre-check
// just gives a cleaner error on the common path.
func (s *Service) Register(ctx context.Context, p RegisterParams) (User, error) {
	if p.Name == "" || p.Email == "" || p.Password == "" {
		return User{}, fmt.Errorf("%w: name, email and password required", apperr.ErrValidation)
	}
	if p.Role == "" {
		p.Role = RoleStudent
	}
	if !ValidRole(p.Role) {
		return User{}, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, p.Role)
	}

	if _, err := s.store.GetByEmail(ctx, p.Email); err == nil {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrDuplicate, p.Email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	return s.store.Insert(ctx, User{
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: string(hash),
		Role:         p.Role,
		Phone:        p.Phone,
		RollNo:       p.RollNo,
		Branch:       p.Branch,
		Year:         p.Year,
		Department:   p.Department,
		Subject:      p.Subject,
		FaceImages:   p.FaceImageURLs,
	})
}

// Authenticate resolves the identifier (email, roll number, or phone)
// and checks the password.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (User, error) {
	u, err := s.store.GetByIdentifier(ctx, identifier)
	if errors.Is(err, apperr.ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns an identity by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.store.GetByID(ctx, id)
}

// ForgotPassword issues a reset token and emails the reset link. Email
// failure does not discard the token: outside production the link is
// logged for manual retrieval, and the caller still sees success.
func (s *Service) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)
	if err := s.store.SetResetToken(ctx, u.ID, hashToken(token), time.Now().Add(s.resetTTL)); err != nil {
		return err
	}

	resetURL := resetURLBase + "/resetpassword/" + token
	body := "You are receiving this email because a password reset was requested " +
		"for your account. Follow this link to choose a new password:\n\n" + resetURL +
		"\n\nThe link expires in " + s.resetTTL.String() + ". If you did not request " +
		"a reset, ignore this email."

	if err := s.mail.Send(ctx, u.Email, "Password Reset", body); err != nil {
		metrics.EmailsSent.WithLabelValues("error").Inc()
		s.log.Warn("reset email failed, token kept", zap.String("email", u.Email), zap.Error(err))
		if !s.production {
			s.log.Info("reset link (email delivery failed)", zap.String("url", resetURL))
		}
		return nil
	}
	metrics.EmailsSent.WithLabelValues("ok").Inc()
	return nil
}

// ResetPassword consumes a reset token and installs a new credential.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (User, error) {
	if newPassword == "" {
		return User{}, fmt.Errorf("%w: password required", apperr.ErrValidation)
	}
	u, err := s.store.GetByResetToken(ctx, hashToken(token))
	if errors.Is(err, apperr.ErrNotFound) {
		return User{}, fmt.Errorf("%w: invalid or expired token", apperr.ErrValidation)
	}
	if err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	if err := s.store.ResetPassword(ctx, u.ID, string(hash)); err != nil {
		return User{}, err
	}
	return u, nil
}

// ListByRole returns identities for the admin user table.
func (s *Service) ListByRole(ctx context.Context, role string) ([]User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, role)
	}
	return s.store.ListByRole(ctx, role)
}

// Update applies an admin or self-service edit.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (User, error) {
	return s.store.Update(ctx, id, p)
}

// Delete removes an identity (admin action).
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// CountByRole backs the admin dashboard stats.
func (s *Service) CountByRole(ctx context.Context, role string) (int, error) {
	return s.store.CountByRole(ctx, role)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
