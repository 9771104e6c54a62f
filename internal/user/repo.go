package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"presence/internal/apperr"
	"presence/internal/store"
)

// Repository persists identities in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userCols = `id, name, email, password_hash, role, phone, profile_image_url,
	roll_no, branch, year, department, subject, face_images, created_at, updated_at`

// Insert writes a new identity. An email conflict surfaces as
// apperr.ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, phone, profile_image_url,
			roll_no, branch, year, department, subject, face_images)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.ProfileImageURL,
		u.RollNo, u.Branch, u.Year, u.Department, u.Subject, pq.Array(u.FaceImages))
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return User{}, fmt.Errorf("%w: user %s", apperr.ErrDuplicate, u.Email)
		}
		return User{}, err
	}
	return u, nil
}

// GetByID returns an identity by id.
func (r *Repository) GetByID(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns an identity by exact email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByIdentifier resolves a login identifier against email, roll
// number, or phone.
func (r *Repository) GetByIdentifier(ctx context.Context, identifier string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userCols+` FROM users
		WHERE email = $1 OR (roll_no <> '' AND roll_no = $1) OR (phone <> '' AND phone = $1)
		LIMIT 1
	`, identifier)
	return scanUser(row)
}

// ListByRole returns all identities holding the role.
func (r *Repository) ListByRole(ctx context.Context, role string) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE role = $1 ORDER BY name`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateParams carries optional field updates; nil means leave as-is.
type UpdateParams struct {
	Name       *string
	Email      *string
	Phone      *string
	RollNo     *string
	Branch     *string
	Year       *string
	Department *string
	Subject    *string
	FaceImages []string
}

// Update applies the provided fields and returns the updated identity.
func (r *Repository) Update(ctx context.Context, id string, p UpdateParams) (User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(col string, v *string) {
		if v != nil {
			args = append(args, *v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("name", p.Name)
	add("email", p.Email)
	add("phone", p.Phone)
	add("roll_no", p.RollNo)
	add("branch", p.Branch)
	add("year", p.Year)
	add("department", p.Department)
	add("subject", p.Subject)
	if p.FaceImages != nil {
		args = append(args, pq.Array(p.FaceImages))
		sets = append(sets, fmt.Sprintf("face_images = $%d", len(args)))
	}

	query := "UPDATE users SET " + joinSets(sets) + " WHERE id = $1 RETURNING " + userCols
	row := r.db.QueryRowContext(ctx, query, args...)
	u, err := scanUser(row)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return User{}, fmt.Errorf("%w: email taken", apperr.ErrDuplicate)
		}
		return User{}, err
	}
	return u, nil
}

// Delete removes an identity.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return nil
}

// CountByRole counts identities holding the role.
func (r *Repository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}

// SetResetToken stores the hashed password-reset token with its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token_hash = $2, reset_token_expires = $3, updated_at = NOW()
		WHERE id = $1
	`, id, tokenHash, expires)
	return err
}

// GetByResetToken returns the identity holding an unexpired reset token.
func (r *Repository) GetByResetToken(ctx context.Context, tokenHash string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userCols+` FROM users
		WHERE reset_token_hash = $1 AND reset_token_expires > NOW()
	`, tokenHash)
	return scanUser(row)
}

// ResetPassword swaps the credential hash and clears the reset token.
func (r *Repository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token_hash = NULL, reset_token_expires = NULL, updated_at = NOW()
		WHERE id = $1
	`, id, passwordHash)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.ProfileImageURL,
		&u.RollNo, &u.Branch, &u.Year, &u.Department, &u.Subject, pq.Array(&u.FaceImages),
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
