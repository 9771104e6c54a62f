package classroom

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"presence/internal/apperr"
	"presence/internal/store"
)

// Repository persists classrooms in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new classroom; the unique name surfaces conflicts as
// apperr.ErrDuplicate.
func (r *Repository) Insert(ctx context.Context, c Classroom) (Classroom, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Classroom{}, fmt.Errorf("%w: classroom name required", apperr.ErrValidation)
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO classrooms (id, name, building, floor, reference_images)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, c.ID, c.Name, c.Building, c.Floor, pq.Array(c.ReferenceImages))
	if err := row.Scan(&c.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Classroom{}, fmt.Errorf("%w: classroom %s", apperr.ErrDuplicate, c.Name)
		}
		return Classroom{}, err
	}
	return c, nil
}

// List returns all classrooms by name.
func (r *Repository) List(ctx context.Context) ([]Classroom, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, building, floor, reference_images, created_at
		FROM classrooms ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Classroom
	for rows.Next() {
		var c Classroom
		if err := rows.Scan(&c.ID, &c.Name, &c.Building, &c.Floor, pq.Array(&c.ReferenceImages), &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns one classroom.
func (r *Repository) Get(ctx context.Context, id string) (Classroom, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, building, floor, reference_images, created_at
		FROM classrooms WHERE id = $1
	`, id)
	var c Classroom
	err := row.Scan(&c.ID, &c.Name, &c.Building, &c.Floor, pq.Array(&c.ReferenceImages), &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Classroom{}, fmt.Errorf("%w: classroom %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return Classroom{}, err
	}
	return c, nil
}

// UpdateParams carries optional field updates; nil means leave as-is.
type UpdateParams struct {
	Name            *string
	Building        *string
	Floor           *string
	ReferenceImages []string
}

// Update applies the provided fields and returns the updated classroom.
func (r *Repository) Update(ctx context.Context, id string, p UpdateParams) (Classroom, error) {
	sets := []string{}
	args := []any{id}

	add := func(col string, v *string) {
		if v != nil {
			args = append(args, *v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("name", p.Name)
	add("building", p.Building)
	add("floor", p.Floor)
	if p.ReferenceImages != nil {
		args = append(args, pq.Array(p.ReferenceImages))
		sets = append(sets, fmt.Sprintf("reference_images = $%d", len(args)))
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	row := r.db.QueryRowContext(ctx,
		`UPDATE classrooms SET `+strings.Join(sets, ", ")+` WHERE id = $1
		 RETURNING id, name, building, floor, reference_images, created_at`, args...)
	var c Classroom
	err := row.Scan(&c.ID, &c.Name, &c.Building, &c.Floor, pq.Array(&c.ReferenceImages), &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Classroom{}, fmt.Errorf("%w: classroom %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Classroom{}, fmt.Errorf("%w: classroom name taken", apperr.ErrDuplicate)
		}
		return Classroom{}, err
	}
	return c, nil
}

// Delete removes a classroom.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: classroom %s", apperr.ErrNotFound, id)
	}
	return nil
}

// Count backs the admin dashboard stats.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classrooms`).Scan(&n)
	return n, err
}
