// Package user manages identities: students, faculty, and admins.
package user

import "time"

// Roles.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	return role == RoleStudent || role == RoleFaculty || role == RoleAdmin
}

// User is a registered identity. Role-specific fields are empty for the
// other roles. FaceImages holds Cloudinary URLs enrolled at
// registration; the verification worker compares snapshots against them.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Role            string    `json:"role"`
	Phone           string    `json:"phone,omitempty"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	RollNo          string    `json:"rollNo,omitempty"`
	Branch          string    `json:"branch,omitempty"`
	Year            string    `json:"year,omitempty"`
	Department      string    `json:"department,omitempty"`
	Subject         string    `json:"subject,omitempty"`
	FaceImages      []string  `json:"faceImages,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	Students   int `json:"students"`
	Faculty    int `json:"faculty"`
	Classrooms int `json:"classrooms"`
}
