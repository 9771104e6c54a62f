// Package session implements the attendance session lifecycle: creation
// by faculty, unique 6-digit key issuance, time-based expiry, and
// explicit deactivation.
package session

import (
	"time"

	"presence/internal/geo"
)

// Session is a time-boxed attendance window bound to a geofence.
// Subject and class name are snapshots taken at creation; the record is
// never updated afterwards except by deactivation.
type Session struct {
	ID        string    `json:"id"`
	FacultyID string    `json:"facultyId"`
	Key       string    `json:"sessionKey"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Radius    float64   `json:"radius"`
	Subject   string    `json:"subject,omitempty"`
	ClassName string    `json:"className,omitempty"`
	IsActive  bool      `json:"isActive"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Open reports whether the session still admits attendance: the active
// flag is set and the expiry has not passed.
func (s Session) Open(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// Fence returns the session's geofence.
func (s Session) Fence() geo.Fence {
	return geo.Fence{Center: geo.Point{Lat: s.Lat, Lng: s.Lng}, Radius: s.Radius}
}

// HistoryItem is a session with its attendance count, for reports.
type HistoryItem struct {
	Session
	AttendanceCount int `json:"attendanceCount"`
}
