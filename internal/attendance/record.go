// Package attendance implements the admission check that turns a
// student submission into an attendance record, plus the read side:
// student history, session rosters, and aggregate reports.
package attendance

import "time"

// Record statuses. Status is fixed at Present: a record only exists for
// an admitted submission. VerifyStatus tracks the async face check.
const (
	StatusPresent = "Present"

	VerifyPending  = "unverified"
	VerifyVerified = "verified"
	VerifyFailed   = "failed"
)

// Record is one student's attendance in one session. Immutable after
// creation except for the verification fields the worker fills in.
type Record struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"sessionId"`
	StudentID    string    `json:"studentId"`
	SnapshotURL  string    `json:"snapshotUrl"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Status       string    `json:"status"`
	VerifyStatus string    `json:"verifyStatus"`
	MatchScore   *float64  `json:"matchScore,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RosterEntry is a record joined with the student identity, for the
// faculty session-detail view.
type RosterEntry struct {
	Record
	StudentName     string `json:"studentName"`
	StudentEmail    string `json:"studentEmail"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// VerifyJob is the queue payload that asks the verification worker to
// face-match an accepted record against the student's enrolled images.
type VerifyJob struct {
	RecordID  string `json:"recordId"`
	StudentID string `json:"studentId"`
}

// HistoryEntry is the student-facing view of one attendance record.
type HistoryEntry struct {
	Date        string `json:"date"`
	Subject     string `json:"subject"`
	Status      string `json:"status"`
	FacultyName string `json:"facultyName"`
}

// Report aggregates one session for the admin attendance report.
// Total and ProxiesBlocked are acknowledged placeholders: no enrollment
// roster or proxy detection exists yet, so both report zero.
type Report struct {
	SessionKey     string `json:"sessionKey"`
	Date           string `json:"date"`
	Subject        string `json:"subject"`
	ClassName      string `json:"className"`
	Present        int    `json:"present"`
	Total          int    `json:"total"`
	ProxiesBlocked int    `json:"proxiesBlocked"`
}

// ReportFilter narrows the admin report. Zero values mean "no filter";
// Date filters by inclusive day boundaries in server-local time.
type ReportFilter struct {
	FacultyID string
	Date      time.Time
	Subject   string
	ClassName string
}
