// Package classroom manages classroom records and their reference
// images. Reference images are stored for background-liveliness
// comparison but not consumed algorithmically anywhere yet.
package classroom

import "time"

// Classroom is a named room with location metadata.
type Classroom struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Building        string    `json:"building"`
	Floor           string    `json:"floor"`
	ReferenceImages []string  `json:"referenceImages"`
	CreatedAt       time.Time `json:"createdAt"`
}
