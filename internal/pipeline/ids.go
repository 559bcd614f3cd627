package pipeline

import "github.com/google/uuid"

// newRunID returns a time-ordered run identifier.
func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
