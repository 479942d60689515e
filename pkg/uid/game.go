package uid

import "github.com/google/uuid"

// GenerateGameID returns a random UUID for a game session.
func GenerateGameID() string {
	return uuid.NewString()
}

// GenerateConnectionID names a WebSocket connection in logs.
func GenerateConnectionID() string {
	return uuid.NewString()
}

// GenerateAnalysisID returns a time-ordered UUID so analyses sort by
// creation.
func GenerateAnalysisID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsValid reports whether s parses as a UUID.
func IsValid(s string) bool {
	return uuid.Validate(s) == nil
}
