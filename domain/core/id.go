package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SessionID names one adaptive run, BatchID one simulated batch. Both are
// UUIDv7 strings, so they sort by creation time.
type (
	SessionID string
	BatchID   string
)

func (id SessionID) String() string { return string(id) }
func (id BatchID) String() string   { return string(id) }

// NewSessionID creates a time-ordered session identifier
func NewSessionID() SessionID { return SessionID(timeOrderedUUID()) }

// NewBatchID creates a time-ordered batch identifier
func NewBatchID() BatchID { return BatchID(timeOrderedUUID()) }

func timeOrderedUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 only fails when the clock source does
		id = uuid.New()
	}
	return id.String()
}

// ParseSessionID accepts any UUID string
func ParseSessionID(s string) (SessionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("session ID %q is not a UUID: %w", s, err)
	}
	return SessionID(s), nil
}
