package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionStatus defines the lifecycle state of a quiz session.
type SessionStatus string

const (
	SessionStatusWaiting   SessionStatus = "WAITING"
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusFinished  SessionStatus = "FINISHED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// Terminal reports whether the status means the game loop has ended
// (or must never start) for this session.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusFinished || s == SessionStatusCompleted
}

// Session represents one quiz game instance, joined via its room code.
//
// Invariant: CurrentQuestionID and QuestionEndsAt are set and cleared
// together; exactly one of "both nil" (lobby/break) or "both non-nil"
// (question phase) holds in the persisted record.
type Session struct {
	ID                uuid.UUID     `json:"id"`
	Code              string        `json:"session_code"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	Status            SessionStatus `json:"status"`
	CurrentQuestionID *uuid.UUID    `json:"current_question_id,omitempty"`
	QuestionEndsAt    *time.Time    `json:"question_ends_at,omitempty"`
	StartedAt         *time.Time    `json:"started_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// CanonicalCode returns the canonical form of a room code: trimmed and
// uppercased. Codes are case-insensitive on the wire, uppercase at rest.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
