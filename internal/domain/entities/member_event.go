package entities

import (
	"time"

	"github.com/google/uuid"
)

// MemberEventType represents the kind of cross-replica notification
type MemberEventType string

const (
	// MemberEventTypeUpdated is published after a committed change to a
	// member's profile or appointments
	MemberEventTypeUpdated MemberEventType = "member.updated"

	// MemberEventTypeEscalated is published after an escalation row is written
	MemberEventTypeEscalated MemberEventType = "escalation.created"
)

// MemberEvent is broadcast over the event bus so every replica can react
type MemberEvent struct {
	ID          string                 `json:"id"`
	Type        MemberEventType        `json:"type"`
	PhoneNumber string                 `json:"phone_number"`
	Reason      string                 `json:"reason,omitempty"`
	Origin      string                 `json:"origin,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// NewMemberEvent creates a new member event
func NewMemberEvent(eventType MemberEventType, phone, reason string, data map[string]interface{}) *MemberEvent {
	return &MemberEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		PhoneNumber: phone,
		Reason:      reason,
		Timestamp:   time.Now().UTC(),
		Data:        data,
	}
}
