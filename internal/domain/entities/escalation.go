package entities

import "time"

// EscalationStatus represents the supervisor follow-up state
type EscalationStatus string

const (
	EscalationStatusEscalated   EscalationStatus = "escalated"
	EscalationStatusDeEscalated EscalationStatus = "de_escalated"
)

// Escalation is a request for a supervisor to call the number back
type Escalation struct {
	ID          int64            `json:"id" db:"id"`
	PhoneNumber string           `json:"phone_number" db:"phone_number"`
	Status      EscalationStatus `json:"status" db:"status"`
	Description string           `json:"description" db:"description"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}
