package entities

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// SlotStatus represents whether a provider's time window can be booked
type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "available"
	SlotStatusUnavailable SlotStatus = "unavailable"
)

// Appointment is a booked in-home visit. Date and Time are naive wall-clock
// values; only their date and clock parts are meaningful.
type Appointment struct {
	ID            int64             `json:"id" db:"id"`
	MemberID      int64             `json:"member_id" db:"member_id"`
	ProviderID    int64             `json:"provider_id" db:"provider_id"`
	MemberPhone   string            `json:"member_phone" db:"member_phone"`
	Date          time.Time         `json:"date" db:"date"`
	Time          time.Time         `json:"time" db:"time"`
	StreetAddress string            `json:"street_address" db:"street_address"`
	City          string            `json:"city" db:"city"`
	State         string            `json:"state" db:"state"`
	ZipCode       string            `json:"zip_code" db:"zip_code"`
	Status        AppointmentStatus `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// AppointmentDetail is an appointment joined with its provider's name
type AppointmentDetail struct {
	Appointment
	ProviderFirstName string `json:"provider_first_name"`
	ProviderLastName  string `json:"provider_last_name"`
	ProviderDegree    string `json:"provider_degree"`
}

// Describe renders the appointment as one line for the agent's context.
func (d *AppointmentDetail) Describe() string {
	provider := strings.TrimSpace(d.ProviderFirstName + " " + d.ProviderLastName)
	if d.ProviderDegree != "" {
		provider += ", " + d.ProviderDegree
	}
	return fmt.Sprintf(
		"Appointment %d with %s on %s at %s, %s, %s, %s %s (status: %s)",
		d.ID,
		provider,
		d.Date.Format("Monday, January 2, 2006"),
		d.Time.Format("03:04 PM"),
		d.StreetAddress, d.City, d.State, d.ZipCode,
		d.Status,
	)
}

// AvailabilitySlot represents a provider's bookable window on a date
type AvailabilitySlot struct {
	ID         int64      `json:"id" db:"id"`
	ProviderID int64      `json:"provider_id" db:"provider_id"`
	Date       time.Time  `json:"date" db:"date"`
	StartTime  time.Time  `json:"start_time" db:"start_time"`
	EndTime    time.Time  `json:"end_time" db:"end_time"`
	Status     SlotStatus `json:"status" db:"status"`
}

// BookingRequest identifies the member and the requested wall-clock time
type BookingRequest struct {
	MemberPhone string
	Date        time.Time
	Time        time.Time
}

// DateString returns the request date as YYYY-MM-DD
func (r BookingRequest) DateString() string {
	return r.Date.Format(DateLayout)
}

// TimeString returns the request time as HH:MM:SS
func (r BookingRequest) TimeString() string {
	return r.Time.Format("15:04:05")
}

// CancellationResult reports a committed cancellation. SlotRestored is false
// when no matching availability row could be released.
type CancellationResult struct {
	AppointmentID int64
	ProviderID    int64
	SlotRestored  bool
}
