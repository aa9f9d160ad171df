package entities

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout and TimeLayout are the wire formats for naive store dates and times
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Member represents a health-plan member who calls the care line
type Member struct {
	ID            int64     `json:"id" db:"id"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	PhoneNumber   string    `json:"phone_number" db:"phone_number"`
	DateOfBirth   time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender        string    `json:"gender" db:"gender"`
	StreetAddress string    `json:"street_address" db:"street_address"`
	City          string    `json:"city" db:"city"`
	State         string    `json:"state" db:"state"`
	ZipCode       string    `json:"zip_code" db:"zip_code"`
	Email         string    `json:"email" db:"email"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// FullName returns "First Last"
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Address returns the single-line postal address
func (m *Member) Address() string {
	return fmt.Sprintf("%s, %s, %s %s", m.StreetAddress, m.City, m.State, m.ZipCode)
}

// MemberUpdate is a partial update of the member fields callers may change
// over the phone. Nil fields are left untouched.
type MemberUpdate struct {
	Email         *string    `json:"email,omitempty"`
	StreetAddress *string    `json:"street_address,omitempty"`
	City          *string    `json:"city,omitempty"`
	State         *string    `json:"state,omitempty"`
	ZipCode       *string    `json:"zip_code,omitempty"`
	Gender        *string    `json:"gender,omitempty"`
	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
}

// IsEmpty reports whether the update changes nothing
func (u *MemberUpdate) IsEmpty() bool {
	return u == nil || len(u.Columns()) == 0
}

// Columns returns the column/value pairs to write
func (u *MemberUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Email != nil {
		cols["email"] = *u.Email
	}
	if u.StreetAddress != nil {
		cols["street_address"] = *u.StreetAddress
	}
	if u.City != nil {
		cols["city"] = *u.City
	}
	if u.State != nil {
		cols["state"] = *u.State
	}
	if u.ZipCode != nil {
		cols["zip_code"] = *u.ZipCode
	}
	if u.Gender != nil {
		cols["gender"] = *u.Gender
	}
	if u.DateOfBirth != nil {
		cols["date_of_birth"] = u.DateOfBirth.Format(DateLayout)
	}
	return cols
}
