package entities

import (
	"strings"
	"time"
)

// Provider represents a clinician who performs in-home evaluations
type Provider struct {
	ID            int64     `json:"id" db:"id"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	PhoneNumber   string    `json:"phone_number" db:"phone_number"`
	Email         string    `json:"email" db:"email"`
	DateOfBirth   time.Time `json:"-" db:"date_of_birth"`
	Gender        string    `json:"gender" db:"gender"`
	StreetAddress string    `json:"street_address" db:"street_address"`
	City          string    `json:"city" db:"city"`
	State         string    `json:"state" db:"state"`
	ZipCode       string    `json:"zip_code" db:"zip_code"`
	Degree        string    `json:"degree" db:"degree"`
	Procedures    []string  `json:"procedures" db:"procedures"`
}

// DisplayName returns the provider name with credential, e.g. "Jane Smith, MD"
func (p *Provider) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if p.Degree == "" {
		return name
	}
	return name + ", " + p.Degree
}
