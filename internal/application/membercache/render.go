package membercache

import (
	"strings"

	"github.com/zatekoja/careline/internal/domain/entities"
)

// Render formats a member and their appointments (newest first) as the
// plain-text block embedded in the system prompt.
func Render(member *entities.Member, appointments []*entities.AppointmentDetail) string {
	var b strings.Builder

	b.WriteString("Name: " + member.FullName() + "\n")
	b.WriteString("Phone number: " + member.PhoneNumber + "\n")
	if !member.DateOfBirth.IsZero() {
		b.WriteString("Date of birth: " + member.DateOfBirth.Format("January 2, 2006") + "\n")
	}
	b.WriteString("Gender: " + member.Gender + "\n")
	b.WriteString("Address: " + member.Address() + "\n")
	b.WriteString("Email: " + member.Email + "\n")

	if len(appointments) == 0 {
		b.WriteString("Appointments: none on file")
		return b.String()
	}

	b.WriteString("Appointments (most recent first):")
	for _, appt := range appointments {
		b.WriteString("\n- " + appt.Describe())
	}
	return b.String()
}
