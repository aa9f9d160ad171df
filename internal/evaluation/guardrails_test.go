package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardrails_ReplyLength(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{MaxReplyWords: 5})

	assert.Empty(t, g.Check("hi", "one two three four five", nil))
	assert.Len(t, g.Check("hi", "one two three four five six", nil), 1)
}

func TestGuardrails_DefaultLimit(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	long := strings.Repeat("word ", 101)
	violations := g.Check("hi", long, nil)

	assert.Equal(t, []string{"reply has 101 words (limit 100)"}, violations)
}

func TestGuardrails_Emergency(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	assert.NotEmpty(t, g.Check("I'm having Chest Pains", "Let me look up your appointments.", nil))
	assert.Empty(t, g.Check("I'm having chest pains", "Please hang up and dial 911 right away.", nil))
}

func TestGuardrails_BookingClaimNeedsTool(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	reply := "Great, your appointment is booked for Monday."
	assert.NotEmpty(t, g.Check("book me", reply, nil))
	assert.Empty(t, g.Check("book me", reply, []string{"schedule_appointment"}))
}
