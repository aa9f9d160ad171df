package agent

import (
	"strings"

	"github.com/zatekoja/careline/internal/domain/providers"
	apperrors "github.com/zatekoja/careline/pkg/errors"
)

// SplitTranscript turns an oldest-first transcript that starts with an
// agent line into prior turns and the new caller input. Even indexes are
// agent turns, odd indexes are caller turns, and the last element is the
// input.
func SplitTranscript(transcript []string) ([]providers.Message, string, error) {
	if len(transcript) == 0 {
		return nil, "", apperrors.NewValidationError("transcript must contain at least one entry")
	}

	last := len(transcript) - 1
	history := make([]providers.Message, 0, last)
	for i, line := range transcript[:last] {
		role := providers.RoleAssistant
		if i%2 == 1 {
			role = providers.RoleUser
		}
		history = append(history, providers.Message{Role: role, Content: line})
	}

	input := strings.TrimSpace(transcript[last])
	if input == "" {
		return nil, "", apperrors.NewValidationError("the latest transcript entry is empty")
	}
	return history, input, nil
}
