package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zatekoja/careline/pkg/utils"
)

// LoadGoldenConversations reads and parses a golden conversation set from a JSON file.
func LoadGoldenConversations(path string) ([]GoldenConversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden conversations file: %w", err)
	}

	var conversations []GoldenConversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, fmt.Errorf("failed to parse golden conversations: %w", err)
	}

	return conversations, nil
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// ValidateGoldenConversations checks that every conversation has the
// required fields and valid values.
func ValidateGoldenConversations(conversations []GoldenConversation) error {
	seen := make(map[string]struct{}, len(conversations))

	for i, c := range conversations {
		if c.ID == "" {
			return fmt.Errorf("conversation at index %d: missing id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("conversation at index %d: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = struct{}{}

		if len(c.CallerTurns) == 0 {
			return fmt.Errorf("conversation %q: no caller turns", c.ID)
		}
		for j, turn := range c.CallerTurns {
			if turn == "" {
				return fmt.Errorf("conversation %q: caller turn %d is empty", c.ID, j)
			}
		}
		if _, err := utils.NormalizePhone(c.Phone); err != nil {
			return fmt.Errorf("conversation %q: %w", c.ID, err)
		}
		if !c.Category.IsValid() {
			return fmt.Errorf("conversation %q: invalid category %q", c.ID, c.Category)
		}
		if !validDifficulties[c.Difficulty] {
			return fmt.Errorf("conversation %q: invalid difficulty %q (must be easy/medium/hard)", c.ID, c.Difficulty)
		}
	}

	return nil
}
