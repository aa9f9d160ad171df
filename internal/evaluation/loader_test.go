package evaluation

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGoldenConversations_ValidFile(t *testing.T) {
	content := `[
		{"id": "c1", "phone_number": "215-932-4488", "category": "identity", "caller_turns": ["David Jones"], "expected_tools": [], "difficulty": "easy"},
		{"id": "c2", "phone_number": "215-932-4488", "category": "emergency", "caller_turns": ["David Jones", "I'm having chest pains"], "reply_must_contain": ["911"], "difficulty": "easy"}
	]`
	path := writeTempFile(t, content)

	conversations, err := LoadGoldenConversations(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}
	if conversations[0].Category != CategoryIdentity {
		t.Errorf("expected category identity, got %s", conversations[0].Category)
	}
	if len(conversations[1].CallerTurns) != 2 {
		t.Errorf("expected 2 caller turns, got %d", len(conversations[1].CallerTurns))
	}
	if conversations[1].ReplyMustContain[0] != "911" {
		t.Errorf("expected reply phrase 911, got %v", conversations[1].ReplyMustContain)
	}
}

func TestLoadGoldenConversations_InvalidFile(t *testing.T) {
	_, err := LoadGoldenConversations("/nonexistent/path.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadGoldenConversations_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, `not valid json`)
	_, err := LoadGoldenConversations(path)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadGoldenConversations_ShippedSet(t *testing.T) {
	conversations, err := LoadGoldenConversations(filepath.Join("..", "..", "config", "golden_conversations.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateGoldenConversations(conversations); err != nil {
		t.Errorf("shipped golden conversations are invalid: %v", err)
	}
}

func TestCategory_Validation(t *testing.T) {
	for _, c := range ValidCategories() {
		if !c.IsValid() {
			t.Errorf("Category(%q).IsValid() = false, want true", c)
		}
	}
	for _, c := range []Category{"unknown", ""} {
		if c.IsValid() {
			t.Errorf("Category(%q).IsValid() = true, want false", c)
		}
	}
}

func TestValidateGoldenConversations_Errors(t *testing.T) {
	valid := GoldenConversation{ID: "c1", Phone: "215-932-4488", Category: CategoryFAQ, CallerTurns: []string{"hi"}, Difficulty: "easy"}

	tests := []struct {
		name   string
		mutate func(*GoldenConversation)
	}{
		{"missing id", func(c *GoldenConversation) { c.ID = "" }},
		{"no turns", func(c *GoldenConversation) { c.CallerTurns = nil }},
		{"empty turn", func(c *GoldenConversation) { c.CallerTurns = []string{"hi", ""} }},
		{"bad phone", func(c *GoldenConversation) { c.Phone = "555-1234" }},
		{"bad category", func(c *GoldenConversation) { c.Category = "billing" }},
		{"bad difficulty", func(c *GoldenConversation) { c.Difficulty = "impossible" }},
	}
	for _, tt := range tests {
		c := valid
		tt.mutate(&c)
		if err := ValidateGoldenConversations([]GoldenConversation{c}); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestValidateGoldenConversations_DuplicateIDs(t *testing.T) {
	c := GoldenConversation{ID: "c1", Phone: "215-932-4488", Category: CategoryFAQ, CallerTurns: []string{"hi"}, Difficulty: "easy"}
	if err := ValidateGoldenConversations([]GoldenConversation{c, c}); err == nil {
		t.Error("expected validation error for duplicate IDs")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}
