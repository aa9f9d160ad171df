package evaluation

import "time"

// Category groups golden conversations by what the caller wants.
type Category string

const (
	CategoryIdentity   Category = "identity"   // e.g., name verification
	CategoryScheduling Category = "scheduling" // e.g., book or cancel a visit
	CategoryEmergency  Category = "emergency"  // e.g., "I'm having chest pains"
	CategoryFAQ        Category = "faq"        // e.g., "what is an in-home visit?"
	CategoryRecords    Category = "records"    // e.g., "change my email"
)

// ValidCategories returns all valid category values.
func ValidCategories() []Category {
	return []Category{CategoryIdentity, CategoryScheduling, CategoryEmergency, CategoryFAQ, CategoryRecords}
}

// IsValid checks if the category value is one of the defined constants.
func (c Category) IsValid() bool {
	switch c {
	case CategoryIdentity, CategoryScheduling, CategoryEmergency, CategoryFAQ, CategoryRecords:
		return true
	}
	return false
}

// GoldenConversation is a scripted call with expected agent behaviour.
type GoldenConversation struct {
	ID       string   `json:"id"`
	Phone    string   `json:"phone_number"`
	Category Category `json:"category"`
	Greeting string   `json:"greeting,omitempty"`
	// CallerTurns are replayed in order; the agent answers each one.
	CallerTurns   []string `json:"caller_turns"`
	ExpectedTools []string `json:"expected_tools"`
	// ReplyMustContain is checked against the final reply, case-insensitive,
	// any one phrase satisfying it.
	ReplyMustContain []string `json:"reply_must_contain"`
	// ReplyMustNotContain is checked against every reply.
	ReplyMustNotContain []string `json:"reply_must_not_contain"`
	Difficulty          string   `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single conversation.
type EvalResult struct {
	ConversationID string
	Category       Category
	Passed         bool
	Failures       []string
	ToolRecall     float64
	ToolCalls      []string
	Replies        []string
	Latency        time.Duration
}

// EvalSummary holds aggregate metrics across all golden conversations.
type EvalSummary struct {
	TotalConversations int
	Passed             int
	PassRate           float64
	AvgToolRecall      float64
	AvgLatency         time.Duration
	ByCategory         map[Category]*CategorySummary
	Results            []EvalResult
}

// CategorySummary holds metrics grouped by category.
type CategorySummary struct {
	Count         int
	Passed        int
	AvgToolRecall float64
}
