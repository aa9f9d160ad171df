package evaluation

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestRecall_AllExpectedCalled(t *testing.T) {
	got := Recall([]string{"schedule_appointment"}, []string{"get_member_information", "schedule_appointment"})
	if !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestRecall_SomeMissing(t *testing.T) {
	got := Recall([]string{"get_member_information", "escalate_call"}, []string{"get_member_information"})
	if !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestRecall_NothingCalled(t *testing.T) {
	got := Recall([]string{"escalate_call"}, nil)
	if !almostEqual(got, 0.0) {
		t.Errorf("expected 0.0, got %f", got)
	}
}

func TestRecall_NothingExpected(t *testing.T) {
	got := Recall(nil, []string{"escalate_call"})
	if !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestRecall_DuplicateCallsCountOnce(t *testing.T) {
	got := Recall([]string{"a", "b"}, []string{"a", "a", "a"})
	if !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		text    string
		phrases []string
		want    bool
	}{
		{"Please dial 911.", []string{"911"}, true},
		{"No provider AVAILABLE then.", []string{"not available", "no provider available"}, true},
		{"Your appointment is set.", []string{"sorry"}, false},
		{"anything", nil, true},
	}
	for _, tt := range tests {
		if got := ContainsAny(tt.text, tt.phrases); got != tt.want {
			t.Errorf("ContainsAny(%q, %v) = %v, want %v", tt.text, tt.phrases, got, tt.want)
		}
	}
}

func TestWordCount(t *testing.T) {
	if got := WordCount("  hello   there\nfriend "); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := WordCount(""); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
