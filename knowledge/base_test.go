package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// Test Coverage:
// - Keyword routing to the right category and document
// - Fallback forwarding when nothing matches
// - Forwarder failure produces a distinct holding reply
// - Topic validation

type recordingForwarder struct {
	err       error
	forwarded []string
}

func (f *recordingForwarder) Forward(_ context.Context, _ string, question string) error {
	f.forwarded = append(f.forwarded, question)
	return f.err
}

func testDocs() []*Document {
	return []*Document{
		{
			Path:     "working-hours/core-hours.md",
			Category: "working-hours",
			Title:    "Working Hours Policy",
			Markdown: "# Working Hours Policy\n\nCore hours are 10am to 4pm local time. Outside core hours, schedule flexibly with your team.",
		},
		{
			Path:     "leave/vacation.md",
			Category: "leave",
			Title:    "Vacation and Leave",
			Markdown: "# Vacation and Leave\n\nEmployees accrue 25 days of paid vacation per year. Request time off through the HR portal.",
		},
		{
			Path:     "general/misc.md",
			Category: "general",
			Title:    "Miscellaneous",
			Markdown: "# Miscellaneous\n\nAssorted notes.",
		},
	}
}

func testBase(t *testing.T, forwarder Forwarder) *Base {
	t.Helper()
	base, err := NewBase(DefaultTopics(), forwarder, slog.Default())
	if err != nil {
		t.Fatalf("NewBase() error = %v", err)
	}
	base.SetDocuments(testDocs())
	return base
}

func TestBaseAnswerRouting(t *testing.T) {
	tests := []struct {
		name     string
		question string
		wantDoc  string
	}{
		{"working hours", "what are the working hours here?", "Working Hours Policy"},
		{"core hours synonym", "do we have core hours?", "Working Hours Policy"},
		{"vacation", "how much vacation do I get?", "Vacation and Leave"},
		{"pto synonym", "what's the PTO policy?", "Vacation and Leave"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := testBase(t, nil)
			answer, err := base.Answer(context.Background(), "U1", tt.question)
			if err != nil {
				t.Fatalf("Answer() error = %v", err)
			}
			if !strings.Contains(answer, tt.wantDoc) {
				t.Errorf("Answer(%q) = %q, want %q quoted", tt.question, answer, tt.wantDoc)
			}
		})
	}
}

func TestBaseAnswerFallbackForwards(t *testing.T) {
	forwarder := &recordingForwarder{}
	base := testBase(t, forwarder)

	answer, err := base.Answer(context.Background(), "U1", "can I bring my ferret to the office?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !strings.Contains(answer, "People team") {
		t.Errorf("fallback = %q, want forwarding notice", answer)
	}
	if len(forwarder.forwarded) != 1 {
		t.Fatalf("forwarded %d questions, want 1", len(forwarder.forwarded))
	}
	if forwarder.forwarded[0] != "can I bring my ferret to the office?" {
		t.Errorf("forwarded question = %q", forwarder.forwarded[0])
	}
}

func TestBaseAnswerTopicMatchWithoutDocument(t *testing.T) {
	// Topic matches but no document covers it: still a forward, not a
	// misleading excerpt.
	forwarder := &recordingForwarder{}
	base := testBase(t, forwarder)

	answer, err := base.Answer(context.Background(), "U1", "what is the dress code?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if strings.Contains(answer, "From ") {
		t.Errorf("answer quotes a document despite no dress-code doc: %q", answer)
	}
	if len(forwarder.forwarded) != 1 {
		t.Errorf("forwarded %d questions, want 1", len(forwarder.forwarded))
	}
}

func TestBaseAnswerForwarderFailure(t *testing.T) {
	forwarder := &recordingForwarder{err: errors.New("nats down")}
	base := testBase(t, forwarder)

	answer, err := base.Answer(context.Background(), "U1", "random question nobody can answer")
	if err != nil {
		t.Fatalf("Answer() error = %v, want holding reply", err)
	}
	if !strings.Contains(answer, "try again") {
		t.Errorf("answer = %q, want try-again holding reply", answer)
	}
}

func TestBaseAnswerNoForwarder(t *testing.T) {
	base := testBase(t, nil)

	answer, err := base.Answer(context.Background(), "U1", "completely unrelated question")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !strings.Contains(answer, "People team") {
		t.Errorf("answer = %q, want direct-contact suggestion", answer)
	}
}

func TestFormatAnswerTruncates(t *testing.T) {
	doc := &Document{
		Title:    "Long Policy",
		Markdown: strings.Repeat("line of policy text\n", 200),
	}

	answer := formatAnswer(doc)
	if len(answer) > maxExcerptLen+200 {
		t.Errorf("answer length = %d, want truncated near %d", len(answer), maxExcerptLen)
	}
	if !strings.Contains(answer, "Truncated") {
		t.Error("truncated answer should say so")
	}
}

func TestNewBaseValidation(t *testing.T) {
	tests := []struct {
		name   string
		topics []Topic
	}{
		{"empty topics", nil},
		{"missing category", []Topic{{Category: "", Keywords: []string{"x"}}}},
		{"missing keywords", []Topic{{Category: "leave", Keywords: nil}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBase(tt.topics, nil, nil); err == nil {
				t.Error("NewBase() error = nil, want validation error")
			}
		})
	}
}
