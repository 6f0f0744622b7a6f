package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// maxExcerptLen caps how much of a document is quoted in an answer.
const maxExcerptLen = 1200

// Topic maps question keywords to a policy category.
type Topic struct {
	// Category matches Document.Category and appears in routing logs.
	Category string `json:"category" yaml:"category"`

	// Keywords are matched case-insensitively against the question.
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// DefaultTopics returns the built-in question routing table.
func DefaultTopics() []Topic {
	return []Topic{
		{Category: "working-hours", Keywords: []string{"working hours", "work hours", "core hours", "schedule", "flexible", "remote work", "work from home", "wfh"}},
		{Category: "leave", Keywords: []string{"leave", "vacation", "pto", "time off", "holiday", "sick", "parental", "maternity", "paternity"}},
		{Category: "dress-code", Keywords: []string{"dress", "attire", "clothing", "wear"}},
		{Category: "conduct", Keywords: []string{"harassment", "discrimination", "conduct", "ethics", "grievance", "complaint", "report a"}},
		{Category: "travel", Keywords: []string{"travel", "expense", "reimburse", "per diem", "business trip"}},
		{Category: "equipment", Keywords: []string{"laptop", "equipment", "hardware", "software request", "it support", "badge", "access card"}},
		{Category: "separation", Keywords: []string{"resignation", "notice period", "termination", "offboarding", "final pay"}},
		{Category: "orientation", Keywords: []string{"orientation", "first day", "first week", "onboarding schedule", "buddy"}},
	}
}

// Forwarder delivers questions the base cannot answer to a human channel.
type Forwarder interface {
	Forward(ctx context.Context, userID, question string) error
}

// Base answers policy questions by routing them to loaded documents via
// keyword topics. Unanswerable questions are forwarded. Safe for
// concurrent use; Reload swaps the document set atomically.
type Base struct {
	topics    []Topic
	forwarder Forwarder
	logger    *slog.Logger

	mu   sync.RWMutex
	docs []*Document
}

// NewBase builds a knowledge base. forwarder may be nil, in which case
// unanswerable questions only get the fallback text.
func NewBase(topics []Topic, forwarder Forwarder, logger *slog.Logger) (*Base, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}
	for i, topic := range topics {
		if topic.Category == "" {
			return nil, fmt.Errorf("topic %d: category is required", i)
		}
		if len(topic.Keywords) == 0 {
			return nil, fmt.Errorf("topic %s: at least one keyword is required", topic.Category)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{topics: topics, forwarder: forwarder, logger: logger}, nil
}

// SetDocuments replaces the document set.
func (b *Base) SetDocuments(docs []*Document) {
	b.mu.Lock()
	b.docs = docs
	b.mu.Unlock()

	b.logger.Info("Knowledge base updated", "documents", len(docs))
}

// DocumentCount returns the number of loaded documents.
func (b *Base) DocumentCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.docs)
}

// Answer resolves a policy question to a document excerpt. Questions that
// match no topic or no document are forwarded and get a holding reply.
func (b *Base) Answer(ctx context.Context, userID, text string) (string, error) {
	question := strings.ToLower(text)

	category := b.matchTopic(question)
	if category != "" {
		if doc := b.findDocument(category, question); doc != nil {
			b.logger.Debug("Policy question answered",
				"user_id", userID,
				"category", category,
				"document", doc.Path)
			return formatAnswer(doc), nil
		}
	}

	return b.fallback(ctx, userID, text), nil
}

// matchTopic returns the first topic category whose keyword appears in
// the question, or "" when nothing matches.
func (b *Base) matchTopic(question string) string {
	for _, topic := range b.topics {
		for _, kw := range topic.Keywords {
			if strings.Contains(question, kw) {
				return topic.Category
			}
		}
	}
	return ""
}

// findDocument picks the best document for a category. Documents in the
// matching category win; among those, keyword overlap with the question
// breaks ties.
func (b *Base) findDocument(category, question string) *Document {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var best *Document
	bestScore := 0
	for _, doc := range b.docs {
		score := 0
		if doc.Category == category {
			score += 10
		}
		lowered := strings.ToLower(doc.Title + " " + doc.Path)
		if strings.Contains(lowered, category) {
			score += 5
		}
		for _, word := range strings.Fields(question) {
			if len(word) < 4 {
				continue
			}
			if strings.Contains(strings.ToLower(doc.Markdown), word) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = doc
		}
	}

	// A bare word-overlap hit with no category signal is too weak.
	if bestScore < 5 {
		return nil
	}
	return best
}

// fallback forwards the question and returns the holding reply.
func (b *Base) fallback(ctx context.Context, userID, text string) string {
	if b.forwarder == nil {
		return "I don't have that in the policy handbook yet. Try rephrasing, or reach out to the People team directly."
	}

	if err := b.forwarder.Forward(ctx, userID, text); err != nil {
		b.logger.Warn("Failed to forward question",
			"user_id", userID,
			"error", err)
		return "I don't have that in the policy handbook, and I couldn't reach the People team just now. Please try again later."
	}

	return "I don't have that in the policy handbook yet, so I've passed your question to the People team. They'll get back to you."
}

// formatAnswer quotes the matched document, truncated at a line boundary.
func formatAnswer(doc *Document) string {
	body := doc.Markdown
	if len(body) > maxExcerptLen {
		cut := strings.LastIndex(body[:maxExcerptLen], "\n")
		if cut <= 0 {
			cut = maxExcerptLen
		}
		body = strings.TrimSpace(body[:cut]) + "\n\n(Truncated. See the full policy document for details.)"
	}
	return fmt.Sprintf("From %s:\n\n%s", doc.Title, body)
}
