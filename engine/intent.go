package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// IntentKind classifies what a user message is asking the engine to do.
type IntentKind string

const (
	// IntentGreet is a greeting ("hello", "hi").
	IntentGreet IntentKind = "greet"
	// IntentProfileUpdated reports that the user updated their profile.
	IntentProfileUpdated IntentKind = "profile_updated"
	// IntentStartTask reports that the user started a numbered task.
	IntentStartTask IntentKind = "start_task"
	// IntentCompleteTask reports that the user completed a numbered task.
	IntentCompleteTask IntentKind = "complete_task"
	// IntentHelpTask asks for details about a numbered task.
	IntentHelpTask IntentKind = "help_task"
	// IntentShowTasks asks for the current task list and progress.
	IntentShowTasks IntentKind = "show_tasks"
	// IntentUnknown is everything else; routed to the Q&A fallback.
	IntentUnknown IntentKind = "unknown"
)

// Intent is the parsed meaning of one user message. TaskIndex is only
// meaningful for the task-scoped kinds.
type Intent struct {
	Kind      IntentKind
	TaskIndex int
}

// Message grammar. Task patterns are checked before the broader
// show/greet patterns so "completed task 2" never reads as a greeting.
var (
	completeTaskRe = regexp.MustCompile(`(?i)\b(?:completed?|finished|done with)\s+task\s+(\d+)\b`)
	startTaskRe    = regexp.MustCompile(`(?i)\b(?:start(?:ed|ing)?|began|working on)\s+task\s+(\d+)\b`)
	helpTaskRe     = regexp.MustCompile(`(?i)\bhelp\s+(?:me\s+)?(?:with\s+)?task\s+(\d+)\b`)
	showTasksRe    = regexp.MustCompile(`(?i)\b(?:show|list|view|see|check)\b.*\b(?:tasks?|progress|status)\b`)
	greetRe        = regexp.MustCompile(`(?i)^\s*(?:hello|hi|hey|good\s+(?:morning|afternoon|evening))\b`)
)

// Parser converts free-text chat messages into closed Intent values.
// Parsing is deterministic and never fails; unmatched text is IntentUnknown.
type Parser struct{}

// NewParser constructs a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse classifies a single message. The zero TaskIndex means "no task".
func (p *Parser) Parse(text string) Intent {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Intent{Kind: IntentUnknown}
	}

	if m := completeTaskRe.FindStringSubmatch(trimmed); m != nil {
		return Intent{Kind: IntentCompleteTask, TaskIndex: mustAtoi(m[1])}
	}
	if m := startTaskRe.FindStringSubmatch(trimmed); m != nil {
		return Intent{Kind: IntentStartTask, TaskIndex: mustAtoi(m[1])}
	}
	if m := helpTaskRe.FindStringSubmatch(trimmed); m != nil {
		return Intent{Kind: IntentHelpTask, TaskIndex: mustAtoi(m[1])}
	}
	if showTasksRe.MatchString(trimmed) {
		return Intent{Kind: IntentShowTasks}
	}
	if isProfileUpdated(trimmed) {
		return Intent{Kind: IntentProfileUpdated}
	}
	if greetRe.MatchString(trimmed) {
		return Intent{Kind: IntentGreet}
	}

	return Intent{Kind: IntentUnknown}
}

// isProfileUpdated matches the handful of phrasings users actually send
// after editing their profile.
func isProfileUpdated(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "profile") {
		return false
	}
	return strings.Contains(lower, "updated") ||
		strings.Contains(lower, "update") && strings.Contains(lower, "done") ||
		strings.Contains(lower, "completed") ||
		strings.Contains(lower, "finished")
}

// mustAtoi converts regex-captured digits. The pattern guarantees digits,
// so conversion cannot fail; overflow clamps to 0 which fails index lookup.
func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
