package engine

import (
	"fmt"
	"strings"
)

// ResponsePlan is the engine's reply to one inbound message: the text to
// send back to the user plus the phase the session landed in.
type ResponsePlan struct {
	// UserID is the user the response is addressed to.
	UserID string `json:"user_id"`

	// Text is the formatted response body.
	Text string `json:"text"`

	// Phase is the session phase after handling the message.
	Phase Phase `json:"phase"`
}

// statusMarker maps a task status to its list prefix.
func statusMarker(s TaskStatus) string {
	switch s {
	case TaskCompleted:
		return "[done]"
	case TaskInProgress:
		return "[in progress]"
	default:
		return "[ ]"
	}
}

// formatTaskList renders the numbered task list with per-task status
// markers, priorities, and due dates.
func formatTaskList(s *Session) string {
	var b strings.Builder
	open := s.OpenTaskCount()
	fmt.Fprintf(&b, "Your onboarding tasks (%d of %d remaining):\n", open, len(s.Tasks))
	for _, t := range s.Tasks {
		fmt.Fprintf(&b, "%s %d. %s (%s, due %s)\n",
			statusMarker(t.Status), t.Index, t.Title, t.Priority, t.DueAt.Format("Jan 2"))
	}
	b.WriteString("\nSay \"started task N\" or \"completed task N\" to update progress, or \"help with task N\" for details.")
	return b.String()
}

// formatTaskDetail renders the help view for a single task.
func formatTaskDetail(t *TaskInstance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task %d: %s\n", t.Index, t.Title)
	fmt.Fprintf(&b, "Status: %s | Priority: %s | Due: %s\n\n", t.Status, t.Priority, t.DueAt.Format("Monday, Jan 2"))
	b.WriteString(t.Description)
	if t.Instructions != "" {
		b.WriteString("\n\nHow to do it:\n")
		b.WriteString(t.Instructions)
	}
	if t.SuccessCriteria != "" {
		b.WriteString("\n\nDone when: ")
		b.WriteString(t.SuccessCriteria)
	}
	return b.String()
}

// formatProfileIncomplete asks the user to finish their profile, listing
// what is still missing.
func formatProfileIncomplete(score int, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome! Before I assign your onboarding tasks, please finish your profile. It is currently %d%% complete.\n", score)
	if len(missing) > 0 {
		b.WriteString("\nStill missing:\n")
		for _, field := range missing {
			fmt.Fprintf(&b, "- %s\n", field)
		}
	}
	b.WriteString("\nUpdate it in your profile settings, then tell me \"profile updated\".")
	return b.String()
}

// formatAssignment renders the welcome message with the freshly assigned
// task list.
func formatAssignment(s *Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your profile looks great! I've set up your onboarding plan for the %s track.\n\n", strings.ReplaceAll(s.Role, "_", " "))
	b.WriteString(formatTaskList(s))
	return b.String()
}

// formatCompletion congratulates the user when the last task is done.
func formatCompletion(s *Session) string {
	return fmt.Sprintf("Congratulations! You've completed all %d onboarding tasks. You're fully onboarded. I'm still around if you have questions about policies or anything else.", len(s.Tasks))
}

// formatUnavailable is the degraded response when a collaborator fails.
func formatUnavailable() string {
	return "I'm having trouble reaching the systems I need right now. Nothing was lost, please try again in a moment."
}
