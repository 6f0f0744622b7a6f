package engine

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	registrations := []*component.PayloadRegistration{
		{
			Domain:      "onboard",
			Category:    "chat-message",
			Version:     "v1",
			Description: "Inbound chat message from an onboarding user",
			Factory:     func() any { return &ChatMessagePayload{} },
		},
		{
			Domain:      "onboard",
			Category:    "chat-response",
			Version:     "v1",
			Description: "Outbound onboarding response to a user",
			Factory:     func() any { return &ResponsePayload{} },
		},
		{
			Domain:      "onboard",
			Category:    "reminder",
			Version:     "v1",
			Description: "Task reminder or escalation notification",
			Factory:     func() any { return &ReminderPayload{} },
		},
	}
	for _, reg := range registrations {
		if err := component.RegisterPayload(reg); err != nil {
			panic("failed to register " + reg.Category + " payload: " + err.Error())
		}
	}
}

// ChatMessageType is the message type for inbound chat messages.
var ChatMessageType = message.Type{Domain: "onboard", Category: "chat-message", Version: "v1"}

// ResponseType is the message type for outbound responses.
var ResponseType = message.Type{Domain: "onboard", Category: "chat-response", Version: "v1"}

// ReminderType is the message type for reminder notifications.
var ReminderType = message.Type{Domain: "onboard", Category: "reminder", Version: "v1"}

// ChatMessagePayload implements message.Payload for inbound user messages.
type ChatMessagePayload struct {
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	Channel    string    `json:"channel,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Schema returns the message type for Payload interface.
func (p *ChatMessagePayload) Schema() message.Type { return ChatMessageType }

// Validate validates the payload for Payload interface.
func (p *ChatMessagePayload) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.Text == "" {
		return errors.New("message text is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *ChatMessagePayload) MarshalJSON() ([]byte, error) {
	type Alias ChatMessagePayload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ChatMessagePayload) UnmarshalJSON(data []byte) error {
	type Alias ChatMessagePayload
	return json.Unmarshal(data, (*Alias)(p))
}

// ResponsePayload implements message.Payload for outbound responses.
type ResponsePayload struct {
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

// Schema returns the message type for Payload interface.
func (p *ResponsePayload) Schema() message.Type { return ResponseType }

// Validate validates the payload for Payload interface.
func (p *ResponsePayload) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.Text == "" {
		return errors.New("response text is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *ResponsePayload) MarshalJSON() ([]byte, error) {
	type Alias ResponsePayload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ResponsePayload) UnmarshalJSON(data []byte) error {
	type Alias ResponsePayload
	return json.Unmarshal(data, (*Alias)(p))
}

// ReminderPayload implements message.Payload for reminder and escalation
// notifications emitted by the reminder scheduler.
type ReminderPayload struct {
	UserID    string    `json:"user_id"`
	TaskIndex int       `json:"task_index"`
	TaskTitle string    `json:"task_title"`
	Stage     string    `json:"stage"`
	DueAt     time.Time `json:"due_at"`
	FiredAt   time.Time `json:"fired_at"`

	// ManagerEmail is set only on escalation-stage payloads.
	ManagerEmail string `json:"manager_email,omitempty"`
}

// Schema returns the message type for Payload interface.
func (p *ReminderPayload) Schema() message.Type { return ReminderType }

// Validate validates the payload for Payload interface.
func (p *ReminderPayload) Validate() error {
	if p.UserID == "" {
		return errors.New("user ID is required")
	}
	if p.TaskIndex < 1 {
		return errors.New("task index must be positive")
	}
	switch ReminderStage(p.Stage) {
	case StageFirstReminder, StageSecondReminder, StageEscalation:
	default:
		return errors.New("unknown reminder stage: " + p.Stage)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *ReminderPayload) MarshalJSON() ([]byte, error) {
	type Alias ReminderPayload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ReminderPayload) UnmarshalJSON(data []byte) error {
	type Alias ReminderPayload
	return json.Unmarshal(data, (*Alias)(p))
}
