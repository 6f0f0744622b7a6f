// Package onboardingagent provides tests for the onboarding agent component.
//
// Test Coverage:
//   - Component factory with invalid configurations
//   - Chat message decoding (bare payload and envelope forms)
//   - Component lifecycle (Stop when stopped, Start without NATS)
//   - Component metadata (Meta, Health, DataFlow)
//   - Port configuration (InputPorts, OutputPorts)
//   - Config validation and defaults
//
// Note: Tests requiring NATS infrastructure (consuming from streams,
// publishing responses, KV-backed sessions) are integration tests and not
// included here.
package onboardingagent

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/onboard/engine"
)

func TestNewComponent_Unit(t *testing.T) {
	tests := []struct {
		name      string
		rawConfig json.RawMessage
	}{
		{
			name:      "invalid JSON",
			rawConfig: json.RawMessage(`{invalid json}`),
		},
		{
			name:      "threshold out of range",
			rawConfig: json.RawMessage(`{"profile_threshold":250}`),
		},
		{
			name:      "threshold negative",
			rawConfig: json.RawMessage(`{"profile_threshold":-5}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := component.Dependencies{
				Logger: slog.Default(),
			}

			if _, err := NewComponent(tt.rawConfig, deps); err == nil {
				t.Fatal("NewComponent() error = nil, want error")
			}
		})
	}
}

func TestDecodeChatMessage(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantErr  bool
		wantUser string
		wantText string
	}{
		{
			name:     "bare payload",
			data:     `{"user_id":"U1","text":"hello"}`,
			wantUser: "U1",
			wantText: "hello",
		},
		{
			name:     "message envelope",
			data:     `{"type":{"domain":"onboard","category":"chat-message","version":"v1"},"payload":{"user_id":"U2","text":"hi there"}}`,
			wantUser: "U2",
			wantText: "hi there",
		},
		{
			name:    "not JSON",
			data:    `hello world`,
			wantErr: true,
		},
		{
			name:    "missing user",
			data:    `{"text":"hello"}`,
			wantErr: true,
		},
		{
			name:    "missing text",
			data:    `{"user_id":"U1"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := decodeChatMessage([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeChatMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if payload.UserID != tt.wantUser {
				t.Errorf("UserID = %q, want %q", payload.UserID, tt.wantUser)
			}
			if payload.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", payload.Text, tt.wantText)
			}
		})
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	c := &Component{
		name:   "onboarding-agent",
		logger: slog.Default(),
		config: DefaultConfig(),
	}

	// Stop when already stopped is a no-op.
	if err := c.Stop(time.Second); err != nil {
		t.Error("Stop() should not error when already stopped")
	}
}

func TestComponent_StartWithoutNATSClient(t *testing.T) {
	c := &Component{
		name:   "onboarding-agent",
		logger: slog.Default(),
		config: DefaultConfig(),
	}

	if err := c.Start(context.Background()); err == nil {
		t.Error("Start() error = nil, want NATS client error")
	}
}

func TestComponent_Meta(t *testing.T) {
	c := &Component{config: DefaultConfig()}
	meta := c.Meta()

	if meta.Name != "onboarding-agent" {
		t.Errorf("Name = %q, want onboarding-agent", meta.Name)
	}
	if meta.Type != "processor" {
		t.Errorf("Type = %q, want processor", meta.Type)
	}
}

func TestComponent_Ports(t *testing.T) {
	c := &Component{config: DefaultConfig()}

	inputs := c.InputPorts()
	if len(inputs) != 1 {
		t.Fatalf("InputPorts() returned %d, want 1", len(inputs))
	}
	if inputs[0].Direction != component.DirectionInput {
		t.Errorf("input Direction = %v, want input", inputs[0].Direction)
	}

	outputs := c.OutputPorts()
	if len(outputs) != 2 {
		t.Fatalf("OutputPorts() returned %d, want 2", len(outputs))
	}

	// Nil ports yield empty slices, not panics.
	empty := &Component{config: Config{}}
	if got := len(empty.InputPorts()); got != 0 {
		t.Errorf("InputPorts() with nil config = %d, want 0", got)
	}
}

func TestComponent_Health(t *testing.T) {
	c := &Component{config: DefaultConfig()}

	health := c.Health()
	if health.Healthy {
		t.Error("stopped component reports healthy")
	}
	if health.Status != "stopped" {
		t.Errorf("Status = %q, want stopped", health.Status)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"missing stream", func(c *Config) { c.StreamName = "" }, true},
		{"missing consumer", func(c *Config) { c.ConsumerName = "" }, true},
		{"threshold too high", func(c *Config) { c.ProfileThreshold = 101 }, true},
		{"missing sources dir", func(c *Config) { c.SourcesDir = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestForwardedQuestionRoundTrip(t *testing.T) {
	fq := &ForwardedQuestion{
		UserID:   "U1",
		Question: "can I expense a standing desk?",
		AskedAt:  time.Now().UTC(),
	}

	data, err := json.Marshal(fq)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ForwardedQuestion
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.UserID != fq.UserID || decoded.Question != fq.Question {
		t.Errorf("round trip = %+v, want %+v", decoded, fq)
	}
}

func TestResponsePayloadValidation(t *testing.T) {
	valid := &engine.ResponsePayload{UserID: "U1", Text: "hi", Phase: "monitoring"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	missing := &engine.ResponsePayload{Text: "hi"}
	if err := missing.Validate(); err == nil {
		t.Error("Validate() error = nil for missing user ID")
	}
}
