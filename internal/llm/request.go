package llm

import (
	"fmt"
	"strings"
)

// Role is the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat completion request
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral generation request.
// Model overrides Tier when set.
type Request struct {
	Messages      []Message
	Model         string
	Tier          ModelTier
	MaxTokens     int
	Temperature   float32
	StopSequences []string
	// JSON asks the provider for a JSON object response when it supports one
	JSON bool
}

// NewRequest builds a system + user request for a tier
func NewRequest(tier ModelTier, system, user string) Request {
	var msgs []Message
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: user})
	return Request{Messages: msgs, Tier: tier}
}

// Validate rejects requests that no provider would accept. It never makes a call.
func (r Request) Validate() error {
	if len(r.Messages) == 0 {
		return &RequestError{Message: "request has no messages"}
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		case "":
			return &RequestError{Message: fmt.Sprintf("message %d is missing a role", i)}
		default:
			return &RequestError{Message: fmt.Sprintf("message %d has unknown role %q", i, m.Role)}
		}
		if strings.TrimSpace(m.Content) == "" {
			return &RequestError{Message: fmt.Sprintf("message %d (%s) is missing content", i, m.Role)}
		}
	}
	if r.MaxTokens < 0 {
		return &RequestError{Message: "max tokens must not be negative"}
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return &RequestError{Message: fmt.Sprintf("temperature %.2f is outside [0, 2]", r.Temperature)}
	}
	return nil
}

// resolve fills unset sampling parameters from the provider config
func (r Request) resolve(cfg *Config) Request {
	if r.Model == "" {
		r.Model = cfg.GetModel(r.Tier)
	}
	if r.MaxTokens == 0 {
		r.MaxTokens = cfg.MaxTokens
	}
	if r.Temperature == 0 {
		r.Temperature = cfg.Temperature
	}
	return r
}

// splitSystem separates system messages from the conversation turns
func splitSystem(msgs []Message) (system string, turns []Message) {
	var parts []string
	for _, m := range msgs {
		if m.Role == RoleSystem {
			parts = append(parts, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(parts, "\n\n"), turns
}
