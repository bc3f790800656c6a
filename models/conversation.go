package models

import (
	"encoding/json"
	"errors"

	"github.com/sashabaranov/go-openai"
)

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Message is one turn of the conversation. Order in a history slice is chronological.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// UnmarshalJSON requires the content field to be present. An empty string is allowed.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Content == nil {
		return errors.New("history: message content is required")
	}
	*m = Message{Role: raw.Role, Content: *raw.Content}
	return nil
}

// ConversationContext is the object exchanged between the chat client and the relay.
// It is built fresh for every call.
type ConversationContext struct {
	User         map[string]string `json:"user" binding:"required"`
	History      []Message         `json:"history" binding:"required,dive"`
	Instructions *string           `json:"instructions"`
	Report       *string           `json:"report"`

	// ReportDelivered tells the relay the report already reached the assistant
	// in an earlier call, so Report is ignored even when present.
	ReportDelivered bool `json:"report_delivered"`

	// LLM optionally overrides the relay's default model.
	LLM *string `json:"llm,omitempty"`
}

// IncludesReport reports whether the report should be forwarded upstream.
func (c ConversationContext) IncludesReport() bool {
	return c.Report != nil && !c.ReportDelivered
}

type Reply struct {
	Reply string `json:"reply"`
}

func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}
