package models

import (
	"github.com/sashabaranov/go-openai"
)

// CompletionRequest is the body sent to the upstream chat-completions endpoint.
// Temperature is always serialized, including zero.
type CompletionRequest struct {
	Model       string                         `json:"model"`
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	Temperature float32                        `json:"temperature"`
}
