package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"artemis/config"
	"artemis/models"
)

// Completer performs one chat completion and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, req models.CompletionRequest) (string, error)
}

// CompletionClient calls an OpenAI-compatible /chat/completions endpoint.
// It never retries; every failure comes back as an *UpstreamError.
type CompletionClient struct {
	client *resty.Client
	url    string
}

func NewCompletionClient(cfg config.RelayConfig, logger *logrus.Logger) (*CompletionClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GROQ_API_KEY is not set")
	}
	client := resty.New().
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if logger != nil {
		client.SetLogger(logger)
	}
	return &CompletionClient{
		client: client,
		url:    strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
	}, nil
}

func (c *CompletionClient) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	var result openai.ChatCompletionResponse
	var apiErr openai.ErrorResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post(c.url)
	if err != nil {
		status := 0
		if resp != nil && resp.RawResponse != nil {
			status = resp.StatusCode()
		}
		return "", &UpstreamError{Status: status, Err: err}
	}

	if !resp.IsSuccess() {
		if apiErr.Error != nil && apiErr.Error.Message != "" {
			return "", &UpstreamError{Status: resp.StatusCode(), Err: errors.New(apiErr.Error.Message)}
		}
		return "", &UpstreamError{
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("unexpected status, body=%s", truncate(resp.String(), 400)),
		}
	}

	if len(result.Choices) == 0 {
		return "", &UpstreamError{
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("no choices in response, body=%s", truncate(resp.String(), 400)),
		}
	}
	content := result.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &UpstreamError{Status: resp.StatusCode(), Err: errors.New("no content in response")}
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
