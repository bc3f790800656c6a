package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"artemis/models"
)

// RelayCaller sends a conversation context to the relay and returns the reply.
type RelayCaller interface {
	Send(ctx context.Context, cc models.ConversationContext) (string, error)
}

// RelayClient posts conversation contexts to the relay endpoint with resty.
type RelayClient struct {
	client *resty.Client
	url    string
}

func NewRelayClient(url string, timeout time.Duration) *RelayClient {
	client := resty.New().SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &RelayClient{client: client, url: url}
}

type relayErrorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func (c *RelayClient) Send(ctx context.Context, cc models.ConversationContext) (string, error) {
	var result models.Reply
	var errBody relayErrorBody

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(cc).
		SetResult(&result).
		SetError(&errBody).
		Post(c.url)
	if err != nil {
		return "", &ClientRelayError{Err: err}
	}
	if !resp.IsSuccess() {
		msg := errBody.Error
		if msg == "" {
			msg = resp.Status()
		}
		if len(errBody.Details) > 0 {
			msg = fmt.Sprintf("%s: %v", msg, errBody.Details)
		}
		return "", &ClientRelayError{Status: resp.StatusCode(), Err: errors.New(msg)}
	}
	if result.Reply == "" {
		return "", &ClientRelayError{Status: resp.StatusCode(), Err: errors.New("response has no reply")}
	}
	return result.Reply, nil
}
