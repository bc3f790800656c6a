package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"artemis/config"
	"artemis/models"
)

// RelayService turns a conversation context into a single upstream completion call.
// It keeps no state between requests and is safe for concurrent use.
type RelayService struct {
	cfg       config.RelayConfig
	completer Completer
	logger    logrus.FieldLogger
}

func NewRelayService(cfg config.RelayConfig, completer Completer, logger logrus.FieldLogger) *RelayService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RelayService{cfg: cfg, completer: completer, logger: logger}
}

// BuildMessages linearizes cc as system prompt, then history in order, then the
// report as a trailing user message when it has not been delivered yet.
func (s *RelayService) BuildMessages(cc models.ConversationContext) []openai.ChatCompletionMessage {
	system := s.cfg.SystemPrompt
	if cc.Instructions != nil {
		if extra := strings.TrimSpace(*cc.Instructions); extra != "" {
			system = strings.TrimRight(system, "\n") + "\n\nAdditional instructions: " + extra
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(cc.History)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    models.RoleSystem,
		Content: system,
	})
	for _, msg := range cc.History {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	if cc.IncludesReport() {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    models.RoleUser,
			Content: s.cfg.ReportLabel + *cc.Report,
		})
	}
	return messages
}

func (s *RelayService) resolveModel(cc models.ConversationContext) (string, error) {
	if cc.LLM == nil || *cc.LLM == "" {
		return s.cfg.Model, nil
	}
	if !s.cfg.AllowsModel(*cc.LLM) {
		return "", &SchemaError{
			Details: []string{fmt.Sprintf("llm: model %q is not available", *cc.LLM)},
			Err:     fmt.Errorf("model %q not in allow-list", *cc.LLM),
		}
	}
	return *cc.LLM, nil
}

// Handle validates cc, assembles the upstream message list and performs exactly one
// completion call. Errors are *SchemaError or *UpstreamError.
func (s *RelayService) Handle(ctx context.Context, cc models.ConversationContext) (string, error) {
	if err := ValidateContext(cc); err != nil {
		return "", err
	}
	model, err := s.resolveModel(cc)
	if err != nil {
		return "", err
	}

	req := models.CompletionRequest{
		Model:       model,
		Messages:    s.BuildMessages(cc),
		Temperature: s.cfg.Temperature,
	}
	s.logger.WithFields(logrus.Fields{
		"model":          model,
		"messages":       len(req.Messages),
		"history":        len(cc.History),
		"report_present": cc.IncludesReport(),
	}).Debug("calling upstream completion")

	reply, err := s.completer.Complete(ctx, req)
	if err != nil {
		var upErr *UpstreamError
		if !errors.As(err, &upErr) {
			err = &UpstreamError{Err: err}
		}
		return "", err
	}
	return reply, nil
}
