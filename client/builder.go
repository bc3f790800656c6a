package client

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"artemis/config"
	"artemis/models"
)

// Builder turns user actions on a Session into relay calls.
// It holds no conversation state of its own.
type Builder struct {
	relay          RelayCaller
	user           map[string]string
	instructions   string
	analysisPrompt string
	model          string
}

func NewBuilder(relay RelayCaller, cfg config.ClientConfig) *Builder {
	prompt := cfg.AnalysisPrompt
	if prompt == "" {
		prompt = config.DefaultAnalysisPrompt
	}
	return &Builder{
		relay:          relay,
		user:           maps.Clone(cfg.User),
		instructions:   cfg.Instructions,
		analysisPrompt: prompt,
		model:          cfg.Model,
	}
}

// SetReport stores a newly uploaded report. A new report has not been sent yet.
func (b *Builder) SetReport(s *Session, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrNoReport
	}
	s.ReportText = text
	s.ReportSent = false
	return nil
}

// Analyze asks the assistant for a full analysis of the uploaded report.
// The report is always included and marked sent once a reply arrives.
func (b *Builder) Analyze(ctx context.Context, s *Session) (string, error) {
	if !s.HasReport() {
		return "", ErrNoReport
	}
	s.append(models.RoleUser, b.analysisPrompt)

	report := s.ReportText
	reply, err := b.send(ctx, b.context(s, &report, false))
	if err != nil {
		return "", err
	}
	s.append(models.RoleAssistant, reply)
	s.ReportSent = true
	return reply, nil
}

// Ask sends a follow-up question. Until Analyze has delivered the report, every
// question carries the full report text.
func (b *Builder) Ask(ctx context.Context, s *Session, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	s.append(models.RoleUser, question)

	var cc models.ConversationContext
	switch {
	case s.ReportSent:
		cc = b.context(s, nil, true)
	case s.HasReport():
		report := s.ReportText
		cc = b.context(s, &report, false)
	default:
		cc = b.context(s, nil, false)
	}

	reply, err := b.send(ctx, cc)
	if err != nil {
		return "", err
	}
	s.append(models.RoleAssistant, reply)
	return reply, nil
}

func (b *Builder) Reset(s *Session) {
	s.Reset()
}

func (b *Builder) context(s *Session, report *string, delivered bool) models.ConversationContext {
	cc := models.ConversationContext{
		User:            maps.Clone(b.user),
		History:         slices.Clone(s.History),
		Report:          report,
		ReportDelivered: delivered,
	}
	if cc.User == nil {
		cc.User = map[string]string{}
	}
	if b.instructions != "" {
		instructions := b.instructions
		cc.Instructions = &instructions
	}
	if b.model != "" {
		model := b.model
		cc.LLM = &model
	}
	return cc
}

func (b *Builder) send(ctx context.Context, cc models.ConversationContext) (string, error) {
	reply, err := b.relay.Send(ctx, cc)
	if err != nil {
		var relayErr *ClientRelayError
		if !errors.As(err, &relayErr) {
			err = &ClientRelayError{Err: err}
		}
		return "", err
	}
	return reply, nil
}
