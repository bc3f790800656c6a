package client

import (
	"slices"

	"github.com/google/uuid"

	"artemis/models"
)

// Session is the per-user conversation state of a chat front end.
// Only History and ReportSent change across relay calls.
type Session struct {
	ID         string           `json:"id"`
	History    []models.Message `json:"history"`
	ReportText string           `json:"report_text,omitempty"`
	ReportSent bool             `json:"report_sent"`
}

func NewSession() *Session {
	return &Session{
		ID:      uuid.New().String(),
		History: []models.Message{},
	}
}

// Reset replaces the session with an empty one. The id and the uploaded report
// survive so the same report can be analyzed again.
func (s *Session) Reset() {
	*s = Session{
		ID:         s.ID,
		ReportText: s.ReportText,
		History:    []models.Message{},
	}
}

func (s *Session) HasReport() bool {
	return s.ReportText != ""
}

func (s *Session) Clone() *Session {
	cp := *s
	cp.History = slices.Clone(s.History)
	if cp.History == nil {
		cp.History = []models.Message{}
	}
	return &cp
}

func (s *Session) append(role, content string) {
	s.History = append(s.History, models.NewMessage(role, content))
}
