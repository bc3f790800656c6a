package controllers

import (
	_ "embed"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"artemis/client"
	"artemis/middlewares"
	"artemis/models"
	"artemis/sessions"
)

const SessionCookie = "artemis_session"

//go:embed assets/index.html
var indexHTML []byte

// UIController serves the browser chat. Each browser holds a session id cookie;
// the session itself lives in the store.
type UIController struct {
	builder *client.Builder
	store   sessions.Store
	ttl     time.Duration
}

func NewUIController(builder *client.Builder, store sessions.Store, ttl time.Duration) *UIController {
	return &UIController{builder: builder, store: store, ttl: ttl}
}

type sessionView struct {
	ID             string           `json:"id"`
	History        []models.Message `json:"history"`
	ReportUploaded bool             `json:"report_uploaded"`
	ReportSent     bool             `json:"report_sent"`
}

func viewOf(s *client.Session) sessionView {
	return sessionView{
		ID:             s.ID,
		History:        s.History,
		ReportUploaded: s.HasReport(),
		ReportSent:     s.ReportSent,
	}
}

func (u *UIController) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (u *UIController) GetSession(c *gin.Context) {
	s, ok := u.loadSession(c)
	if !ok {
		return
	}
	if !u.saveSession(c, s) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": viewOf(s)})
}

func (u *UIController) UploadReport(c *gin.Context) {
	s, ok := u.loadSession(c)
	if !ok {
		return
	}

	text, err := readReport(c)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, client.ErrUnsupportedReport):
			status = http.StatusUnsupportedMediaType
		case errors.Is(err, client.ErrReportTooLarge):
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if err := u.builder.SetReport(s, text); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "report is empty"})
		return
	}
	if !u.saveSession(c, s) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report uploaded!", "session": viewOf(s)})
}

func (u *UIController) Analyze(c *gin.Context) {
	s, ok := u.loadSession(c)
	if !ok {
		return
	}
	reply, err := u.builder.Analyze(c.Request.Context(), s)
	u.respond(c, s, reply, err)
}

func (u *UIController) Ask(c *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	s, ok := u.loadSession(c)
	if !ok {
		return
	}
	reply, err := u.builder.Ask(c.Request.Context(), s, req.Question)
	u.respond(c, s, reply, err)
}

func (u *UIController) Reset(c *gin.Context) {
	s, ok := u.loadSession(c)
	if !ok {
		return
	}
	u.builder.Reset(s)
	if !u.saveSession(c, s) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat history has been reset!", "session": viewOf(s)})
}

// respond saves the session whatever the outcome: a failed relay call still
// leaves the user message in the history.
func (u *UIController) respond(c *gin.Context, s *client.Session, reply string, err error) {
	switch {
	case errors.Is(err, client.ErrNoReport):
		c.JSON(http.StatusBadRequest, gin.H{"error": "upload a report first"})
		return
	case errors.Is(err, client.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is empty"})
		return
	}

	if !u.saveSession(c, s) {
		return
	}

	var relayErr *client.ClientRelayError
	if errors.As(err, &relayErr) {
		middlewares.LoggerFrom(c).WithError(err).Warn("relay call failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Failed to contact MCP server: " + relayErr.Error(),
			"session": viewOf(s),
		})
		return
	}
	if err != nil {
		middlewares.LoggerFrom(c).WithError(err).Error("chat action failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "session": viewOf(s)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply, "session": viewOf(s)})
}

func (u *UIController) loadSession(c *gin.Context) (*client.Session, bool) {
	id, err := c.Cookie(SessionCookie)
	if err == nil && id != "" {
		s, err := u.store.Load(c.Request.Context(), id)
		switch {
		case err == nil:
			return s, true
		case errors.Is(err, sessions.ErrCorrupt):
			log := middlewares.LoggerFrom(c).WithError(err).WithField("session_id", id)
			log.Warn("discarding unreadable session")
			if err := u.store.Delete(c.Request.Context(), id); err != nil {
				log.WithError(err).Error("delete session")
			}
		case !errors.Is(err, sessions.ErrNotFound):
			middlewares.LoggerFrom(c).WithError(err).Error("load session")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
			return nil, false
		}
	}
	return client.NewSession(), true
}

func (u *UIController) saveSession(c *gin.Context, s *client.Session) bool {
	if err := u.store.Save(c.Request.Context(), s); err != nil {
		if errors.Is(err, sessions.ErrTooLarge) {
			middlewares.LoggerFrom(c).WithError(err).Warn("save session")
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "conversation is too large to keep; reset or upload a smaller report"})
			return false
		}
		middlewares.LoggerFrom(c).WithError(err).Error("save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return false
	}
	maxAge := 0
	if u.ttl > 0 {
		maxAge = int(u.ttl.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, s.ID, maxAge, "/", "", gin.Mode() == gin.ReleaseMode, true)
	return true
}

// readReport accepts either a multipart "file" upload or a JSON {"text": ...} body.
func readReport(c *gin.Context) (string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", errors.New("file is required")
		}
		return readUpload(fh)
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", errors.New("text or file is required")
	}
	if len(req.Text) > client.MaxReportBytes {
		return "", client.ErrReportTooLarge
	}
	return req.Text, nil
}

func readUpload(fh *multipart.FileHeader) (string, error) {
	if fh.Header.Get("Content-Type") == "application/pdf" {
		return "", client.ErrUnsupportedReport
	}
	if fh.Size > client.MaxReportBytes {
		return "", client.ErrReportTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, client.MaxReportBytes+1))
	if err != nil {
		return "", err
	}
	return client.ReportText(fh.Filename, data)
}
