package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"artemis/middlewares"
	"artemis/models"
	"artemis/services"
)

// Relayer handles one conversation context and returns the assistant reply.
type Relayer interface {
	Handle(ctx context.Context, cc models.ConversationContext) (string, error)
}

type ChatController struct {
	relay Relayer
}

func NewChatController(relay Relayer) *ChatController {
	return &ChatController{relay: relay}
}

// HandleMCP accepts a ConversationContext and answers {"reply": ...}.
func (cc *ChatController) HandleMCP(c *gin.Context) {
	log := middlewares.LoggerFrom(c)

	conv, err := services.DecodeContext(c.Request.Body)
	if err != nil {
		cc.fail(c, err)
		return
	}

	reply, err := cc.relay.Handle(c.Request.Context(), conv)
	if err != nil {
		cc.fail(c, err)
		return
	}

	log.WithField("history", len(conv.History)).Debug("reply relayed")
	c.JSON(http.StatusOK, models.Reply{Reply: reply})
}

func (cc *ChatController) fail(c *gin.Context, err error) {
	log := middlewares.LoggerFrom(c)
	_ = c.Error(err)

	var schemaErr *services.SchemaError
	var upstreamErr *services.UpstreamError
	switch {
	case errors.As(err, &schemaErr):
		log.WithError(err).Warn("rejected conversation context")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "invalid conversation context",
			"details": schemaErr.Details,
		})
	case errors.As(err, &upstreamErr):
		log.WithError(err).WithField("upstream_status", upstreamErr.Status).Error("upstream completion failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream completion failed"})
	default:
		log.WithError(err).Error("relay failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
