package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/al-ameen36/vcon-bubble-maps/assistant"
	"github.com/al-ameen36/vcon-bubble-maps/models"
	"github.com/al-ameen36/vcon-bubble-maps/services"
)

type ThreadRunner interface {
	CreateThread(ctx context.Context, userID string) (string, error)
	SendMessage(ctx context.Context, threadID, prompt string) error
	ListMessages(ctx context.Context, threadID, cursor string, limit int) (models.ThreadMessagePage, error)
}

type ChatController struct {
	threads ThreadRunner
	logger  *zap.Logger
}

func NewChatController(threads ThreadRunner, logger *zap.Logger) *ChatController {
	return &ChatController{threads: threads, logger: logger}
}

// CreateSession issues a thread for userId, generating the id when the
// browser has none yet.
func (cc *ChatController) CreateSession(c *gin.Context) {
	var request struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.UserID == "" {
		request.UserID = uuid.New().String()
	}

	threadID, err := cc.threads.CreateThread(c.Request.Context(), request.UserID)
	if err != nil {
		cc.logger.Error("creating thread failed", zap.String("user_id", request.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create thread"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": request.UserID, "threadId": threadID})
}

// SendMessage accepts the prompt. The reply is read back by listing the
// thread's messages.
func (cc *ChatController) SendMessage(c *gin.Context) {
	var request struct {
		Prompt string `json:"prompt" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	threadID := c.Param("threadId")
	err := cc.threads.SendMessage(c.Request.Context(), threadID, request.Prompt)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"threadId": threadID})
	case errors.Is(err, assistant.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrThreadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		cc.logger.Error("sending message failed", zap.String("thread_id", threadID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to get a reply"})
	}
}

func (cc *ChatController) ListMessages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxPageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	threadID := c.Param("threadId")
	page, err := cc.threads.ListMessages(c.Request.Context(), threadID, c.Query("cursor"), limit)
	switch {
	case err == nil:
		if page.Messages == nil {
			page.Messages = []models.ThreadMessage{}
		}
		c.JSON(http.StatusOK, page)
	case errors.Is(err, services.ErrThreadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		cc.logger.Error("listing messages failed", zap.String("thread_id", threadID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
	}
}
