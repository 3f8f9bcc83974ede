package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daleelapp/daleel-backend/internal/apierr"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/requestdata"
	"github.com/daleelapp/daleel-backend/internal/services"
	"github.com/daleelapp/daleel-backend/internal/sse"
)

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{log: log.With("handler", "ChatHandler"), chatService: chatService}
}

func (ch *ChatHandler) ListChats(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	chats, err := ch.chatService.ListChats(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"chats": chats})
}

func (ch *ChatHandler) GetChat(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid chat id")))
		return
	}
	chat, turns, err := ch.chatService.GetChat(c.Request.Context(), rd.UserID, chatID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"chat": gin.H{
		"id":        chat.ID,
		"summary":   chat.Summary,
		"messages":  turns,
		"createdAt": chat.CreatedAt,
		"updatedAt": chat.UpdatedAt,
	}})
}

func (ch *ChatHandler) DeleteChat(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid chat id")))
		return
	}
	if err := ch.chatService.DeleteChat(c.Request.Context(), rd.UserID, chatID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

// Complete runs one chat exchange, streaming tokens back as server-sent
// events. Errors raised before the first frame become plain JSON responses;
// later ones are delivered in-stream by the service.
func (ch *ChatHandler) Complete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var body struct {
		ChatID      *string          `json:"chatId"`
		Message     string           `json:"message"`
		Attachments []map[string]any `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid request body")))
		return
	}

	req := services.CompletionRequest{Message: body.Message, Attachments: body.Attachments}
	if body.ChatID != nil && *body.ChatID != "" {
		chatID, err := uuid.Parse(*body.ChatID)
		if err != nil {
			RespondError(c, apierr.New(http.StatusBadRequest, apierr.CodeValidation, errors.New("invalid chat id")))
			return
		}
		req.ChatID = &chatID
	}

	relay, err := sse.NewRelay(c.Writer, ch.log)
	if err != nil {
		RespondError(c, apierr.New(http.StatusInternalServerError, apierr.CodeInternal, err))
		return
	}

	if err := ch.chatService.Complete(c.Request.Context(), rd.UserID, req, relay); err != nil {
		if relay.Started() {
			relay.Fail(err.Error())
			return
		}
		RespondError(c, err)
	}
}
