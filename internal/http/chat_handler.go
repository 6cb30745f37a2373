package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agrimarket/internal/realtime"
	"agrimarket/internal/service"
)

// ChatHandler expone las conversaciones con el asistente.
type ChatHandler struct {
	logger         *zap.Logger
	chatServ       *service.ChatService
	attachmentServ *service.AttachmentService
	hub            realtime.Hub
}

func NewChatHandler(logger *zap.Logger, chatServ *service.ChatService, attachmentServ *service.AttachmentService, hub realtime.Hub) *ChatHandler {
	return &ChatHandler{
		logger:         logger,
		chatServ:       chatServ,
		attachmentServ: attachmentServ,
		hub:            hub,
	}
}

const maxAttachmentBytes = 20 << 20

// ownConversation resuelve la conversación del path y verifica que
// pertenezca al perfil de la sesión.
func (h *ChatHandler) ownConversation(c *gin.Context) (string, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return "", false
	}
	id := c.Param("id")
	conv, err := h.chatServ.Conversation(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return "", false
	}
	if conv.ProfileID != claims.ProfileID {
		c.JSON(http.StatusForbidden, gin.H{"error": "conversation not owned by session"})
		return "", false
	}
	return id, true
}

// ListConversations maneja GET /conversations.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	convs, err := h.chatServ.ListConversations(c.Request.Context(), claims.ProfileID)
	if err != nil {
		h.logger.Error("list conversations failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// CreateConversation maneja POST /conversations.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	conv, err := h.chatServ.CreateConversation(c.Request.Context(), claims.ProfileID)
	if err != nil {
		h.logger.Error("create conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create conversation"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": conv})
}

// ListMessages maneja GET /conversations/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	id, ok := h.ownConversation(c)
	if !ok {
		return
	}

	msgs, err := h.chatServ.ListMessages(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage maneja POST /conversations/:id/messages. Con un envío en
// curso responde 409 sin persistir nada.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	id, ok := h.ownConversation(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	userMsg, placeholder, err := h.chatServ.Send(c.Request.Context(), id, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatBusy):
			c.JSON(http.StatusConflict, gin.H{"error": "a response is already in progress"})
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is empty"})
		case errors.Is(err, service.ErrChatNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant not configured"})
		default:
			h.logger.Error("send message failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": userMsg, "assistant": placeholder})
}

// UploadAttachment maneja POST /conversations/:id/attachments.
func (h *ChatHandler) UploadAttachment(c *gin.Context) {
	id, ok := h.ownConversation(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxAttachmentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	msg, err := h.attachmentServ.Ingest(c.Request.Context(), id, fileHeader.Filename, mimeType, data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttachmentEmpty):
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		case errors.Is(err, service.ErrAttachmentUnsupported):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only images and PDF are supported"})
		default:
			h.logger.Error("upload attachment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store attachment"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// CancelStream maneja POST /conversations/:id/cancel.
func (h *ChatHandler) CancelStream(c *gin.Context) {
	id, ok := h.ownConversation(c)
	if !ok {
		return
	}

	if h.chatServ.Cancel(id) {
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "idle"})
}

// StreamEvents maneja GET /conversations/:id/events como SSE. La
// suscripción se da de baja siempre que el cliente se desconecta.
func (h *ChatHandler) StreamEvents(c *gin.Context) {
	id, ok := h.ownConversation(c)
	if !ok {
		return
	}
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime not configured"})
		return
	}

	events, unsubscribe, err := h.hub.Subscribe(c.Request.Context(), realtime.ConversationTopic(id))
	if err != nil {
		h.logger.Error("subscribe failed", zap.Error(err), zap.String("conversation_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not subscribe"})
		return
	}
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-events:
			if !open {
				return false
			}
			c.SSEvent(event.Type, event.Message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
