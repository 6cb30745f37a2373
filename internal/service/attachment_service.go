package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agrimarket/internal/domain"
	"agrimarket/internal/realtime"
	"agrimarket/internal/repository"
)

// AttachmentService codifica un archivo adjunto y lo persiste como
// mensaje de usuario. Acepta un archivo por operación: imágenes y PDF
// (el PDF se acepta tal cual, sin parseo especial).
type AttachmentService struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	hub           realtime.Hub
}

var (
	ErrAttachmentEmpty       = errors.New("attachment empty")
	ErrAttachmentUnsupported = errors.New("attachment type not supported")
)

func NewAttachmentService(messages repository.MessageRepository, conversations repository.ConversationRepository, hub realtime.Hub) *AttachmentService {
	return &AttachmentService{messages: messages, conversations: conversations, hub: hub}
}

// Ingest codifica los bytes a base64 con su MIME type y persiste el
// mensaje. Si la codificación no es posible no se escribe nada.
func (s *AttachmentService) Ingest(ctx context.Context, conversationID, fileName, mimeType string, data []byte) (domain.Message, error) {
	if s == nil || s.messages == nil {
		return domain.Message{}, ErrChatNotConfigured
	}
	if len(data) == 0 {
		return domain.Message{}, ErrAttachmentEmpty
	}

	kind := domain.AttachmentKindDocument
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		kind = domain.AttachmentKindImage
	case mimeType == "application/pdf":
	default:
		return domain.Message{}, ErrAttachmentUnsupported
	}

	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Content:        fmt.Sprintf("Uploaded: %s", fileName),
		Attachment: &domain.Attachment{
			Kind:     kind,
			FileName: fileName,
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data),
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("persist attachment message: %w", err)
	}
	if s.conversations != nil {
		_ = s.conversations.Touch(ctx, conversationID, msg.CreatedAt)
	}
	if s.hub != nil {
		_ = s.hub.Publish(ctx, realtime.ConversationTopic(conversationID), realtime.Event{
			Type:    realtime.EventInsert,
			Message: msg,
		})
	}
	return msg, nil
}
