package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/llm"
	"agrimarket/internal/realtime"
	"agrimarket/internal/repository"
)

// ChatService orquesta el asistente: persiste los mensajes, construye el
// historial para el proveedor generativo y vuelca la respuesta en
// streaming sobre el mensaje placeholder.
type ChatService struct {
	logger        *zap.Logger
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	stream        llm.StreamClient
	hub           realtime.Hub

	flushInterval time.Duration
	flushBytes    int

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

var (
	ErrChatNotConfigured = errors.New("chat service not configured")
	ErrChatBusy          = errors.New("chat send already in progress")
	ErrEmptyMessage      = errors.New("empty message")
)

const (
	titleMaxRunes        = 50
	defaultFlushInterval = 250 * time.Millisecond
	defaultFlushBytes    = 512
)

func NewChatService(
	logger *zap.Logger,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	stream llm.StreamClient,
	hub realtime.Hub,
) *ChatService {
	return &ChatService{
		logger:        logger,
		conversations: conversations,
		messages:      messages,
		stream:        stream,
		hub:           hub,
		flushInterval: defaultFlushInterval,
		flushBytes:    defaultFlushBytes,
		inflight:      make(map[string]context.CancelFunc),
	}
}

// ListConversations devuelve el directorio de un perfil, más reciente primero.
func (s *ChatService) ListConversations(ctx context.Context, profileID string) ([]domain.Conversation, error) {
	if s == nil || s.conversations == nil {
		return nil, ErrChatNotConfigured
	}
	return s.conversations.ListByProfileID(ctx, profileID)
}

// CreateConversation crea una conversación sin título para el perfil.
func (s *ChatService) CreateConversation(ctx context.Context, profileID string) (domain.Conversation, error) {
	if s == nil || s.conversations == nil {
		return domain.Conversation{}, ErrChatNotConfigured
	}
	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

// Conversation carga una conversación por id.
func (s *ChatService) Conversation(ctx context.Context, id string) (domain.Conversation, error) {
	if s == nil || s.conversations == nil {
		return domain.Conversation{}, ErrChatNotConfigured
	}
	return s.conversations.GetByID(ctx, id)
}

// ListMessages carga el historial en orden de creación. Filas antiguas
// con el marcador de imagen incrustado en el contenido se normalizan a
// la columna de adjunto al salir.
func (s *ChatService) ListMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	if s == nil || s.messages == nil {
		return nil, ErrChatNotConfigured
	}
	msgs, err := s.messages.ListByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].Attachment != nil {
			continue
		}
		if clean, att := domain.ParseLegacyAttachment(msgs[i].Content); att != nil {
			msgs[i].Content = clean
			msgs[i].Attachment = att
		}
	}
	return msgs, nil
}

// Send persiste el mensaje del usuario y el placeholder del asistente,
// y arranca el streaming en segundo plano. Con un envío en curso para
// la misma conversación no hace nada: ni persiste ni llama al proveedor.
func (s *ChatService) Send(ctx context.Context, conversationID, text string) (domain.Message, domain.Message, error) {
	if s == nil || s.messages == nil || s.conversations == nil || s.stream == nil {
		return domain.Message{}, domain.Message{}, ErrChatNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, domain.Message{}, ErrEmptyMessage
	}

	if !s.acquire(conversationID) {
		return domain.Message{}, domain.Message{}, ErrChatBusy
	}
	started := false
	defer func() {
		if !started {
			s.release(conversationID)
		}
	}()

	history, err := s.messages.ListByConversationID(ctx, conversationID)
	if err != nil {
		return domain.Message{}, domain.Message{}, fmt.Errorf("load history: %w", err)
	}
	firstExchange := len(history) == 0

	now := time.Now().UTC()
	userMsg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Content:        text,
		CreatedAt:      now,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return domain.Message{}, domain.Message{}, fmt.Errorf("persist user message: %w", err)
	}
	s.publish(ctx, realtime.EventInsert, userMsg)

	// Placeholder vacío: otros clientes suscritos ven de inmediato que
	// el asistente está respondiendo.
	placeholder := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Content:        "",
		CreatedAt:      now.Add(time.Millisecond),
	}
	if err := s.messages.Create(ctx, placeholder); err != nil {
		return domain.Message{}, domain.Message{}, fmt.Errorf("persist placeholder: %w", err)
	}
	s.publish(ctx, realtime.EventInsert, placeholder)

	if err := s.conversations.Touch(ctx, conversationID, now); err != nil && s.logger != nil {
		s.logger.Warn("touch conversation failed", zap.Error(err), zap.String("conversation_id", conversationID))
	}

	turns := buildTurns(history, text)

	// El stream corre con su propio contexto, desligado del request:
	// cambiar de vista no interrumpe la escritura a la conversación
	// correcta. Cancel lo aborta explícitamente.
	streamCtx, cancel := context.WithCancel(context.Background())
	s.setCancel(conversationID, cancel)
	started = true

	go s.streamResponse(streamCtx, conversationID, placeholder.ID, turns, firstExchange, text)

	return userMsg, placeholder, nil
}

// Cancel aborta el stream en curso de la conversación, si existe.
func (s *ChatService) Cancel(conversationID string) bool {
	s.mu.Lock()
	cancel, ok := s.inflight[conversationID]
	s.mu.Unlock()
	if ok && cancel != nil {
		cancel()
	}
	return ok
}

// Busy indica si hay un envío en curso para la conversación.
func (s *ChatService) Busy(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[conversationID]
	return ok
}

func (s *ChatService) streamResponse(ctx context.Context, conversationID, placeholderID string, turns []llm.Turn, firstExchange bool, userText string) {
	defer s.release(conversationID)

	var accumulated strings.Builder
	lastFlush := time.Now()
	flushedLen := 0

	flush := func() {
		if accumulated.Len() == flushedLen {
			return
		}
		content := accumulated.String()
		// El valor persistido siempre es el texto acumulado completo.
		if err := s.messages.UpdateContent(context.Background(), placeholderID, content); err != nil {
			if s.logger != nil {
				s.logger.Warn("update placeholder failed", zap.Error(err), zap.String("message_id", placeholderID))
			}
			return
		}
		flushedLen = len(content)
		lastFlush = time.Now()
		s.publish(context.Background(), realtime.EventUpdate, domain.Message{
			ID:             placeholderID,
			ConversationID: conversationID,
			Role:           domain.RoleAssistant,
			Content:        content,
		})
	}

	err := s.stream.GenerateStream(ctx, turns, func(delta string) {
		accumulated.WriteString(delta)
		if accumulated.Len()-flushedLen >= s.flushBytes || time.Since(lastFlush) >= s.flushInterval {
			flush()
		}
	})
	flush()

	switch {
	case err == nil:
		if firstExchange {
			s.applyTitle(conversationID, userText)
		}
	case errors.Is(err, context.Canceled):
		// Cancelación deliberada: se conserva lo acumulado, sin aviso de error.
		if s.logger != nil {
			s.logger.Info("stream cancelled", zap.String("conversation_id", conversationID))
		}
	default:
		if s.logger != nil {
			s.logger.Error("stream failed", zap.Error(err), zap.String("conversation_id", conversationID))
		}
		content := fmt.Sprintf("Error: %v", err)
		if updateErr := s.messages.UpdateContent(context.Background(), placeholderID, content); updateErr == nil {
			s.publish(context.Background(), realtime.EventUpdate, domain.Message{
				ID:             placeholderID,
				ConversationID: conversationID,
				Role:           domain.RoleAssistant,
				Content:        content,
			})
		}
	}
}

func (s *ChatService) applyTitle(conversationID, userText string) {
	title := TruncateTitle(userText, titleMaxRunes)
	if err := s.conversations.UpdateTitle(context.Background(), conversationID, title); err != nil && s.logger != nil {
		s.logger.Warn("auto-title failed", zap.Error(err), zap.String("conversation_id", conversationID))
	}
}

// TruncateTitle corta el texto a maxRunes y añade "..." si truncó.
func TruncateTitle(text string, maxRunes int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxRunes {
		return string(runes)
	}
	return string(runes[:maxRunes]) + "..."
}

// buildTurns convierte el historial al vocabulario del proveedor:
// assistant pasa a model, todo lo demás se trata como user. Los
// adjuntos viajan como inline_data junto al texto del turno.
func buildTurns(history []domain.Message, newUserText string) []llm.Turn {
	turns := make([]llm.Turn, 0, len(history)+1)
	for _, msg := range history {
		role := llm.RoleUser
		if domain.NormalizeRole(msg.Role) == domain.RoleAssistant {
			role = llm.RoleModel
		}
		parts := []llm.Part{{Text: msg.Content}}
		if msg.Attachment != nil {
			parts = append(parts, llm.Part{InlineData: &llm.InlineData{
				MimeType: msg.Attachment.MimeType,
				Data:     msg.Attachment.Data,
			}})
		}
		turns = append(turns, llm.Turn{Role: role, Parts: parts})
	}
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Parts: []llm.Part{{Text: newUserText}}})
	return turns
}

func (s *ChatService) acquire(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inflight[conversationID]; ok {
		return false
	}
	s.inflight[conversationID] = nil
	return true
}

func (s *ChatService) setCancel(conversationID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[conversationID] = cancel
}

func (s *ChatService) release(conversationID string) {
	s.mu.Lock()
	cancel := s.inflight[conversationID]
	delete(s.inflight, conversationID)
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *ChatService) publish(ctx context.Context, eventType string, msg domain.Message) {
	if s.hub == nil {
		return
	}
	event := realtime.Event{Type: eventType, Message: msg}
	if err := s.hub.Publish(ctx, realtime.ConversationTopic(msg.ConversationID), event); err != nil && s.logger != nil {
		s.logger.Warn("publish event failed", zap.Error(err), zap.String("conversation_id", msg.ConversationID))
	}
}
