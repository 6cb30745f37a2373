package realtime

import (
	"context"

	"agrimarket/internal/domain"
)

const (
	EventInsert = "insert"
	EventUpdate = "update"
)

// Event es una notificación de cambio sobre un mensaje de conversación.
type Event struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

// Hub publica y reparte eventos por tópico. Cada suscripción devuelve
// su propio canal y una función de cierre; el caller es responsable de
// invocarla al desmontar la vista.
type Hub interface {
	Publish(ctx context.Context, topic string, event Event) error
	Subscribe(ctx context.Context, topic string) (<-chan Event, func(), error)
}

// ConversationTopic es el tópico de los mensajes de una conversación.
func ConversationTopic(conversationID string) string {
	return "chat:messages:" + conversationID
}
