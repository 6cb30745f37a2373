package service

import (
	"agrimarket/internal/domain"
	"agrimarket/internal/realtime"
)

// MessageLog es la vista en memoria de los mensajes de una conversación.
// El estado autoritativo vive en la base; aplicar eventos del hub
// mantiene la vista convergida. Aplicar un evento con un id ya conocido
// reemplaza la entrada, nunca la duplica.
type MessageLog struct {
	msgs  []domain.Message
	index map[string]int
}

func NewMessageLog(initial []domain.Message) *MessageLog {
	log := &MessageLog{index: make(map[string]int, len(initial))}
	for _, msg := range initial {
		log.Apply(realtime.Event{Type: realtime.EventInsert, Message: msg})
	}
	return log
}

// Apply incorpora un evento insert o update de forma idempotente. Un
// update para un id desconocido se trata como insert: la suscripción
// puede entregar la actualización del placeholder antes que el insert
// local.
func (l *MessageLog) Apply(event realtime.Event) {
	msg := event.Message
	msg.Role = domain.NormalizeRole(msg.Role)
	if i, ok := l.index[msg.ID]; ok {
		l.msgs[i] = msg
		return
	}
	l.index[msg.ID] = len(l.msgs)
	l.msgs = append(l.msgs, msg)
}

// Len devuelve la cantidad de mensajes en la vista.
func (l *MessageLog) Len() int {
	return len(l.msgs)
}

// Messages devuelve una copia de la vista en orden de inserción.
func (l *MessageLog) Messages() []domain.Message {
	out := make([]domain.Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}
