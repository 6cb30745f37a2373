package domain

import "time"

// Conversation agrupa los mensajes del asistente para un perfil.
// El título queda vacío hasta que el primer intercambio lo define.
type Conversation struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
