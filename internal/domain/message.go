package domain

import (
	"strings"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	AttachmentKindImage    = "image"
	AttachmentKindDocument = "document"
)

// Attachment es el adjunto de un mensaje como unión etiquetada,
// en lugar de incrustar un marcador dentro del contenido.
type Attachment struct {
	Kind     string `json:"kind"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // payload en base64, sin prefijo data:
}

type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Role           string      `json:"role"`
	Content        string      `json:"content"`
	Attachment     *Attachment `json:"attachment,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NormalizeRole acota el rol al vocabulario user/assistant.
// Cualquier valor fuera de rango se trata como user.
func NormalizeRole(role string) string {
	if strings.TrimSpace(role) == RoleAssistant {
		return RoleAssistant
	}
	return RoleUser
}

// DataURI devuelve el adjunto en forma data:<mime>;base64,<payload>.
func (a *Attachment) DataURI() string {
	if a == nil {
		return ""
	}
	return "data:" + a.MimeType + ";base64," + a.Data
}

// ParseDataURI reconstruye un Attachment desde un data URI almacenado.
func ParseDataURI(uri string) (Attachment, bool) {
	if !strings.HasPrefix(uri, "data:") {
		return Attachment{}, false
	}
	rest := strings.TrimPrefix(uri, "data:")
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok || mime == "" || payload == "" {
		return Attachment{}, false
	}
	kind := AttachmentKindDocument
	if strings.HasPrefix(mime, "image/") {
		kind = AttachmentKindImage
	}
	return Attachment{Kind: kind, MimeType: mime, Data: payload}, true
}

const legacyImageMarker = "[IMAGE:"

// ParseLegacyAttachment interpreta la convención histórica
// "[IMAGE:<nombre>]<data-uri>" incrustada en el contenido. Es el único
// punto del código que conoce ese marcador; filas nuevas usan la
// columna de adjunto.
func ParseLegacyAttachment(content string) (clean string, att *Attachment) {
	idx := strings.Index(content, legacyImageMarker)
	if idx < 0 {
		return content, nil
	}
	rest := content[idx+len(legacyImageMarker):]
	name, encoded, ok := strings.Cut(rest, "]")
	if !ok {
		return content, nil
	}
	parsed, ok := ParseDataURI(strings.TrimSpace(encoded))
	if !ok {
		return content, nil
	}
	parsed.FileName = name
	return strings.TrimSpace(content[:idx]), &parsed
}
