package realtime

import (
	"context"
	"sync"
)

// MemoryHub reparte eventos dentro del proceso. Sirve para pruebas y
// como degradación cuando Redis no está configurado.
type MemoryHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[string]map[int]chan Event)}
}

func (h *MemoryHub) Publish(_ context.Context, topic string, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[topic] {
		// Un suscriptor lento no debe bloquear la publicación.
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (h *MemoryHub) Subscribe(_ context.Context, topic string) (<-chan Event, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan Event)
	}
	id := h.nextID
	h.nextID++
	ch := make(chan Event, 64)
	h.subs[topic][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[topic], id)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}
