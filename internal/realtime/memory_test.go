package realtime

import (
	"context"
	"testing"
	"time"

	"agrimarket/internal/domain"
)

func receiveEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed before event arrived")
		}
		return event
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryHubDeliversToSubscribers(t *testing.T) {
	hub := NewMemoryHub()
	topic := ConversationTopic("conv-1")

	ch, cancel, err := hub.Subscribe(context.Background(), topic)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	msg := domain.Message{ID: "m1", ConversationID: "conv-1", Role: domain.RoleUser, Content: "hola"}
	if err := hub.Publish(context.Background(), topic, Event{Type: EventInsert, Message: msg}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	event := receiveEvent(t, ch)
	if event.Type != EventInsert || event.Message.ID != "m1" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestMemoryHubTopicsAreIsolated(t *testing.T) {
	hub := NewMemoryHub()

	chA, cancelA, err := hub.Subscribe(context.Background(), ConversationTopic("conv-a"))
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	defer cancelA()

	if err := hub.Publish(context.Background(), ConversationTopic("conv-b"), Event{
		Type:    EventInsert,
		Message: domain.Message{ID: "m1", ConversationID: "conv-b"},
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-chA:
		t.Fatalf("subscriber for conv-a received foreign event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryHubCancelClosesChannel(t *testing.T) {
	hub := NewMemoryHub()
	topic := ConversationTopic("conv-1")

	ch, cancel, err := hub.Subscribe(context.Background(), topic)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	cancel()
	// Cancelar dos veces no debe entrar en pánico.
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}

	// Publicar tras la baja no debe bloquear ni fallar.
	if err := hub.Publish(context.Background(), topic, Event{Type: EventUpdate}); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestMemoryHubMultipleSubscribers(t *testing.T) {
	hub := NewMemoryHub()
	topic := ConversationTopic("conv-1")

	ch1, cancel1, _ := hub.Subscribe(context.Background(), topic)
	defer cancel1()
	ch2, cancel2, _ := hub.Subscribe(context.Background(), topic)
	defer cancel2()

	if err := hub.Publish(context.Background(), topic, Event{
		Type:    EventUpdate,
		Message: domain.Message{ID: "m2", ConversationID: "conv-1", Content: "chunk"},
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for i, ch := range []<-chan Event{ch1, ch2} {
		event := receiveEvent(t, ch)
		if event.Message.ID != "m2" {
			t.Fatalf("subscriber %d got wrong event %+v", i, event)
		}
	}
}
