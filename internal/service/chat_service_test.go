package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"agrimarket/internal/domain"
	"agrimarket/internal/llm"
	"agrimarket/internal/realtime"
)

type mockConversationRepo struct {
	mu     sync.Mutex
	convs  map[string]domain.Conversation
	titles map[string]string
	err    error
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{
		convs:  make(map[string]domain.Conversation),
		titles: make(map[string]string),
	}
}

func (m *mockConversationRepo) Create(_ context.Context, conv domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.convs[conv.ID] = conv
	return nil
}

func (m *mockConversationRepo) GetByID(_ context.Context, id string) (domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.convs[id]
	if !ok {
		return domain.Conversation{}, errors.New("not found")
	}
	return conv, nil
}

func (m *mockConversationRepo) ListByProfileID(_ context.Context, profileID string) ([]domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Conversation
	for _, conv := range m.convs {
		if conv.ProfileID == profileID {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (m *mockConversationRepo) UpdateTitle(_ context.Context, id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles[id] = title
	return nil
}

func (m *mockConversationRepo) Touch(_ context.Context, id string, at time.Time) error {
	return nil
}

func (m *mockConversationRepo) titleOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.titles[id]
}

type mockMessageRepo struct {
	mu   sync.Mutex
	msgs []domain.Message
	err  error
}

func (m *mockMessageRepo) Create(_ context.Context, message domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, message)
	return nil
}

func (m *mockMessageRepo) ListByConversationID(_ context.Context, conversationID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.msgs {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageRepo) UpdateContent(_ context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.msgs {
		if m.msgs[i].ID == id {
			m.msgs[i].Content = content
			return nil
		}
	}
	return errors.New("message not found")
}

func (m *mockMessageRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

func (m *mockMessageRepo) byID(id string) (domain.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.ID == id {
			return msg, true
		}
	}
	return domain.Message{}, false
}

type captureHub struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (h *captureHub) Publish(_ context.Context, _ string, event realtime.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *captureHub) Subscribe(_ context.Context, _ string) (<-chan realtime.Event, func(), error) {
	ch := make(chan realtime.Event)
	close(ch)
	return ch, func() {}, nil
}

func (h *captureHub) snapshot() []realtime.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]realtime.Event, len(h.events))
	copy(out, h.events)
	return out
}

// blockingStream entrega deltas y luego espera a que lo liberen o a que el
// contexto se cancele.
type blockingStream struct {
	deltas  []string
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (s *blockingStream) GenerateStream(ctx context.Context, _ []llm.Turn, onDelta func(delta string)) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	for _, d := range s.deltas {
		onDelta(d)
	}
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *blockingStream) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func waitIdle(t *testing.T, svc *ChatService, conversationID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !svc.Busy(conversationID) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("stream did not finish in time")
}

func newChatFixture(stream llm.StreamClient) (*ChatService, *mockConversationRepo, *mockMessageRepo, *captureHub) {
	convRepo := newMockConversationRepo()
	msgRepo := &mockMessageRepo{}
	hub := &captureHub{}
	svc := NewChatService(zap.NewNop(), convRepo, msgRepo, stream, hub)
	return svc, convRepo, msgRepo, hub
}

func TestChatServiceListMessagesDecodesLegacyMarker(t *testing.T) {
	svc, _, msgRepo, _ := newChatFixture(&llm.MockClient{})

	payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	msgRepo.msgs = append(msgRepo.msgs,
		domain.Message{
			ID:             "m1",
			ConversationID: "c1",
			Role:           domain.RoleUser,
			Content:        "Mira esta hoja [IMAGE:leaf.png]data:image/png;base64," + payload,
		},
		domain.Message{
			ID:             "m2",
			ConversationID: "c1",
			Role:           domain.RoleUser,
			Content:        "Uploaded: soil.pdf",
			Attachment:     &domain.Attachment{Kind: domain.AttachmentKindDocument, MimeType: "application/pdf", Data: payload},
		},
	)

	msgs, err := svc.ListMessages(context.Background(), "c1")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	legacy := msgs[0]
	if legacy.Content != "Mira esta hoja" {
		t.Fatalf("expected marker stripped from content, got %q", legacy.Content)
	}
	if legacy.Attachment == nil || legacy.Attachment.Kind != domain.AttachmentKindImage || legacy.Attachment.FileName != "leaf.png" || legacy.Attachment.Data != payload {
		t.Fatalf("unexpected decoded attachment %+v", legacy.Attachment)
	}

	if msgs[1].Attachment == nil || msgs[1].Attachment.MimeType != "application/pdf" || msgs[1].Content != "Uploaded: soil.pdf" {
		t.Fatalf("row with attachment column should pass through untouched, got %+v", msgs[1])
	}
}

func TestChatServiceSendAccumulatesStream(t *testing.T) {
	stream := &llm.MockClient{Deltas: []string{"For aphids, ", "use neem oil ", "spray weekly."}}
	svc, _, msgRepo, hub := newChatFixture(stream)

	conv, err := svc.CreateConversation(context.Background(), "profile-1")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	userMsg, placeholder, err := svc.Send(context.Background(), conv.ID, "How do I treat aphids on my tomatoes?")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if userMsg.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %s", userMsg.Role)
	}
	if placeholder.Role != domain.RoleAssistant || placeholder.Content != "" {
		t.Fatalf("expected empty assistant placeholder, got %+v", placeholder)
	}

	waitIdle(t, svc, conv.ID)

	final, ok := msgRepo.byID(placeholder.ID)
	if !ok {
		t.Fatalf("placeholder not persisted")
	}
	want := "For aphids, use neem oil spray weekly."
	if final.Content != want {
		t.Fatalf("expected %q, got %q", want, final.Content)
	}

	events := hub.snapshot()
	if len(events) < 3 {
		t.Fatalf("expected insert+insert+update events, got %d", len(events))
	}
	if events[0].Type != realtime.EventInsert || events[1].Type != realtime.EventInsert {
		t.Fatalf("expected first two events to be inserts")
	}
	last := events[len(events)-1]
	if last.Type != realtime.EventUpdate || last.Message.Content != want {
		t.Fatalf("expected final update with full content, got %+v", last)
	}
}

func TestChatServiceSendWhileBusyIsNoOp(t *testing.T) {
	stream := &blockingStream{deltas: []string{"thinking"}, release: make(chan struct{})}
	svc, _, msgRepo, _ := newChatFixture(stream)

	conv, err := svc.CreateConversation(context.Background(), "profile-1")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	if _, _, err := svc.Send(context.Background(), conv.ID, "first question"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	// Espera a que la goroutine del stream llegue al proveedor antes de
	// comprobar que el envío ocupado no produce una segunda llamada.
	deadline := time.Now().Add(2 * time.Second)
	for stream.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	persisted := msgRepo.count()

	_, _, err = svc.Send(context.Background(), conv.ID, "second question while busy")
	if !errors.Is(err, ErrChatBusy) {
		t.Fatalf("expected ErrChatBusy, got %v", err)
	}
	if msgRepo.count() != persisted {
		t.Fatalf("busy send persisted messages: %d -> %d", persisted, msgRepo.count())
	}
	if stream.callCount() != 1 {
		t.Fatalf("busy send reached the provider: %d calls", stream.callCount())
	}

	close(stream.release)
	waitIdle(t, svc, conv.ID)

	// Con el stream terminado se puede enviar de nuevo.
	if _, _, err := svc.Send(context.Background(), conv.ID, "third question"); err != nil {
		t.Fatalf("send after release: %v", err)
	}
	waitIdle(t, svc, conv.ID)
}

func TestChatServiceFirstExchangeSetsTitle(t *testing.T) {
	stream := &llm.MockClient{Deltas: []string{"ok"}}
	svc, convRepo, _, _ := newChatFixture(stream)

	conv, err := svc.CreateConversation(context.Background(), "profile-1")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	long := strings.Repeat("q", 80)
	if _, _, err := svc.Send(context.Background(), conv.ID, long); err != nil {
		t.Fatalf("send: %v", err)
	}
	waitIdle(t, svc, conv.ID)

	want := strings.Repeat("q", 50) + "..."
	if got := convRepo.titleOf(conv.ID); got != want {
		t.Fatalf("expected title %q, got %q", want, got)
	}

	// El segundo intercambio no reescribe el título.
	convRepo.titles[conv.ID] = "kept"
	if _, _, err := svc.Send(context.Background(), conv.ID, "follow up"); err != nil {
		t.Fatalf("second send: %v", err)
	}
	waitIdle(t, svc, conv.ID)
	if got := convRepo.titleOf(conv.ID); got != "kept" {
		t.Fatalf("second exchange rewrote title to %q", got)
	}
}

func TestChatServiceStreamErrorReplacesPlaceholder(t *testing.T) {
	stream := &llm.MockClient{Deltas: []string{"partial"}, Err: errors.New("quota exceeded")}
	svc, _, msgRepo, _ := newChatFixture(stream)

	conv, err := svc.CreateConversation(context.Background(), "profile-1")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	_, placeholder, err := svc.Send(context.Background(), conv.ID, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	waitIdle(t, svc, conv.ID)

	final, _ := msgRepo.byID(placeholder.ID)
	if !strings.HasPrefix(final.Content, "Error: ") {
		t.Fatalf("expected error content, got %q", final.Content)
	}
	if !strings.Contains(final.Content, "quota exceeded") {
		t.Fatalf("expected cause in content, got %q", final.Content)
	}
}

func TestChatServiceCancelKeepsPartialContent(t *testing.T) {
	stream := &blockingStream{deltas: []string{"Watering schedules depend on"}, release: make(chan struct{})}
	svc, _, msgRepo, _ := newChatFixture(stream)

	conv, err := svc.CreateConversation(context.Background(), "profile-1")
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	_, placeholder, err := svc.Send(context.Background(), conv.ID, "watering advice")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if !svc.Cancel(conv.ID) {
		t.Fatalf("expected cancel to find an inflight stream")
	}
	waitIdle(t, svc, conv.ID)

	final, _ := msgRepo.byID(placeholder.ID)
	if final.Content != "Watering schedules depend on" {
		t.Fatalf("expected partial content kept, got %q", final.Content)
	}
	if strings.HasPrefix(final.Content, "Error:") {
		t.Fatalf("cancellation must not write an error notice")
	}
}

func TestChatServiceSendRejectsEmptyText(t *testing.T) {
	svc, _, msgRepo, _ := newChatFixture(&llm.MockClient{})
	_, _, err := svc.Send(context.Background(), "conv-1", "   ")
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if msgRepo.count() != 0 {
		t.Fatalf("empty send persisted messages")
	}
}

func TestBuildTurnsMapsRolesAndAttachments(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "hola"},
		{Role: domain.RoleAssistant, Content: "respuesta"},
		{Role: "system", Content: "weird legacy row"},
		{Role: domain.RoleUser, Content: "look at this leaf", Attachment: &domain.Attachment{
			Kind:     domain.AttachmentKindImage,
			MimeType: "image/png",
			Data:     "aGVsbG8=",
		}},
	}

	turns := buildTurns(history, "new question")
	if len(turns) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(turns))
	}
	if turns[0].Role != llm.RoleUser || turns[1].Role != llm.RoleModel {
		t.Fatalf("role mapping wrong: %s %s", turns[0].Role, turns[1].Role)
	}
	// Un rol desconocido se trata como usuario.
	if turns[2].Role != llm.RoleUser {
		t.Fatalf("expected unknown role coerced to user, got %s", turns[2].Role)
	}
	if len(turns[3].Parts) != 2 || turns[3].Parts[1].InlineData == nil {
		t.Fatalf("expected inline data part for attachment")
	}
	if turns[3].Parts[1].InlineData.MimeType != "image/png" {
		t.Fatalf("wrong mime type %q", turns[3].Parts[1].InlineData.MimeType)
	}
	if turns[4].Role != llm.RoleUser || turns[4].Parts[0].Text != "new question" {
		t.Fatalf("expected trailing user turn with new text")
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := TruncateTitle("short question", 50); got != "short question" {
		t.Fatalf("expected verbatim title, got %q", got)
	}
	long := strings.Repeat("a", 80)
	want := strings.Repeat("a", 50) + "..."
	if got := TruncateTitle(long, 50); got != want {
		t.Fatalf("expected truncated title, got %q", got)
	}
	// Runas multibyte no se parten.
	accented := strings.Repeat("á", 60)
	got := TruncateTitle(accented, 50)
	if got != strings.Repeat("á", 50)+"..." {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}
