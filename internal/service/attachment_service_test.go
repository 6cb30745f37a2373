package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"agrimarket/internal/domain"
)

func TestAttachmentIngestImage(t *testing.T) {
	msgRepo := &mockMessageRepo{}
	convRepo := newMockConversationRepo()
	hub := &captureHub{}
	svc := NewAttachmentService(msgRepo, convRepo, hub)

	data := []byte{0x89, 0x50, 0x4e, 0x47}
	msg, err := svc.Ingest(context.Background(), "conv-1", "leaf.png", "image/png", data)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if msg.Role != domain.RoleUser {
		t.Fatalf("expected user role, got %s", msg.Role)
	}
	if msg.Content != "Uploaded: leaf.png" {
		t.Fatalf("unexpected content %q", msg.Content)
	}
	if msg.Attachment == nil || msg.Attachment.Kind != domain.AttachmentKindImage {
		t.Fatalf("expected image attachment, got %+v", msg.Attachment)
	}
	decoded, err := base64.StdEncoding.DecodeString(msg.Attachment.Data)
	if err != nil || !bytes.Equal(decoded, data) {
		t.Fatalf("attachment data roundtrip failed")
	}

	if msgRepo.count() != 1 {
		t.Fatalf("expected 1 persisted message, got %d", msgRepo.count())
	}
	events := hub.snapshot()
	if len(events) != 1 || events[0].Message.ID != msg.ID {
		t.Fatalf("expected one insert event for the attachment message")
	}
}

func TestAttachmentIngestPDFIsDocument(t *testing.T) {
	msgRepo := &mockMessageRepo{}
	svc := NewAttachmentService(msgRepo, nil, nil)

	msg, err := svc.Ingest(context.Background(), "conv-1", "soil-report.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if msg.Attachment.Kind != domain.AttachmentKindDocument {
		t.Fatalf("expected document kind, got %s", msg.Attachment.Kind)
	}
}

func TestAttachmentIngestLargeImageSucceeds(t *testing.T) {
	msgRepo := &mockMessageRepo{}
	svc := NewAttachmentService(msgRepo, nil, nil)

	big := make([]byte, 6<<20)
	msg, err := svc.Ingest(context.Background(), "conv-1", "field.jpg", "image/jpeg", big)
	if err != nil {
		t.Fatalf("expected large image to be accepted, got %v", err)
	}
	if len(msg.Attachment.Data) == 0 {
		t.Fatalf("expected encoded payload")
	}
}

func TestAttachmentIngestRejects(t *testing.T) {
	msgRepo := &mockMessageRepo{}
	svc := NewAttachmentService(msgRepo, nil, nil)

	if _, err := svc.Ingest(context.Background(), "conv-1", "empty.png", "image/png", nil); !errors.Is(err, ErrAttachmentEmpty) {
		t.Fatalf("expected ErrAttachmentEmpty, got %v", err)
	}
	if _, err := svc.Ingest(context.Background(), "conv-1", "notes.txt", "text/plain", []byte("hi")); !errors.Is(err, ErrAttachmentUnsupported) {
		t.Fatalf("expected ErrAttachmentUnsupported, got %v", err)
	}
	if msgRepo.count() != 0 {
		t.Fatalf("rejected uploads must not persist, got %d", msgRepo.count())
	}
}

func TestAttachmentIngestPersistsNothingOnRepoError(t *testing.T) {
	msgRepo := &mockMessageRepo{err: errors.New("db down")}
	hub := &captureHub{}
	svc := NewAttachmentService(msgRepo, nil, hub)

	if _, err := svc.Ingest(context.Background(), "conv-1", "leaf.png", "image/png", []byte{1}); err == nil {
		t.Fatalf("expected error")
	}
	if len(hub.snapshot()) != 0 {
		t.Fatalf("failed ingest must not publish events")
	}
}
