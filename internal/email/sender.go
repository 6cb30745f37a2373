package email

import (
	"context"
	"fmt"
	"time"
)

// Sender entrega los códigos de verificación de cuenta por correo.
type Sender interface {
	SendVerificationOTP(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

// disabledSender responde con error cuando el envío de correos no está
// configurado; el registro de cuentas sigue funcionando sin él.
type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	if reason == "" {
		reason = "email sender disabled"
	}
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendVerificationOTP(_ context.Context, _ string, _ string, _ time.Time) error {
	return fmt.Errorf("send verification otp: %s", s.reason)
}
