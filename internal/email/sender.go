package email

import (
	"context"
	"errors"
	"fmt"
)

// Sender define la interfaz para el envio de correos de bienvenida.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, name string) error
}

// ErrDisabled se devuelve cuando no hay SMTP configurado.
var ErrDisabled = errors.New("email sender disabled")

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendWelcome(_ context.Context, _, _ string) error {
	if s.reason == "" {
		return ErrDisabled
	}
	return fmt.Errorf("%w: %s", ErrDisabled, s.reason)
}
