// Package email implements the notification.Channel contract over SMTP for
// the reserved email reminder channel.
package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/serviconli/citas-api/internal/config"
	"github.com/serviconli/citas-api/internal/notification"
	"github.com/serviconli/citas-api/pkg/logger"
)

type Service struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
	logger *logger.Logger
}

func NewService(cfg config.SMTPConfig, log *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		logger: log,
	}
}

func (s *Service) Name() string {
	return "email"
}

func (s *Service) IsAvailable() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

func (s *Service) Send(ctx context.Context, recipient, body string, opts notification.Options) (*notification.SendResult, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("email service is not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", "Serviconli - Información de su cita")
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		s.logger.Error(err, "email send failed", "recipient", recipient)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent", "recipient", recipient)
	return &notification.SendResult{Success: true}, nil
}
