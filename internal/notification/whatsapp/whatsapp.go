// Package whatsapp implements the notification.Channel contract on top of
// the Meta WhatsApp Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/serviconli/citas-api/internal/config"
	"github.com/serviconli/citas-api/internal/notification"
	"github.com/serviconli/citas-api/pkg/circuitbreaker"
	"github.com/serviconli/citas-api/pkg/logger"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

type Service struct {
	cfg     config.WhatsAppConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

func NewService(cfg config.WhatsAppConfig, log *logger.Logger) *Service {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 10
	}
	return &Service{
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "whatsapp",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		logger: log,
	}
}

func (s *Service) Name() string {
	return "whatsapp"
}

func (s *Service) IsAvailable() bool {
	return s.cfg.PhoneNumberID != "" && s.cfg.AccessToken != ""
}

func (s *Service) Send(ctx context.Context, recipient, body string, opts notification.Options) (*notification.SendResult, error) {
	recipient = NormalizePhoneNumber(recipient)

	if !s.IsAvailable() {
		s.logger.Warn("whatsapp service not configured", "recipient", recipient)
		if s.cfg.Simulate {
			return &notification.SendResult{
				Success:   true,
				Simulated: true,
				MessageID: fmt.Sprintf("simulated_%d", time.Now().UnixNano()),
			}, nil
		}
		return nil, fmt.Errorf("whatsapp service is not configured")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	payload := s.buildPayload(recipient, body, opts)

	var result *notification.SendResult
	err := s.breaker.Execute(func() error {
		var sendErr error
		result, sendErr = s.post(ctx, payload)
		return sendErr
	})
	if err != nil {
		s.logger.Error(err, "whatsapp send failed", "recipient", recipient)
		return nil, err
	}

	s.logger.Info("whatsapp message sent", "recipient", recipient, "message_id", result.MessageID)
	return result, nil
}

func (s *Service) buildPayload(recipient, body string, opts notification.Options) map[string]interface{} {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                recipient,
	}

	if opts.Type == notification.MessageTypeTemplate && opts.TemplateName != "" {
		params := make([]map[string]string, 0, len(opts.Parameters))
		for _, p := range opts.Parameters {
			params = append(params, map[string]string{"type": "text", "text": p})
		}
		language := opts.Language
		if language == "" {
			language = s.cfg.Language
		}
		payload["type"] = "template"
		payload["template"] = map[string]interface{}{
			"name":     opts.TemplateName,
			"language": map[string]string{"code": language},
			"components": []map[string]interface{}{
				{"type": "body", "parameters": params},
			},
		}
		return payload
	}

	payload["type"] = "text"
	payload["text"] = map[string]interface{}{"preview_url": false, "body": body}
	return payload
}

func (s *Service) post(ctx context.Context, payload map[string]interface{}) (*notification.SendResult, error) {
	url := fmt.Sprintf("%s/%s/messages", s.cfg.APIURL, s.cfg.PhoneNumberID)

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("whatsapp API error: %s", apiErr.Error.Message)
		}
		return nil, fmt.Errorf("whatsapp API error: status %d", resp.StatusCode)
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	messageID := ""
	if len(parsed.Messages) > 0 {
		messageID = parsed.Messages[0].ID
	}

	return &notification.SendResult{
		Success:     true,
		MessageID:   messageID,
		RawResponse: respBody,
	}, nil
}

// NormalizePhoneNumber strips non-digits, drops a leading zero and prefixes
// the Colombian country code on bare 10-digit numbers.
func NormalizePhoneNumber(phone string) string {
	phone = nonDigits.ReplaceAllString(phone, "")
	phone = strings.TrimPrefix(phone, "0")
	if !strings.HasPrefix(phone, "57") && len(phone) == 10 {
		phone = "57" + phone
	}
	return phone
}
