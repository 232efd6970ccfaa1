package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

const resendMaxAttempts = 3

// GiftNotification: данные письма с кодом подарка
type GiftNotification struct {
	To           string
	FullName     string
	CampaignName string
	GiftName     string
	Code         string
}

// GiftNotifier отправляет участнику код выигранного подарка
type GiftNotifier interface {
	SendGiftCode(ctx context.Context, n GiftNotification) error
}

// NoopGiftNotifier используется, когда отправка писем отключена
type NoopGiftNotifier struct {
	logger *zap.Logger
}

// NewNoopGiftNotifier создает пустой нотификатор
func NewNoopGiftNotifier(logger *zap.Logger) *NoopGiftNotifier {
	return &NoopGiftNotifier{logger: logger}
}

func (s *NoopGiftNotifier) SendGiftCode(_ context.Context, n GiftNotification) error {
	s.logger.Debug("[EmailService] noop send gift code", zap.String("to", n.To))
	return nil
}

// ResendEmailService отправляет письма через Resend REST API
type ResendEmailService struct {
	from   string
	client *resend.Client
}

// NewResendEmailService создает сервис писем
func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

// SendGiftCode отправляет письмо с кодом; код подарка используется как ключ идемпотентности
func (s *ResendEmailService) SendGiftCode(ctx context.Context, n GiftNotification) error {
	if n.To == "" || n.Code == "" {
		return fmt.Errorf("recipient and gift code are required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{n.To},
		Subject: fmt.Sprintf("Mã quà tặng của bạn - %s", n.CampaignName),
		Text: fmt.Sprintf("Xin chào %s,\n\nBạn đã nhận được quà tặng \"%s\". Mã của bạn: %s\n",
			n.FullName, n.GiftName, n.Code),
		Html: fmt.Sprintf("<p>Xin chào %s,</p><p>Bạn đã nhận được quà tặng <strong>%s</strong>.</p><p>Mã của bạn: <strong>%s</strong></p>",
			html.EscapeString(n.FullName), html.EscapeString(n.GiftName), html.EscapeString(n.Code)),
	}
	options := &resend.SendEmailOptions{IdempotencyKey: "gift-" + n.Code}

	var lastErr error
	for attempt := 0; attempt < resendMaxAttempts; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		wait, retry := resendRetryDelay(err, attempt)
		if !retry {
			return fmt.Errorf("resend send failed: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

// resendRetryDelay определяет, стоит ли повторить отправку и через сколько
func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			return time.Duration(min(seconds, 30)) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}
	return 0, false
}
