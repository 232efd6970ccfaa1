package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

const maxGiftAPIResponse = 64 << 10

// GiftFulfillmentRequest: тело запроса к внешнему API выдачи подарка
type GiftFulfillmentRequest struct {
	GiftCode      string                 `json:"gift_code"`
	GiftID        uint                   `json:"gift_id"`
	ParticipantID uint                   `json:"participant_id"`
	FullName      string                 `json:"full_name"`
	Phone         string                 `json:"phone"`
	Email         string                 `json:"email,omitempty"`
	CampaignID    uint                   `json:"campaign_id"`
	Params        map[string]interface{} `json:"params,omitempty"`
}

// GiftFulfiller уведомляет внешнюю систему о выданном коде.
// Возвращает тело ответа, если это валидный JSON, иначе nil.
type GiftFulfiller interface {
	Fulfill(ctx context.Context, endpoint string, req GiftFulfillmentRequest) (json.RawMessage, error)
}

// HTTPGiftFulfiller выполняет POST с JSON телом
type HTTPGiftFulfiller struct {
	client *http.Client
}

// NewHTTPGiftFulfiller создает клиента с таймаутом
func NewHTTPGiftFulfiller(timeout time.Duration) *HTTPGiftFulfiller {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout
	return &HTTPGiftFulfiller{client: client}
}

// Fulfill отправляет данные выдачи на endpoint
func (f *HTTPGiftFulfiller) Fulfill(ctx context.Context, endpoint string, req GiftFulfillmentRequest) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gift api request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gift api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxGiftAPIResponse))
	if err != nil {
		return nil, fmt.Errorf("read gift api response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return jsonOrNil(data), fmt.Errorf("gift api returned status %d", resp.StatusCode)
	}
	return jsonOrNil(data), nil
}

func jsonOrNil(data []byte) json.RawMessage {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) {
		return nil
	}
	return json.RawMessage(data)
}
