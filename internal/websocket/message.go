package websocket

import (
	"encoding/json"
	"time"

	"github.com/yourusername/vefify-quiz/internal/event"
)

// Типы сообщений живой ленты
const (
	// MessageEvent: доменное событие кампании
	MessageEvent = "EVENT"

	// MessageWelcome отправляется сразу после подключения
	MessageWelcome = "WELCOME"
)

// Message: сообщение, отправляемое администраторам
type Message struct {
	Type       string      `json:"type"`
	CampaignID uint        `json:"campaign_id,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	SentAt     time.Time   `json:"sent_at"`
}

// eventMessage упаковывает доменное событие в сообщение ленты
func eventMessage(e event.Event) Message {
	return Message{
		Type:       MessageEvent,
		CampaignID: e.CampaignID,
		Data:       e,
		SentAt:     time.Now().UTC(),
	}
}

func encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}
