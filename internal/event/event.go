// Package event содержит типизированную шину доменных событий.
// Сервисы публикуют события, подписчики (аналитика, AMQP, WebSocket, метрики)
// обрабатывают их; ошибка или паника подписчика не влияет на исходный запрос.
package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type: тип доменного события; используется как routing key в AMQP
type Type string

const (
	ParticipantRegistered Type = "participant.registered"
	QuizStarted           Type = "quiz.started"
	QuizCompleted         Type = "quiz.completed"
	GiftAwarded           Type = "gift.awarded"
	GiftClaimed           Type = "gift.claimed"
	CampaignChanged       Type = "campaign.changed"
)

// Event описывает произошедшее доменное событие
type Event struct {
	Type          Type                   `json:"type"`
	CampaignID    uint                   `json:"campaign_id"`
	ParticipantID *uint                  `json:"participant_id,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// New создает событие с текущим временем
func New(t Type, campaignID uint, participantID *uint, data map[string]interface{}) Event {
	return Event{
		Type:          t,
		CampaignID:    campaignID,
		ParticipantID: participantID,
		Data:          data,
		OccurredAt:    time.Now().UTC(),
	}
}

// Publisher публикует события; реализуется шиной
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// HandlerFunc обрабатывает событие
type HandlerFunc func(ctx context.Context, e Event) error

type subscription struct {
	name    string
	handler HandlerFunc
}

// Bus: синхронная in-process шина событий
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *zap.Logger
}

// NewBus создает шину
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe регистрирует обработчик под именем (имя используется в логах)
func (b *Bus) Subscribe(name string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, handler: handler})
}

// Publish вызывает всех подписчиков по очереди.
// Отмена контекста запроса не прерывает обработку: событие уже произошло.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	for _, sub := range subs {
		if err := b.dispatch(detached, sub, e); err != nil {
			b.logger.Warn("[EventBus] Подписчик не обработал событие",
				zap.String("subscriber", sub.name),
				zap.String("type", string(e.Type)),
				zap.Uint("campaign_id", e.CampaignID),
				zap.Error(err))
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, sub subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return sub.handler(ctx, e)
}

// Nop: публикатор, игнорирующий события
type Nop struct{}

// Publish ничего не делает
func (Nop) Publish(context.Context, Event) {}
