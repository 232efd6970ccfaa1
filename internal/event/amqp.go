package event

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	defaultAMQPQueueSize = 1024
	minRedialDelay       = time.Second
	maxRedialDelay       = 30 * time.Second
)

var (
	// ErrPublisherClosed возвращается после Close
	ErrPublisherClosed = errors.New("amqp publisher is closed")
	// ErrPublishQueueFull означает, что буфер событий переполнен и событие отброшено
	ErrPublishQueueFull = errors.New("amqp publish queue is full")
)

// amqpSession: открытый канал брокера с объявленным exchange
type amqpSession interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc открывает сессию и возвращает канал уведомления о разрыве соединения
type dialFunc func() (amqpSession, <-chan *amqp.Error, error)

// AMQPPublisher пересылает доменные события в topic exchange.
// Handle только кладет событие в буфер; отправку и переподключение ведет отдельная горутина.
type AMQPPublisher struct {
	exchange string
	dial     dialFunc
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Event
	done   chan struct{}

	// состояние ниже принадлежит горутине run
	session     amqpSession
	notifyClose <-chan *amqp.Error
	redialDelay time.Duration
	nextDial    time.Time
	dropped     int
}

// connSession объединяет соединение и канал, чтобы закрывать их вместе
type connSession struct {
	conn *amqp.Connection
	*amqp.Channel
}

func (s *connSession) Close() error {
	_ = s.Channel.Close()
	return s.conn.Close()
}

func amqpDialer(amqpURL, exchange string) dialFunc {
	return func() (amqpSession, <-chan *amqp.Error, error) {
		conn, err := amqp.Dial(amqpURL)
		if err != nil {
			return nil, nil, err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		err = ch.ExchangeDeclare(
			exchange,
			"topic",
			true,  // durable
			false, // auto-deleted
			false, // internal
			false, // no-wait
			nil,
		)
		if err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, err
		}
		return &connSession{conn: conn, Channel: ch}, conn.NotifyClose(make(chan *amqp.Error, 1)), nil
	}
}

// NewAMQPPublisher подключается к брокеру и объявляет durable topic exchange.
// Первое подключение синхронное: недоступный брокер при старте возвращает ошибку.
func NewAMQPPublisher(amqpURL, exchange string, logger *zap.Logger) (*AMQPPublisher, error) {
	p := newAMQPPublisher(exchange, amqpDialer(amqpURL, exchange), defaultAMQPQueueSize, logger)
	if err := p.connect(); err != nil {
		return nil, err
	}
	go p.run()
	logger.Info("[AMQP] Публикация событий включена", zap.String("exchange", exchange))
	return p, nil
}

func newAMQPPublisher(exchange string, dial dialFunc, queueSize int, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		exchange:    exchange,
		dial:        dial,
		logger:      logger,
		queue:       make(chan Event, queueSize),
		done:        make(chan struct{}),
		redialDelay: minRedialDelay,
	}
}

// Handle ставит событие в очередь публикации и никогда не блокирует запрос
func (p *AMQPPublisher) Handle(_ context.Context, e Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- e:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

// Close дожидается отправки буфера и закрывает соединение
func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	for {
		select {
		case e, ok := <-p.queue:
			if !ok {
				p.dropSession()
				return
			}
			p.publish(e)
		case amqpErr, ok := <-p.notifyClose:
			// nil-канал (нет сессии) в select не срабатывает
			if ok && amqpErr != nil {
				p.logger.Warn("[AMQP] Соединение с брокером потеряно", zap.String("reason", amqpErr.Reason))
			} else {
				p.logger.Warn("[AMQP] Соединение с брокером закрыто")
			}
			p.dropSession()
		}
	}
}

// publish отправляет событие; при ошибке переподключается и повторяет один раз
func (p *AMQPPublisher) publish(e Event) {
	body, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("[AMQP] Не удалось сериализовать событие", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    e.OccurredAt,
		Body:         body,
	}

	for attempt := 0; attempt < 2; attempt++ {
		if p.session == nil && !p.tryConnect() {
			break
		}
		err := p.session.Publish(p.exchange, string(e.Type), false, false, msg)
		if err == nil {
			return
		}
		p.logger.Warn("[AMQP] Ошибка публикации, переподключение", zap.String("type", string(e.Type)), zap.Error(err))
		p.dropSession()
	}
	p.dropped++
}

// tryConnect переподключается не чаще, чем позволяет экспоненциальная задержка
func (p *AMQPPublisher) tryConnect() bool {
	if time.Now().Before(p.nextDial) {
		return false
	}
	if err := p.connect(); err != nil {
		p.logger.Error("[AMQP] Не удалось переподключиться к брокеру",
			zap.Duration("retry_in", p.redialDelay), zap.Int("dropped_events", p.dropped), zap.Error(err))
		p.nextDial = time.Now().Add(p.redialDelay)
		p.redialDelay = min(p.redialDelay*2, maxRedialDelay)
		return false
	}
	if p.dropped > 0 {
		p.logger.Info("[AMQP] Соединение восстановлено", zap.Int("dropped_events", p.dropped))
		p.dropped = 0
	}
	return true
}

func (p *AMQPPublisher) connect() error {
	session, notify, err := p.dial()
	if err != nil {
		return err
	}
	p.session = session
	p.notifyClose = notify
	p.redialDelay = minRedialDelay
	p.nextDial = time.Time{}
	return nil
}

func (p *AMQPPublisher) dropSession() {
	if p.session != nil {
		_ = p.session.Close()
	}
	p.session = nil
	p.notifyClose = nil
}
