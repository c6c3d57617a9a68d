// Package events публикует события леджера о новых подписках.
package events

import (
	"context"
	"sync"

	"github.com/magabrotheeeer/subscription-ledger/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-ledger/internal/models"
)

// AMQPPublisher публикует события в exchange леджера RabbitMQ.
type AMQPPublisher struct {
	mu sync.Mutex
	ch rabbitmq.Channel
}

// NewAMQPPublisher создаёт издателя поверх открытого канала.
func NewAMQPPublisher(ch rabbitmq.Channel) *AMQPPublisher {
	return &AMQPPublisher{ch: ch}
}

// PublishSubscription публикует событие о новой подписке с ключом subscription.created.
func (p *AMQPPublisher) PublishSubscription(_ context.Context, event models.SubscriptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return rabbitmq.PublishMessage(p.ch, rabbitmq.LedgerExchange, rabbitmq.SubscriptionCreatedKey, event)
}

// Recorder сохраняет события в памяти процесса.
type Recorder struct {
	mu     sync.Mutex
	events []models.SubscriptionEvent
}

// NewRecorder создаёт пустой Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// PublishSubscription запоминает событие.
func (r *Recorder) PublishSubscription(_ context.Context, event models.SubscriptionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

// Events возвращает копию сохранённых событий.
func (r *Recorder) Events() []models.SubscriptionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]models.SubscriptionEvent(nil), r.events...)
}
