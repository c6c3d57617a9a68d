package rabbitmq

// LedgerExchange — exchange, в который публикуются события леджера.
const LedgerExchange = "ledger"

// SubscriptionCreatedKey — routing key события о новой подписке.
const SubscriptionCreatedKey = "subscription.created"

// QueueConfig описывает очередь и ключ, с которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetLedgerQueues возвращает очереди, объявляемые при старте сервиса.
func GetLedgerQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "ledger.subscription.created", RoutingKey: SubscriptionCreatedKey},
	}
}
