package models

import "github.com/google/uuid"

// SubscriptionEvent публикуется один раз для каждого нового подписчика.
// Продления существующих подписок событие не порождают.
type SubscriptionEvent struct {
	ID        uuid.UUID `json:"id"`
	Identity  string    `json:"identity"`
	Timestamp int64     `json:"timestamp"`
	Plan      Tier      `json:"plan"`
}
