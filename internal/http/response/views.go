package response

import "github.com/magabrotheeeer/subscription-ledger/internal/models"

// Subscription — публичное представление записи подписчика без секрета.
type Subscription struct {
	Identity   string `json:"identity"`
	Index      int64  `json:"index"`
	ValidUntil int64  `json:"valid_until"`
}

// FromSubscriber строит Subscription из записи подписчика.
func FromSubscriber(sub models.Subscriber) Subscription {
	return Subscription{
		Identity:   sub.Identity,
		Index:      sub.Index,
		ValidUntil: sub.ValidUntil,
	}
}

// Plan — условия тарифа с длительностью в секундах.
type Plan struct {
	Tier            string `json:"tier"`
	Index           int    `json:"index"`
	Price           int64  `json:"price"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// FromPlan строит Plan из условий тарифа.
func FromPlan(p models.Plan) Plan {
	return Plan{
		Tier:            p.Tier.String(),
		Index:           int(p.Tier),
		Price:           p.Price,
		DurationSeconds: p.DurationSeconds(),
	}
}
