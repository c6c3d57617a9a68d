package models

import (
	"fmt"
	"time"
)

// Tier — тарифный уровень подписки. Набор уровней закрыт.
type Tier int

const (
	// Monthly — месячный тариф
	Monthly Tier = iota
	// Quarterly — квартальный тариф
	Quarterly
	// HalfYearly — полугодовой тариф
	HalfYearly
	// Yearly — годовой тариф
	Yearly
)

// Tiers возвращает все тарифные уровни в порядке индексов.
func Tiers() []Tier {
	return []Tier{Monthly, Quarterly, HalfYearly, Yearly}
}

// Valid сообщает, входит ли уровень в закрытый набор тарифов.
func (t Tier) Valid() bool {
	return t >= Monthly && t <= Yearly
}

func (t Tier) String() string {
	switch t {
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case HalfYearly:
		return "half_yearly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier разбирает название тарифа либо его числовой индекс.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers() {
		if t.String() == s || fmt.Sprint(int(t)) == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown plan tier %q", s)
}

// Plan — строка таблицы цен и длительностей.
type Plan struct {
	Tier     Tier          `json:"tier"`
	Price    int64         `json:"price"`    // Цена в минимальных единицах валюты
	Duration time.Duration `json:"duration"` // Длительность периода подписки
}

// DurationSeconds возвращает длительность периода в целых секундах.
func (p Plan) DurationSeconds() int64 {
	return int64(p.Duration / time.Second)
}

// Settings — изменяемые администратором настройки леджера.
type Settings struct {
	HandlerAddress string `json:"handler_address"` // Адрес Payment Handler
	RecoveryFee    int64  `json:"recovery_fee"`    // Фиксированная плата за восстановление секрета
}
