// Package models содержит доменные структуры леджера подписок: запись подписчика,
// тарифные планы, настройки леджера и событие о новой подписке.
package models

// Subscriber представляет собой запись подписчика в леджере.
//
// Index — позиция записи в последовательности записей, назначается один раз при
// первой подписке и одновременно служит порядковым номером подписчика.
// Запись с индексом 0 — genesis-запись владельца, созданная при инициализации.
type Subscriber struct {
	Identity   string `json:"identity"`    // Адрес/идентификатор плательщика
	Index      int64  `json:"index"`       // Позиция в последовательности записей
	ValidUntil int64  `json:"valid_until"` // Unix-время (секунды), после которого доступ истекает
	SecretKey  string `json:"secret_key"`  // Разделяемый секрет, сравнивается только на точное равенство
}

// GenesisIndex — индекс genesis-записи владельца.
const GenesisIndex int64 = 0

// ActiveAt сообщает, действует ли подписка в момент now (unix-секунды).
func (s Subscriber) ActiveAt(now int64) bool {
	return s.ValidUntil > now
}

// IsGenesis сообщает, является ли запись genesis-записью.
func (s Subscriber) IsGenesis() bool {
	return s.Index == GenesisIndex
}
