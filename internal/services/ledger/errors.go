package ledger

import "errors"

// Ошибки леджера. Любая из них завершает операцию без частичных изменений.
var (
	ErrInvalidIdentity       = errors.New("ledger: invalid identity")
	ErrInvalidPlan           = errors.New("ledger: invalid plan")
	ErrInvalidAmount         = errors.New("ledger: invalid amount")
	ErrPaymentMismatch       = errors.New("ledger: payment mismatch")
	ErrPaymentTransferFailed = errors.New("ledger: payment transfer failed")
	ErrSelfGiftRejected      = errors.New("ledger: self gift rejected")
	ErrNotAuthorized         = errors.New("ledger: not authorized")
	ErrKeyMismatch           = errors.New("ledger: key mismatch")
	ErrUnknownSubscriber     = errors.New("ledger: unknown subscriber")
	ErrNoOpConfigChange      = errors.New("ledger: config value unchanged")
	ErrReentrantCall         = errors.New("ledger: reentrant call")
)
