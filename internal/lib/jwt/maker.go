// Package jwt реализует выпуск и проверку JWT токенов, удостоверяющих
// идентификатор вызывающего.
package jwt

import (
	"time"
)

// Maker описывает выпуск и разбор токенов.
type Maker interface {
	GenerateToken(identity string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены секретным ключом по HS256.
type MakerImpl struct {
	secretKey []byte
	tokenTTL  time.Duration
	issuer    string
}

// NewJWTMaker создаёт MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		issuer:    "subscription-ledger",
	}
}
