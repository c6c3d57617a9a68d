package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyIdentity возвращается при выпуске или разборе токена без идентификатора.
var ErrEmptyIdentity = errors.New("jwt: empty identity")

// CustomClaims хранит идентификатор вызывающего в поле sub.
type CustomClaims struct {
	jwt.RegisteredClaims
}

// Identity возвращает идентификатор вызывающего.
func (c *CustomClaims) Identity() string {
	return c.Subject
}

// GenerateToken создаёт токен для identity со сроком жизни tokenTTL.
func (j *MakerImpl) GenerateToken(identity string) (string, error) {
	const op = "jwt.GenerateToken"
	if identity == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyIdentity)
	}
	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ParseToken проверяет подпись, алгоритм, срок действия и издателя токена.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Identity() == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyIdentity)
	}
	return claims, nil
}
