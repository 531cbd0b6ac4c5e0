package crypto

import (
	"charades/domain"
	"charades/entitlement"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type entitlementClaims struct {
	Device  string `json:"device"`
	Premium bool   `json:"premium"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secretKey []byte
	maxAge    time.Duration
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
	}
}

func (m *JWTManager) Generate(deviceId string, premium bool, now time.Time) (string, error) {
	claims := entitlementClaims{
		Device:  deviceId,
		Premium: premium,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)

	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.UnexpectedTokenGenerationError, err)
	}

	return signedToken, nil
}

func (m *JWTManager) Verify(tokenString string) (entitlement.Entitlement, error) {
	token, err := jwt.ParseWithClaims(tokenString, &entitlementClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSigningAlg):
			return entitlement.Entitlement{}, err
		case errors.Is(err, jwt.ErrTokenExpired):
			return entitlement.Entitlement{}, domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return entitlement.Entitlement{}, domain.ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return entitlement.Entitlement{}, domain.ErrCorruptedToken
		default:
			return entitlement.Entitlement{}, fmt.Errorf("%w: %w", domain.UnexpectedTokenVerificationError, err)
		}
	}

	if claims, ok := token.Claims.(*entitlementClaims); ok && token.Valid {
		return entitlement.Entitlement{DeviceId: claims.Device, Premium: claims.Premium}, nil
	}

	return entitlement.Entitlement{}, domain.ErrCorruptedToken
}
