package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ResetClaims carry the subject of a password recovery token.
type ResetClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

func GenerateResetToken(secret, uid string, dur time.Duration) (string, error) {
	claims := ResetClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(dur)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func VerifyResetToken(secret, tokenString string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Wrap(ErrInvalidSigningMethod, token.Header["alg"].(string))
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*ResetClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// IsValidResetToken reports the uid a token was issued for, when the token
// still verifies.
func IsValidResetToken(secret, tokenString string) (string, bool) {
	claims, err := VerifyResetToken(secret, tokenString)
	if err != nil {
		return "", false
	}
	return claims.UID, true
}
