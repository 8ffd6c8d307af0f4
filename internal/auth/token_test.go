package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-predictable-results"

func TestGenerateResetToken(t *testing.T) {
	tests := []struct {
		name     string
		uid      string
		duration time.Duration
	}{
		{
			name:     "success: hour-long token",
			uid:      "alice",
			duration: time.Hour,
		},
		{
			name:     "success: short-lived token",
			uid:      "bob",
			duration: 15 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenString, err := GenerateResetToken(testSecret, tt.uid, tt.duration)
			require.NoError(t, err)
			require.NotEmpty(t, tokenString)

			claims, err := VerifyResetToken(testSecret, tokenString)
			require.NoError(t, err)
			assert.Equal(t, tt.uid, claims.UID)
			assert.WithinDuration(t, time.Now().Add(tt.duration), claims.ExpiresAt.Time, time.Second*5)
		})
	}
}

func TestVerifyResetToken(t *testing.T) {
	validToken, _ := GenerateResetToken(testSecret, "alice", time.Hour)

	expiredToken, _ := GenerateResetToken(testSecret, "alice", -time.Hour)

	claimsWithWrongMethod := ResetClaims{
		UID: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tokenWithWrongMethod := jwt.NewWithClaims(jwt.SigningMethodNone, claimsWithWrongMethod)
	wrongMethodTokenString, _ := tokenWithWrongMethod.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name              string
		secret            string
		tokenString       string
		expectError       bool
		expectedErrorType error
		expectedUID       string
	}{
		{
			name:        "success: verify valid token",
			secret:      testSecret,
			tokenString: validToken,
			expectedUID: "alice",
		},
		{
			name:              "failure: expired token",
			secret:            testSecret,
			tokenString:       expiredToken,
			expectError:       true,
			expectedErrorType: jwt.ErrTokenExpired,
		},
		{
			name:              "failure: wrong secret",
			secret:            "different-secret-key",
			tokenString:       validToken,
			expectError:       true,
			expectedErrorType: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:              "failure: malformed token",
			secret:            testSecret,
			tokenString:       "not-a-valid-jwt-token",
			expectError:       true,
			expectedErrorType: jwt.ErrTokenMalformed,
		},
		{
			name:              "failure: wrong signing method",
			secret:            testSecret,
			tokenString:       wrongMethodTokenString,
			expectError:       true,
			expectedErrorType: ErrInvalidSigningMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := VerifyResetToken(tt.secret, tt.tokenString)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErrorType)
				assert.Nil(t, claims)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, claims)
				assert.Equal(t, tt.expectedUID, claims.UID)
			}
		})
	}
}

func TestIsValidResetToken(t *testing.T) {
	validToken, _ := GenerateResetToken(testSecret, "alice", time.Hour)
	expiredToken, _ := GenerateResetToken(testSecret, "alice", -time.Hour)

	tests := []struct {
		name        string
		tokenString string
		expectedOK  bool
		expectedUID string
	}{
		{
			name:        "success: valid token",
			tokenString: validToken,
			expectedOK:  true,
			expectedUID: "alice",
		},
		{
			name:        "failure: expired token",
			tokenString: expiredToken,
		},
		{
			name:        "failure: garbage token",
			tokenString: "invalid-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid, ok := IsValidResetToken(testSecret, tt.tokenString)
			assert.Equal(t, tt.expectedOK, ok)
			assert.Equal(t, tt.expectedUID, uid)
		})
	}
}
