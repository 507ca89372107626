// Package auth issues and validates the HS256 access tokens used by the API.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sharedshoppinglist/internal/common"
	"sharedshoppinglist/internal/server/models"
)

// Claims extends the registered claims with the user's email. The subject
// carries the user ID, the token ID (jti) binds the access token to its
// refresh token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, common.ErrInvalidToken
	}
	return id, nil
}

// TokenManager signs and parses access tokens with a single HS256 key.
type TokenManager struct {
	secret   []byte
	validity time.Duration
}

func NewTokenManager(secret []byte, validity time.Duration) *TokenManager {
	return &TokenManager{secret: secret, validity: validity}
}

// Validity reports the configured access token lifetime.
func (m *TokenManager) Validity() time.Duration {
	return m.validity
}

// Issue signs a token for user and returns it together with the generated
// token ID and expiry.
func (m *TokenManager) Issue(user *models.User) (string, string, time.Time, error) {
	jti := uuid.NewString()
	expiresAt := time.Now().Add(m.validity)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: user.Email,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}

	return signed, jti, expiresAt, nil
}

// Parse verifies the signature and returns the claims. Only HS256 is
// accepted. With enforceExpiry false the signature is still checked but an
// expired token parses fine, which token rotation relies on.
func (m *TokenManager) Parse(raw string, enforceExpiry bool) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !enforceExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
