package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lexchat/domain"
	apperrors "lexchat/errors"
)

// CustomClaims is the data carried inside the bearer token. The token is
// issued by the user-account collaborator; the realtime layer only
// verifies it and extracts the identity.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a user. Kept for tests and
// tooling; the production issuer lives in the account service.
func GenerateToken(secret []byte, identity domain.Identity, duration time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID:   identity.ID,
		Username: identity.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "lexchat",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken validates the signature and expiration of a bearer token and
// returns the identity it carries.
func VerifyToken(secret []byte, tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return domain.Identity{}, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Identity{}, apperrors.ErrInvalidToken
	}

	return domain.Identity{ID: claims.UserID, Username: claims.Username}, nil
}
