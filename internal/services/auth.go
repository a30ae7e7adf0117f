package services

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService resolves caller identities from tokens issued by the external
// authenticator. Credential verification and issuing live outside this
// system; only HS256 validation against the shared secret happens here.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret)}
}

// Identity is a resolved authenticated caller.
type Identity struct {
	UserID string
	Name   string
}

// ValidateToken parses a bearer token and extracts the stable identity.
func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, errors.New("invalid user_id in token")
	}

	name, _ := claims["name"].(string)
	return &Identity{UserID: userID, Name: name}, nil
}
