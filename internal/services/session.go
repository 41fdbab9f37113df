package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"petitionsite/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// Claims 自定义 JWT 负载
type Claims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionService issues and checks session tokens. A token is only valid
// while it is the token stored on the user row, so logout revokes it.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(secret string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionService{secret: []byte(secret), ttl: ttl}
}

// Decode resolves a credential to the user id it was issued for.
func (s *SessionService) Decode(credential string) (uint, error) {
	if credential == "" {
		return 0, errors.New("empty credential")
	}
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, jwt.ErrTokenInvalidClaims
	}
	return claims.UserID, nil
}

// IsCurrentAndValid reports whether credential decodes to userID and is the
// token currently stored for that user.
func (s *SessionService) IsCurrentAndValid(tx *gorm.DB, userID uint, credential string) bool {
	id, err := s.Decode(credential)
	if err != nil || id != userID {
		return false
	}
	var user models.User
	if err := tx.Select("id", "auth_token").First(&user, userID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[session] lookup user %d: %v", userID, err)
		}
		return false
	}
	return user.AuthToken != nil && *user.AuthToken == credential
}

// Issue signs a new token for userID and makes it the user's current one.
func (s *SessionService) Issue(tx *gorm.DB, userID uint) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("auth_token", signed).Error; err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return signed, nil
}

// Revoke clears the user's current token.
func (s *SessionService) Revoke(tx *gorm.DB, userID uint) error {
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("auth_token", nil).Error; err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
