package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Service signs in users and issues and verifies HS256 session tokens.
type Service struct {
	store  *Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates an auth service. An empty secret makes the service
// generate a random one, which invalidates tokens on every restart.
func NewService(store *Store, secret string, ttl time.Duration) *Service {
	key := []byte(secret)
	if len(key) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("auth: reading random secret: %v", err))
		}
		key = []byte(hex.EncodeToString(buf))
		log.Warn("auth: no jwt secret configured, using a random one; sessions will not survive a restart")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{store: store, secret: key, ttl: ttl, now: time.Now}
}

// Store returns the underlying user store.
func (s *Service) Store() *Store { return s.store }

// Login checks the email and password and returns a signed token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	if normalizeEmail(email) == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}
	u, hash, err := s.store.credentials(ctx, normalizeEmail(email))
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.Issue(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Issue signs a token for u valid for the service TTL.
func (s *Service) Issue(u *User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token signed by this service.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	email, _ := mc["email"].(string)
	exp, _ := mc["exp"].(float64)
	return &Claims{UserID: sub, Email: email, ExpiresAt: time.Unix(int64(exp), 0)}, nil
}
