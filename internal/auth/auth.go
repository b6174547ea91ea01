package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ukydev/metro-telemetry/internal/models"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOperatorInactive   = errors.New("operator is inactive")
)

const defaultTokenExpiry = 24 * time.Hour

// Service handles authentication operations
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
	now       func() time.Time
}

// NewService creates a new authentication service
func NewService(secret string, expiry time.Duration) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if expiry <= 0 {
		expiry = defaultTokenExpiry
	}
	return &Service{
		jwtSecret: []byte(secret),
		tokenExp:  expiry,
		now:       time.Now,
	}, nil
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Authenticate checks an operator's credentials.
func (s *Service) Authenticate(op *models.Operator, password string) error {
	if op == nil || !s.CheckPassword(password, op.PasswordHash) {
		return ErrInvalidCredentials
	}
	if !op.IsActive {
		return ErrOperatorInactive
	}
	return nil
}

// GenerateToken generates a JWT token for an operator
func (s *Service) GenerateToken(op *models.Operator) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.tokenExp)
	claims := jwt.MapClaims{
		"username": op.Username,
		"role":     string(op.Role),
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	// Remove "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return nil, ErrInvalidToken
	}

	roleStr, ok := claims["role"].(string)
	if !ok || !models.IsValidRole(models.Role(roleStr)) {
		return nil, ErrInvalidToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		Username: username,
		Role:     models.Role(roleStr),
		Exp:      int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func (s *Service) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
