package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultIssuer is the issuer fraudd expects and fraud-train issues.
const DefaultIssuer = "fraudd"

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	// Secret is the HMAC-SHA256 key used for HS256 tokens.
	Secret string
	// PublicKeyPEM switches validation to RS256 against this key. Services
	// holding only a public key cannot issue tokens.
	PublicKeyPEM string

	Issuer     string
	Expiration time.Duration
}

// JWTService issues and validates bearer tokens.
type JWTService struct {
	config    JWTConfig
	method    jwt.SigningMethod
	verifyKey any
}

// NewJWTService creates a JWTService. One of Secret or PublicKeyPEM is required.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	svc := &JWTService{config: cfg}
	switch {
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
		}
		svc.method = jwt.SigningMethodRS256
		svc.verifyKey = key
	case cfg.Secret != "":
		svc.method = jwt.SigningMethodHS256
		svc.verifyKey = []byte(cfg.Secret)
	default:
		return nil, errors.New("jwt configuration requires Secret or PublicKeyPEM")
	}
	if svc.config.Expiration == 0 {
		svc.config.Expiration = time.Hour
	}
	return svc, nil
}

// GenerateToken signs a token for subject with the given roles. Only HS256
// services can issue tokens.
func (s *JWTService) GenerateToken(subject string, roles []string) (string, error) {
	if s.method != jwt.SigningMethodHS256 {
		return "", errors.New("cannot generate token: service is validation-only")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Roles: roles,
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.verifyKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses tokenString and checks its signature, lifetime and issuer.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{s.method.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.verifyKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
