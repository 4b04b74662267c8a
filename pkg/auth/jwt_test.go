package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/med2305/mlops/pkg/auth"
)

func newService(t *testing.T, secret string, expiration time.Duration) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: secret, Issuer: "fraudd-test", Expiration: expiration})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newService(t, "test-secret", 15*time.Minute)

	token, err := svc.GenerateToken("batch-scorer", []string{auth.RoleScorer})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "batch-scorer", claims.Subject)
	assert.Equal(t, "fraudd-test", claims.Issuer)
	assert.True(t, claims.HasRole(auth.RoleScorer))
	assert.False(t, claims.HasRole(auth.RoleAdmin))
}

func TestValidateToken_Rejects(t *testing.T) {
	good := newService(t, "secret-one", 15*time.Minute)

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"expired", func(t *testing.T) string {
			tok, err := newService(t, "secret-one", -time.Hour).GenerateToken("x", nil)
			require.NoError(t, err)
			return tok
		}},
		{"wrong secret", func(t *testing.T) string {
			tok, err := newService(t, "secret-two", time.Hour).GenerateToken("x", nil)
			require.NoError(t, err)
			return tok
		}},
		{"wrong issuer", func(t *testing.T) string {
			svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "secret-one", Issuer: "someone-else"})
			require.NoError(t, err)
			tok, err := svc.GenerateToken("x", nil)
			require.NoError(t, err)
			return tok
		}},
		{"garbage", func(*testing.T) string { return "not-a-token" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := good.ValidateToken(tt.token(t))
			assert.Error(t, err)
		})
	}
}

func TestJWTService_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := auth.NewJWTService(auth.JWTConfig{PublicKeyPEM: string(pubPEM)})
	require.NoError(t, err)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "gateway", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Roles:            []string{auth.RoleModelReader},
	}).SignedString(key)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(auth.RoleModelReader))

	_, err = svc.GenerateToken("x", nil)
	assert.Error(t, err, "validation-only services cannot issue tokens")

	_, err = auth.NewJWTService(auth.JWTConfig{})
	assert.Error(t, err)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newService(t, "test-secret", time.Hour)
	interceptor := auth.UnaryAuthInterceptor(svc, []string{"/grpc.health.v1.Health/Check"})
	token, err := svc.GenerateToken("caller", []string{auth.RoleScorer})
	require.NoError(t, err)

	var seen *auth.Claims
	handler := func(ctx context.Context, _ any) (any, error) {
		seen, _ = auth.ClaimsFromContext(ctx)
		return "ok", nil
	}
	info := func(method string) *grpc.UnaryServerInfo { return &grpc.UnaryServerInfo{FullMethod: method} }

	t.Run("valid bearer token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
		_, err := interceptor(ctx, nil, info("/fraudml.v1.FraudScoringService/Predict"), handler)
		require.NoError(t, err)
		require.NotNil(t, seen)
		assert.Equal(t, "caller", seen.Subject)
	})

	t.Run("skipped method", func(t *testing.T) {
		_, err := interceptor(context.Background(), nil, info("/grpc.health.v1.Health/Check"), handler)
		assert.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.MD{})
		_, err := interceptor(ctx, nil, info("/fraudml.v1.FraudScoringService/Predict"), handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("invalid token", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer nope"))
		_, err := interceptor(ctx, nil, info("/fraudml.v1.FraudScoringService/Predict"), handler)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}

func TestRequireRole(t *testing.T) {
	ctx := auth.ContextWithClaims(context.Background(), &auth.Claims{Roles: []string{auth.RoleModelReader}})

	assert.NoError(t, auth.RequireRole(ctx, auth.RoleAdmin, auth.RoleModelReader))
	assert.Equal(t, codes.PermissionDenied, status.Code(auth.RequireRole(ctx, auth.RoleScorer)))
	assert.Equal(t, codes.Unauthenticated, status.Code(auth.RequireRole(context.Background(), auth.RoleScorer)))
}
