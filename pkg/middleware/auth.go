// Package middleware provides framework-neutral route middleware for the
// HTTP provider: bearer and JWT authentication and per-client rate limiting.
package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/pkg/config"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
)

// Locals set by JWT.
const (
	LocalUserID = "user_id"
	LocalClaims = "claims"
)

// GenerateToken generates a cryptographically secure random token for
// BearerToken. The token is 32 bytes encoded as 64 hex characters.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func unauthorized(res httpprovider.Response, message string) error {
	res.Status(http.StatusUnauthorized).JSON(map[string]string{"error": message})
	return res.Err()
}

// bearer extracts the token from an "Authorization: Bearer <token>" header.
// It returns the client-facing error message when the header is unusable.
func bearer(req httpprovider.Request) (string, string) {
	authHeader := req.Header("Authorization")
	if authHeader == "" {
		return "", "Authorization header required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "Invalid authorization header format"
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", "Token required"
	}
	return token, ""
}

// BearerToken returns a middleware accepting only requests that present
// the given static token. The comparison runs in constant time.
func BearerToken(token string, logger *zap.Logger) httpprovider.Middleware {
	logger = logger.Named("bearer")
	return func(req httpprovider.Request, res httpprovider.Response, next httpprovider.Next) error {
		got, msg := bearer(req)
		if msg != "" {
			return unauthorized(res, msg)
		}

		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.Warn("Invalid bearer token attempt",
				zap.String("ip", req.IP()),
				zap.String("path", req.Path()))
			return unauthorized(res, "Invalid token")
		}

		next()
		return nil
	}
}

// JWT returns a middleware validating HMAC-signed tokens against
// cfg.Secret. The subject's user_id claim and the full claim set are
// stored as locals for later stages.
func JWT(cfg config.JWTConfig, logger *zap.Logger) httpprovider.Middleware {
	logger = logger.Named("jwt")

	var opts []jwt.ParserOption
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}

	return func(req httpprovider.Request, res httpprovider.Response, next httpprovider.Next) error {
		tokenString, msg := bearer(req)
		if msg != "" {
			return unauthorized(res, msg)
		}

		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, keyFunc)
		if err != nil || !token.Valid {
			logger.Debug("Invalid token", zap.Error(err))
			return unauthorized(res, "Invalid token")
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			return unauthorized(res, "Invalid user ID in token")
		}

		res.SetLocal(LocalUserID, userID).SetLocal(LocalClaims, claims)
		next()
		return nil
	}
}

// UserID returns the user ID stored by JWT.
func UserID(req httpprovider.Request) (string, bool) {
	v, ok := req.Local(LocalUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
