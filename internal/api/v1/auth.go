package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/helpdeskhq/helpdesk/internal/server"
)

type contextKey string

const userIDContextKey contextKey = "userID"

// userIDFromContext returns the authenticated user ID set by AuthMiddleware.
func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok && id != ""
}

// AuthMiddleware verifies the HS256 bearer token of the request and stores
// its subject in the request context. When no JWT secret is configured every
// request passes through unauthenticated.
//
// Usage:
//
//	handler := AuthMiddleware(srv, NotificationPreferencesHandler(srv))
func AuthMiddleware(srv server.Server, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(srv.JWTSecret) == 0 || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			srv.Logger.Warn("missing authorization header",
				"path", r.URL.Path,
				"method", r.Method,
			)
			respondError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			srv.Logger.Warn("invalid authorization header format",
				"path", r.URL.Path,
				"method", r.Method,
			)
			respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		sub, err := verifyToken(token, srv.JWTSecret)
		if err != nil {
			srv.Logger.Warn("invalid bearer token",
				"error", err,
				"path", r.URL.Path,
				"method", r.Method,
			)
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey, sub)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// verifyToken parses an HS256 token and returns its subject.
func verifyToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
