package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	RequesterKey contextKey = "requester"

	ScopeClaim = "scope"
	ScopeAdmin = "ADMIN"
)

// Authenticator validates HS256 bearer tokens. The subject becomes the
// requester id and scope ADMIN grants admin rights.
type Authenticator struct {
	secret []byte
	leeway time.Duration
	log    *logger.Logger
}

func NewAuthenticator(secret string, log *logger.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(strings.TrimSpace(secret)),
		leeway: 30 * time.Second,
		log:    log,
	}
}

func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearer(r.Header.Get("Authorization"))
		if tokenString == "" {
			writeUnauthorized(w, a.log, "missing bearer token")
			return
		}

		requester, err := a.Parse(tokenString)
		if err != nil {
			a.log.Warn("Token validation failed",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"error", err,
			)
			writeUnauthorized(w, a.log, "invalid token")
			return
		}

		ctx := WithRequester(r.Context(), requester)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Parse verifies tokenString and extracts the requester it names.
func (a *Authenticator) Parse(tokenString string) (model.Requester, error) {
	if len(a.secret) == 0 {
		return model.Requester{}, errors.New("auth secret not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.leeway), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return model.Requester{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Requester{}, errors.New("token invalid")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return model.Requester{}, errors.New("token has no subject")
	}

	scope, _ := claims[ScopeClaim].(string)
	return model.Requester{
		ID:    subject,
		Admin: hasScope(scope, ScopeAdmin),
	}, nil
}

func WithRequester(ctx context.Context, requester model.Requester) context.Context {
	return context.WithValue(ctx, RequesterKey, requester)
}

func RequesterFromContext(ctx context.Context) (model.Requester, bool) {
	requester, ok := ctx.Value(RequesterKey).(model.Requester)
	return requester, ok
}

// hasScope accepts a single scope or a space separated list.
func hasScope(scopes, want string) bool {
	for _, s := range strings.Fields(scopes) {
		if s == want {
			return true
		}
	}
	return false
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(w http.ResponseWriter, log *logger.Logger, message string) {
	if err := httputil.WriteError(w, apperrors.Unauthorized(message)); err != nil {
		log.Error("failed to write error response", "middleware", "Authenticate", "operation", "WriteError", "error", err)
	}
}
