package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"qr-serverless/internal/httpx"
	"qr-serverless/internal/observability"
)

// ErrMissingToken is returned when the request carries no usable bearer token.
var ErrMissingToken = errors.New("missing bearer token")

type contextKey struct{}

// Authenticator turns a bearer token into the Identity it names.
type Authenticator struct {
	tokens     *TokenService
	identities IdentityStore
	logger     *observability.Logger
}

func NewAuthenticator(tokens *TokenService, identities IdentityStore, logger *observability.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, identities: identities, logger: logger}
}

// Authenticate verifies the token before touching storage. A valid token whose
// subject no longer exists yields ErrIdentityNotFound.
func (a *Authenticator) Authenticate(r *http.Request) (Identity, error) {
	token, err := bearerToken(r)
	if err != nil {
		return Identity{}, err
	}

	username, err := a.tokens.Verify(token)
	if err != nil {
		return Identity{}, err
	}

	identity, err := a.identities.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("resolve identity: %w", err)
	}

	return identity, nil
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.Authenticate(r)
		if err != nil {
			a.WriteFailure(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// WriteFailure answers a request whose Authenticate call failed. Lookup
// failures other than a missing identity are reported and become a 500.
func (a *Authenticator) WriteFailure(w http.ResponseWriter, r *http.Request, err error) {
	if WriteAuthError(w, err) {
		return
	}
	observability.ReportError(a.logger, "auth_resolve_failed", err, map[string]any{"path": r.URL.Path})
	httpx.WriteInternal(w)
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}

// WriteAuthError maps an Authenticate failure onto the response. It reports
// false for errors that are not authentication failures, leaving the response
// unwritten so the caller can log the cause first.
func WriteAuthError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, ErrMissingToken):
		unauthorized(w, httpx.CodeUnauthorized, "missing authorization token")
	case errors.Is(err, ErrTokenMalformed):
		unauthorized(w, httpx.CodeTokenMalformed, "malformed token")
	case errors.Is(err, ErrTokenExpired):
		unauthorized(w, httpx.CodeTokenExpired, "token expired")
	case errors.Is(err, ErrTokenInvalid):
		unauthorized(w, httpx.CodeTokenInvalid, "invalid token")
	case errors.Is(err, ErrIdentityNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "user not found")
	default:
		return false
	}
	return true
}

func unauthorized(w http.ResponseWriter, code, message string) {
	challenge := `Bearer realm="qr"`
	if code != httpx.CodeUnauthorized {
		challenge += `, error="invalid_token"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	httpx.WriteError(w, http.StatusUnauthorized, code, message)
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
