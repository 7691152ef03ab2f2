package auth

import (
	"context"
	"net/http"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/lumenmart/api/internal/platform/httpx"
)

const (
	roleClaim  = "role"
	emailClaim = "email"
)

// Identity captures the authenticated principal extracted from a Firebase ID token.
type Identity struct {
	UID   string
	Email string
	Role  string
}

// IsStaff reports whether the identity carries a back-office role.
func (i *Identity) IsStaff() bool {
	if i == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(i.Role)) {
	case "admin", "staff":
		return true
	}
	return false
}

type identityContextKey struct{}

// WithIdentity stores the identity on the context.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext retrieves the identity previously stored by the middleware.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(*Identity)
	return identity, ok && identity != nil
}

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Authenticator wires Firebase token verification into HTTP middleware.
type Authenticator struct {
	verifier TokenVerifier
}

// NewAuthenticator constructs an Authenticator around the provided verifier.
func NewAuthenticator(verifier TokenVerifier) *Authenticator {
	return &Authenticator{verifier: verifier}
}

// RequireFirebaseAuth rejects requests lacking a valid bearer token and
// stores the resulting Identity on the request context.
func (a *Authenticator) RequireFirebaseAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if a == nil || a.verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("auth_unavailable", "authentication unavailable", http.StatusServiceUnavailable))
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}

			token, err := a.verifier.VerifyIDToken(ctx, raw)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "invalid or expired credentials", http.StatusUnauthorized).WithCause(err))
				return
			}

			identity := identityFromToken(token)
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// RequireStaff layers a back-office role check on top of RequireFirebaseAuth.
func (a *Authenticator) RequireStaff() func(http.Handler) http.Handler {
	authn := a.RequireFirebaseAuth()
	return func(next http.Handler) http.Handler {
		return authn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity, ok := IdentityFromContext(ctx)
			if !ok || !identity.IsStaff() {
				httpx.WriteError(ctx, w, httpx.NewError("forbidden", "staff access required", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func identityFromToken(token *firebaseauth.Token) *Identity {
	identity := &Identity{UID: token.UID}
	if value, ok := token.Claims[emailClaim].(string); ok {
		identity.Email = strings.TrimSpace(value)
	}
	if value, ok := token.Claims[roleClaim].(string); ok {
		identity.Role = strings.TrimSpace(value)
	}
	return identity
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
