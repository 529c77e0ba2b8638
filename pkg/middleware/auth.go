package middleware

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// AuthConfig enables bearer-token verification against an OIDC issuer.
// Auth is disabled when Issuer is empty.
type AuthConfig struct {
	Issuer   string `toml:"issuer"`
	Audience string `toml:"audience"`
}

// AuthEnv maps auth config fields to environment variable names.
type AuthEnv struct {
	Issuer   string
	Audience string
}

// Enabled reports whether an issuer is configured.
func (c *AuthConfig) Enabled() bool {
	return c.Issuer != ""
}

// Finalize applies environment variable overrides and validation.
func (c *AuthConfig) Finalize(env *AuthEnv) error {
	if env != nil {
		if v := os.Getenv(env.Issuer); env.Issuer != "" && v != "" {
			c.Issuer = v
		}
		if v := os.Getenv(env.Audience); env.Audience != "" && v != "" {
			c.Audience = v
		}
	}
	if c.Enabled() && c.Audience == "" {
		return fmt.Errorf("audience required when issuer is set")
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.Audience != "" {
		c.Audience = overlay.Audience
	}
}

// TokenVerifier verifies a raw bearer token.
// *oidc.IDTokenVerifier satisfies it through VerifierFunc.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) error
}

// VerifierFunc adapts a function to TokenVerifier.
type VerifierFunc func(ctx context.Context, rawToken string) error

func (f VerifierFunc) Verify(ctx context.Context, rawToken string) error {
	return f(ctx, rawToken)
}

// NewOIDCVerifier discovers the issuer and returns a verifier for the configured audience.
func NewOIDCVerifier(ctx context.Context, cfg *AuthConfig) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc issuer %s: %w", cfg.Issuer, err)
	}

	v := provider.Verifier(&oidc.Config{ClientID: cfg.Audience})
	return VerifierFunc(func(ctx context.Context, raw string) error {
		_, err := v.Verify(ctx, raw)
		return err
	}), nil
}

// Auth returns middleware that rejects requests without a valid bearer token.
func Auth(verifier TokenVerifier) Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			if err := verifier.Verify(r.Context(), raw); err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
