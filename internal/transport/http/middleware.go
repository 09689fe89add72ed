package http

import (
	"context"
	"net/http"
)

// FleetResolver maps an API key to the fleet it belongs to.
type FleetResolver interface {
	Resolve(ctx context.Context, apiKey string) (string, bool)
}

type fleetKey struct{}

// FleetFromContext returns the fleet resolved by AuthMiddleware.
func FleetFromContext(ctx context.Context) string {
	fleetID, _ := ctx.Value(fleetKey{}).(string)
	return fleetID
}

func WithFleet(ctx context.Context, fleetID string) context.Context {
	return context.WithValue(ctx, fleetKey{}, fleetID)
}

type AuthMiddleware struct {
	auth FleetResolver
}

func NewAuthMiddleware(a FleetResolver) *AuthMiddleware {
	return &AuthMiddleware{auth: a}
}

// Wrap rejects requests without a valid key. Browsers cannot set headers on
// a websocket handshake, so the api_key query parameter is accepted too.
func (m *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "missing X-API-Key header")
			return
		}

		fleetID, ok := m.auth.Resolve(r.Context(), apiKey)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithFleet(r.Context(), fleetID)))
	})
}
