package api

import (
	"log/slog"
	"net/http"

	"github.com/hirehub/interview-engine/internal/models"
)

// IdentityMiddleware resolves the calling party from the trusted
// X-User-ID / X-User-Role headers injected by the upstream gateway.
// Websocket clients cannot set headers, so user_id / role query
// parameters are accepted as a fallback.
type IdentityMiddleware struct{}

// NewIdentityMiddleware creates new identity middleware
func NewIdentityMiddleware() *IdentityMiddleware {
	return &IdentityMiddleware{}
}

// Resolve extracts the party and stores it in the request context,
// rejecting requests without a usable identity
func (m *IdentityMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		party := extractParty(r)
		if party.UserID == "" {
			respondError(w, http.StatusUnauthorized, "missing_identity", "X-User-ID header is required")
			return
		}
		if party.Role != models.RoleRecruiter && party.Role != models.RoleApplicant {
			slog.Warn("request with unknown role", "role", party.Role, "user_id", party.UserID)
			respondError(w, http.StatusUnauthorized, "invalid_identity", "X-User-Role must be RECRUITER or APPLICANT")
			return
		}

		ctx := ContextWithParty(r.Context(), party)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractParty(r *http.Request) models.Party {
	userID := r.Header.Get("X-User-ID")
	role := r.Header.Get("X-User-Role")

	if userID == "" {
		userID = r.URL.Query().Get("user_id")
	}
	if role == "" {
		role = r.URL.Query().Get("role")
	}

	return models.Party{
		UserID: userID,
		Role:   models.Role(role),
	}
}
