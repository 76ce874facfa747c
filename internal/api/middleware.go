package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	domainincident "insiden/internal/domain/incident"
	"insiden/internal/ports"
)

type actorKey struct{}

func withActor(ctx context.Context, actor ports.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFromContext(ctx context.Context) (ports.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(ports.Actor)
	return actor, ok
}

// requireAuth resolves the bearer token to an active user and stores the
// acting principal (id + role set) in the request context. Everything behind
// it can trust the actor as authenticated.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		userID, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, ports.ErrUserNotFound) {
				writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "Unknown user")
				return
			}
			writeUsecaseError(ctx, w, err)
			return
		}
		if !user.IsActive {
			writeError(ctx, w, http.StatusForbidden, "forbidden", "User is inactive")
			return
		}

		actor := ports.Actor{
			ID:    user.ID,
			Email: user.Email,
			Roles: domainincident.NormalizeRoles(user.Roles),
		}
		next.ServeHTTP(w, r.WithContext(withActor(ctx, actor)))
	})
}

// requireRole gates a route on the actor holding at least one of the named
// roles. Finer checks (ownership, transition legality) stay in the usecases.
func requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			actor, ok := actorFromContext(ctx)
			if !ok {
				writeError(ctx, w, http.StatusUnauthorized, "unauthorized", "Missing actor")
				return
			}
			if !domainincident.HasAnyRole(actor.Roles, roles...) {
				writeError(ctx, w, http.StatusForbidden, "insufficient_role",
					"Requires one of: "+strings.Join(roles, ", "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
