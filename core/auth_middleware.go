package core

import (
	"context"
	"net/http"
	"strings"

	"github.com/putto11262002/websession/pkg/router"
)

type sessionKey struct{}

func contextWithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func sessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(Session)
	return session, ok
}

// SessionFromRequest extracts the session from the request context.
// It must be called in handlers that are protected by the SessionMiddleware.
// It panics if the session is not found in the request context.
func SessionFromRequest(r *http.Request) Session {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		panic("session not found in request context: call this function in handlers that are protected by SessionMiddleware")
	}
	return session
}

// CookieHeader joins every Cookie header of r. HTTP/2 clients may send one header per cookie.
func CookieHeader(r *http.Request) string {
	return strings.Join(r.Header.Values("Cookie"), "; ")
}

// SessionMiddleware identifies the caller from the session cookie and attaches the session to the request context.
// The session is guaranteed to be attached to the request context for subsequent handlers.
func SessionMiddleware(s *SessionService) router.Middleware {
	return func(next http.Handler) router.HandlerFunc {
		return router.HandlerFunc(func(w http.ResponseWriter, r *http.Request) error {
			ctx := r.Context()

			session, err := s.Identify(ctx, CookieHeader(r))
			if err != nil {
				return err
			}

			next.ServeHTTP(w, r.WithContext(contextWithSession(ctx, *session)))
			return nil
		})
	}
}
