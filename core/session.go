package core

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/putto11262002/websession/pkg/cookie"
	"github.com/putto11262002/websession/pkg/password"
	"github.com/putto11262002/websession/pkg/token"
)

const SessionCookieName = "auth_token"

var validate = validator.New(validator.WithRequiredStructEnabled())

// State is where a request stands in the authentication flow.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Rejected
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a session operation.
type Session struct {
	State State
	// User is nil unless State is Authenticated.
	User *PublicUser
	// SetCookie is the Set-Cookie header value to send, empty when the cookie is left unchanged.
	SetCookie string
	ExpiresAt time.Time
}

type SessionOptions struct {
	// Secure marks the session cookie Secure. Set it in production.
	Secure bool
	Logger *slog.Logger
}

// SessionService implements login, identify and logout on top of a user store
// and a token service. It holds no per-session state.
type SessionService struct {
	users  UserStore
	tokens *token.Service
	secure bool
	logger *slog.Logger
}

func NewSessionService(users UserStore, tokens *token.Service, opts SessionOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		users:  users,
		tokens: tokens,
		secure: opts.Secure,
		logger: logger,
	}
}

func (s *SessionService) activeAttributes() cookie.Attributes {
	return cookie.Attributes{
		HttpOnly: true,
		Path:     "/",
		SameSite: cookie.SameSiteLax,
		MaxAge:   int(s.tokens.TTL() / time.Second),
		Secure:   s.secure,
	}
}

func (s *SessionService) clearedAttributes() cookie.Attributes {
	attrs := s.activeAttributes()
	attrs.MaxAge = 0
	return attrs
}

func (s *SessionService) transition(ctx context.Context, from, to State, args ...any) {
	s.logger.DebugContext(ctx, "session state",
		append([]any{slog.String("from", from.String()), slog.String("to", to.String())}, args...)...)
}

// Login verifies the credentials in input and issues a session cookie.
// Unknown usernames and wrong passwords fail identically.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	s.transition(ctx, Anonymous, Authenticating)

	if err := validate.Struct(input); err != nil {
		s.transition(ctx, Authenticating, Rejected, slog.String("cause", "missing fields"))
		return nil, NewValidationError(MsgMissingCredentials)
	}

	user, err := s.users.GetUserByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	if user == nil {
		s.logger.InfoContext(ctx, "login failed", slog.String("username", input.Username))
		s.transition(ctx, Authenticating, Rejected, slog.String("cause", "unknown username"))
		return nil, NewAuthenticationError(MsgInvalidCredentials)
	}

	// the caller may be gone; skip the hashing work
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ok, err := password.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password of user %d: %w", user.ID, err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "login failed", slog.String("username", input.Username))
		s.transition(ctx, Authenticating, Rejected, slog.String("cause", "wrong password"))
		return nil, NewAuthenticationError(MsgInvalidCredentials)
	}

	signed, exp, err := s.tokens.Sign(token.Subject{
		ID:       strconv.FormatInt(user.ID, 10),
		Username: user.Username,
		Name:     user.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	public := user.Public()
	s.transition(ctx, Authenticating, Authenticated, slog.Int64("user_id", user.ID))

	return &Session{
		State:     Authenticated,
		User:      &public,
		SetCookie: cookie.Encode(SessionCookieName, signed, s.activeAttributes()),
		ExpiresAt: exp,
	}, nil
}

// Identify resolves the caller from the Cookie header of a request.
func (s *SessionService) Identify(ctx context.Context, cookieHeader string) (*Session, error) {
	raw, ok := cookie.Get(cookieHeader, SessionCookieName)
	if !ok || raw == "" {
		s.transition(ctx, Anonymous, Rejected, slog.String("cause", "no cookie"))
		return nil, NewAuthenticationError(MsgMissingSession)
	}

	v := s.tokens.Verify(raw)
	if !v.Valid() {
		s.transition(ctx, Anonymous, Rejected, slog.String("cause", v.Reason.String()))
		return nil, NewAuthenticationError(MsgInvalidSession)
	}

	id, err := strconv.ParseInt(v.Claims.Subject, 10, 64)
	if err != nil {
		s.transition(ctx, Anonymous, Rejected, slog.String("cause", "bad subject"))
		return nil, NewAuthenticationError(MsgInvalidSession)
	}

	s.transition(ctx, Anonymous, Authenticated, slog.Int64("user_id", id))
	return &Session{
		State: Authenticated,
		User: &PublicUser{
			ID:       id,
			Username: v.Claims.Username,
			Name:     optional(v.Claims.Name),
		},
		ExpiresAt: v.Claims.ExpiresAt.Time,
	}, nil
}

// Logout clears the session cookie. It succeeds whether or not the caller had a session.
func (s *SessionService) Logout(ctx context.Context) *Session {
	s.transition(ctx, Anonymous, Anonymous, slog.String("cause", "logout"))
	return &Session{
		State:     Anonymous,
		SetCookie: cookie.Encode(SessionCookieName, "", s.clearedAttributes()),
	}
}
