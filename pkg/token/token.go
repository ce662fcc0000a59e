// Package token signs and verifies session tokens.
//
// Tokens are HS256 JWTs carrying the subject, username and optional display
// name of the authenticated user. Verification never returns an error: the
// outcome is a Verification value whose Reason is meant for server logs only.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultIssuer   = "web_test"
	DefaultAudience = "web_test_frontend"
	DefaultTTL      = 24 * time.Hour
)

var ErrEmptySecret = errors.New("token secret is empty")

type Options struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	// Now is the clock used for issuing and validating tokens. Defaults to time.Now.
	Now func() time.Time
}

type Claims struct {
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Subject is the identity a token is issued for.
type Subject struct {
	ID       string
	Username string
	Name     string
}

type Service struct {
	secret    []byte
	issuer    string
	audience  string
	ttl       time.Duration
	now       func() time.Time
	parseOpts []jwt.ParserOption
}

func NewService(opts Options) (*Service, error) {
	if len(opts.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	if opts.Issuer == "" {
		opts.Issuer = DefaultIssuer
	}
	if opts.Audience == "" {
		opts.Audience = DefaultAudience
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		secret:   opts.Secret,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      opts.TTL,
		now:      opts.Now,
		parseOpts: []jwt.ParserOption{
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
			jwt.WithIssuer(opts.Issuer),
			jwt.WithAudience(opts.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(opts.Now),
		},
	}, nil
}

// TTL is the lifetime of tokens issued by s.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Sign issues a token for sub. Issuer, audience and expiry are fixed by the service.
func (s *Service) Sign(sub Subject) (signed string, exp time.Time, err error) {
	now := s.now()
	exp = now.Add(s.ttl)
	claims := &Claims{
		Username: sub.Username,
		Name:     sub.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.ID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", exp, err
	}
	return signed, exp, nil
}

type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformed
	ReasonBadSignature
	ReasonBadIssuer
	ReasonBadAudience
	ReasonExpired
	ReasonUnrecognized
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMalformed:
		return "malformed"
	case ReasonBadSignature:
		return "bad signature"
	case ReasonBadIssuer:
		return "bad issuer"
	case ReasonBadAudience:
		return "bad audience"
	case ReasonExpired:
		return "expired"
	default:
		return "unrecognized"
	}
}

// Verification is the outcome of verifying a token.
// Claims is only set when the token is valid.
type Verification struct {
	Claims *Claims
	Reason Reason
}

func (v Verification) Valid() bool {
	return v.Reason == ReasonNone && v.Claims != nil
}

func invalid(r Reason) Verification {
	return Verification{Reason: r}
}

// Verify checks the signature, issuer, audience and expiry of token.
func (s *Service) Verify(token string) Verification {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, s.parseOpts...)

	switch {
	case err == nil && parsed != nil && parsed.Valid:
		return Verification{Claims: claims}
	case errors.Is(err, jwt.ErrTokenMalformed), errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return invalid(ReasonMalformed)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalid(ReasonBadSignature)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return invalid(ReasonBadIssuer)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return invalid(ReasonBadAudience)
	case errors.Is(err, jwt.ErrTokenExpired):
		return invalid(ReasonExpired)
	default:
		return invalid(ReasonUnrecognized)
	}
}
