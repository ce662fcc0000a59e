// Package cookie encodes Set-Cookie header values and decodes Cookie request headers.
//
// It exists alongside net/http's cookie support because the session cookie must be
// rendered byte-for-byte in a fixed attribute order and its value percent-encoded,
// which http.Cookie does not do.
package cookie

import (
	"net/url"
	"strconv"
	"strings"
)

type SameSite int

const (
	SameSiteDefault SameSite = iota
	SameSiteLax
	SameSiteStrict
	SameSiteNone
)

func (s SameSite) String() string {
	switch s {
	case SameSiteLax:
		return "Lax"
	case SameSiteStrict:
		return "Strict"
	case SameSiteNone:
		return "None"
	default:
		return ""
	}
}

// Attributes are rendered in a fixed order: HttpOnly, Path, SameSite, Max-Age, Secure.
type Attributes struct {
	HttpOnly bool
	Path     string
	SameSite SameSite
	// MaxAge is in seconds. A negative value omits the attribute,
	// zero tells the browser to drop the cookie immediately.
	MaxAge int
	Secure bool
}

// Encode renders a Set-Cookie header value.
func Encode(name, value string, attrs Attributes) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('=')
	sb.WriteString(url.PathEscape(value))

	if attrs.HttpOnly {
		sb.WriteString("; HttpOnly")
	}
	if attrs.Path != "" {
		sb.WriteString("; Path=")
		sb.WriteString(attrs.Path)
	}
	if s := attrs.SameSite.String(); s != "" {
		sb.WriteString("; SameSite=")
		sb.WriteString(s)
	}
	if attrs.MaxAge >= 0 {
		sb.WriteString("; Max-Age=")
		sb.WriteString(strconv.Itoa(attrs.MaxAge))
	}
	if attrs.Secure {
		sb.WriteString("; Secure")
	}
	return sb.String()
}

// Decode parses a Cookie request header into a name to value mapping.
// Pairs without '=' or with an empty name are skipped and the last
// occurrence of a duplicated name wins.
func Decode(header string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies[name] = decodeValue(strings.TrimSpace(value))
	}
	return cookies
}

// Get returns the value of the named cookie in header.
func Get(header, name string) (string, bool) {
	v, ok := Decode(header)[name]
	return v, ok
}

func decodeValue(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	// values that were not written by Encode are kept as sent
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}
