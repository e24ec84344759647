package redeem

import (
	"hoyocodes-backend/internal/codes"
	"strings"
)

type Cookie struct {
	Name  string
	Value string
}

// Cookies is an ordered cookie list as found in a cookie header.
type Cookies []Cookie

// ParseCookies parses "k=v; k2=v2", skipping malformed pairs. Later duplicates override
// earlier ones in place.
func ParseCookies(credentials codes.CredentialSet) Cookies {
	var out Cookies
	for _, part := range strings.Split(string(credentials), ";") {
		name, value, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		out = out.Set(name, strings.TrimSpace(value))
	}
	return out
}

// Set returns the list with name set to value, keeping the position of an existing cookie.
func (c Cookies) Set(name, value string) Cookies {
	for i := range c {
		if c[i].Name == name {
			c[i].Value = value
			return c
		}
	}
	return append(c, Cookie{Name: name, Value: value})
}

// Merge returns a copy of c with every cookie of other set on it.
func (c Cookies) Merge(other Cookies) Cookies {
	out := make(Cookies, len(c), len(c)+len(other))
	copy(out, c)
	for _, cookie := range other {
		out = out.Set(cookie.Name, cookie.Value)
	}
	return out
}

func (c Cookies) String() string {
	parts := make([]string, len(c))
	for i, cookie := range c {
		parts[i] = cookie.Name + "=" + cookie.Value
	}
	return strings.Join(parts, "; ")
}

func (c Cookies) CredentialSet() codes.CredentialSet {
	return codes.CredentialSet(c.String())
}

// MergeCredentials merges refreshed cookies into an existing credential set.
func MergeCredentials(credentials codes.CredentialSet, refreshed Cookies) codes.CredentialSet {
	return ParseCookies(credentials).Merge(refreshed).CredentialSet()
}
