package codes

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Code is a redemption code in canonical form, see Sanitize.
type Code string

func (c Code) String() string {
	return string(c)
}

// RawCode is a code as it was found on a source, before sanitization.
type RawCode struct {
	Source  Source
	Code    string
	Rewards string
}

var (
	footnoteRegex = regexp.MustCompile(`\[\d+\]`)
	markers       = []string{"QUICK REDEEM", "NEW!"}
)

// Sanitize converts a scraped code into its canonical form.
//
// The code is upper-cased before the "Quick Redeem" and "NEW!" markers are removed,
// so markers match in any letter case.
//
// Markers and footnotes are stripped until none are left so that
// Sanitize(Sanitize(x)) == Sanitize(x) for every x.
func Sanitize(raw string) Code {
	if idx := strings.IndexAny(raw, "/;"); idx >= 0 {
		raw = raw[:idx]
	}
	raw = strings.ToUpper(raw)
	for {
		stripped := raw
		for _, m := range markers {
			stripped = strings.ReplaceAll(stripped, m, "")
		}
		stripped = footnoteRegex.ReplaceAllString(stripped, "")
		if stripped == raw {
			break
		}
		raw = stripped
	}
	return Code(strings.TrimSpace(raw))
}

// Status is the redemption status of a cataloged code.
type Status string

const (
	StatusOK    Status = "OK"
	StatusNotOK Status = "NOT_OK"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusOK:
		return StatusOK, nil
	case StatusNotOK:
		return StatusNotOK, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Entry is a cataloged code, unique on (Game, Code).
type Entry struct {
	ID        int64
	Game      Game
	Code      Code
	Status    Status
	Rewards   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CredentialSet is a session cookie string in the form `k1=v1; k2=v2`.
type CredentialSet string
