package fetcher

import (
	browser "github.com/EDDYCJY/fake-useragent"
)

// Identity provides the User-Agent a request is sent with.
type Identity interface {
	UserAgent() string
}

// FixedIdentity always presents the same User-Agent.
type FixedIdentity string

func (f FixedIdentity) UserAgent() string {
	return string(f)
}

// RotatingIdentity presents a random real-world browser User-Agent on every request.
type RotatingIdentity struct{}

func (RotatingIdentity) UserAgent() string {
	return browser.Random()
}
