// Package token inspects bearer tokens and persists them per account.
package token

import (
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// State classifies a bearer token by its exp claim.
type State int

const (
	StateValid State = iota
	StateExpired
	// StatePerpetual tokens carry no exp claim and never expire.
	StatePerpetual
	// StateInvalid tokens could not be decoded.
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StatePerpetual:
		return "perpetual"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Status is the result of Inspect.
type Status struct {
	State     State
	ExpiresAt time.Time
	Err       error
}

// NeedsRefresh reports whether the token must be replaced.
func (s Status) NeedsRefresh() bool {
	return s.State == StateExpired || s.State == StateInvalid
}

var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// Inspect decodes the token payload without verifying its signature. The
// signing key belongs to the API; only the expiry matters here.
func Inspect(tok string, now time.Time) Status {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return Status{State: StateInvalid, Err: err}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Status{State: StateInvalid, Err: err}
	}
	// exp: 0 is a placeholder, not 1970.
	if exp == nil || exp.Unix() == 0 {
		return Status{State: StatePerpetual}
	}

	st := Status{State: StateValid, ExpiresAt: exp.Time}
	if now.After(exp.Time) {
		st.State = StateExpired
	}
	return st
}

// IsExpired reports whether tok needs replacing and logs what it found.
// Undecodable tokens count as expired; tokens without exp never do.
func IsExpired(tok string, now time.Time) bool {
	st := Inspect(tok, now)
	switch st.State {
	case StatePerpetual:
		slog.Warn("Perpetual token, unable to read expiration time")
	case StateInvalid:
		slog.Error("Unable to decode token", "error", st.Err)
	default:
		slog.Info("Token expires", "at", st.ExpiresAt.Local().Format(time.DateTime))
		if st.State == StateExpired {
			slog.Info("Token has expired, a new one is needed")
		} else {
			slog.Info("Token is still valid")
		}
	}
	return st.NeedsRefresh()
}
