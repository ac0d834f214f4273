package sessions

import (
	"net/http"
	"time"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateUnauthenticated           State = iota // No token held
	StateAuthenticatedUndiscovered              // Token held, base URI and account not resolved
	StateReady                                  // Token held, base URI and account resolved
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticatedUndiscovered:
		return "authenticated_undiscovered"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Session stores the cached credential and the discovered operating account.
// BaseURI and AccountID are always written together.
type Session struct {
	AccessToken string    // Bearer token from the jwt-bearer grant
	IssuedAt    time.Time // When the token was acquired
	ExpiresAt   time.Time // IssuedAt + configured token lifetime
	BaseURI     string    // Account base URI + /restapi
	AccountID   string    // Account used in every REST path
}

func (s *Session) hasToken() bool {
	return s.AccessToken != ""
}

func (s *Session) isDiscovered() bool {
	return s.BaseURI != "" && s.AccountID != ""
}

// needsToken reports whether a token must be acquired at now, treating tokens
// within margin of expiry as expired.
func (s *Session) needsToken(now time.Time, margin time.Duration) bool {
	return !s.hasToken() || !now.Before(s.ExpiresAt.Add(-margin))
}

func (s *Session) state() State {
	switch {
	case !s.hasToken():
		return StateUnauthenticated
	case !s.isDiscovered():
		return StateAuthenticatedUndiscovered
	}
	return StateReady
}

// Handle is an authenticated request handle bound to the operating base URI.
type Handle struct {
	BaseURI     string       // REST base, e.g. https://demo.docusign.net/restapi
	AccessToken string       // Bearer token, valid when the handle was issued
	HTTPClient  *http.Client // Adds the Authorization header to every request
}
