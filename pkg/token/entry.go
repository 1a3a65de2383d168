package token

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Scope is an OAuth scope granted by Strava.
type Scope string

// Scopes defined by the Strava OAuth flow.
const (
	ScopeRead            Scope = "read"
	ScopeReadAll         Scope = "read_all"
	ScopeProfileReadAll  Scope = "profile:read_all"
	ScopeProfileWrite    Scope = "profile:write"
	ScopeActivityRead    Scope = "activity:read"
	ScopeActivityReadAll Scope = "activity:read_all"
	ScopeActivityWrite   Scope = "activity:write"
)

var knownScopes = map[Scope]bool{
	ScopeRead:            true,
	ScopeReadAll:         true,
	ScopeProfileReadAll:  true,
	ScopeProfileWrite:    true,
	ScopeActivityRead:    true,
	ScopeActivityReadAll: true,
	ScopeActivityWrite:   true,
}

// ParseScopes parses the comma separated scope list Strava returns from the
// token exchange (e.g. "read,activity:read_all").
func ParseScopes(s string) ([]Scope, error) {
	var scopes []Scope
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sc := Scope(part)
		if !knownScopes[sc] {
			return nil, fmt.Errorf("unknown scope %q", part)
		}
		scopes = append(scopes, sc)
	}
	return scopes, nil
}

// Entry is a cached credential.
type Entry struct {
	// PrincipalKey identifies the account the token belongs to (e-mail address).
	PrincipalKey string `json:"principal_key"`

	// AthleteID is the Strava athlete id of the principal; 0 when unknown.
	AthleteID int64 `json:"athlete_id,omitempty"`

	// Token is the opaque bearer token.
	Token string `json:"token"`

	// Scopes were granted with the token.
	Scopes []Scope `json:"scopes"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`
}

// HasAll reports whether the entry was granted every scope in required.
func (e *Entry) HasAll(required []Scope) bool {
	granted := scopeSet(e.Scopes)
	for _, sc := range required {
		if !granted[sc] {
			return false
		}
	}
	return true
}

// HasExactly reports whether the entry's scopes equal required as sets.
func (e *Entry) HasExactly(required []Scope) bool {
	granted := scopeSet(e.Scopes)
	want := scopeSet(required)
	if len(granted) != len(want) {
		return false
	}
	for sc := range want {
		if !granted[sc] {
			return false
		}
	}
	return true
}

// ScopeString renders the scopes sorted and comma separated.
func (e *Entry) ScopeString() string {
	parts := make([]string, 0, len(e.Scopes))
	for sc := range scopeSet(e.Scopes) {
		parts = append(parts, string(sc))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func scopeSet(scopes []Scope) map[Scope]bool {
	set := make(map[Scope]bool, len(scopes))
	for _, sc := range scopes {
		set[sc] = true
	}
	return set
}
