// Package token caches the most recent Strava access token per principal together
// with the scopes it was granted.
//
// One entry is kept per principal (the account e-mail); storing a new entry replaces
// the previous one. Lookups match scopes in two ways:
//
//   - FindAtLeast returns the entry if it was granted every requested scope.
//   - FindExact returns the entry only if its scopes equal the requested set.
//
// # Basic Usage
//
//	cache := token.Default()
//
//	if err := cache.Put(ctx, &token.Entry{
//		PrincipalKey: "rider@example.com",
//		Token:        accessToken,
//		Scopes:       []token.Scope{token.ScopeRead, token.ScopeActivityRead},
//	}); err != nil {
//		return err
//	}
//
//	entry, err := cache.FindAtLeast(ctx, "rider@example.com", token.ScopeRead)
//	if entry == nil {
//		// no usable token - run the OAuth flow
//	}
//
// # Storage
//
// Default uses an in-process MemoryStore. Processes sharing one Strava application can
// use a RedisStore instead; its keys expire with the access token, so nothing is kept
// beyond the credential's lifetime.
package token
