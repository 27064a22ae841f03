package cache

import (
	"fmt"

	"github.com/clipclash/clipclash-server/internal/domain"
)

// Scope identifies what kind of ranking set a key holds.
type Scope string

// Ranking scopes.
const (
	ScopeChallenge   Scope = "challenge"
	ScopeTopCreators Scope = "creators"
)

// Key identifies one ranking set: (scope, scope-id, period).
// Each key carries its own TTL, so the three period sets for one
// challenge expire independently.
type Key struct {
	Scope   Scope
	ScopeID string // challenge id; empty for the global creators scope
	Period  domain.Period
}

// ChallengeKey returns the key for a per-challenge leaderboard set.
func ChallengeKey(challengeID string, period domain.Period) Key {
	return Key{Scope: ScopeChallenge, ScopeID: challengeID, Period: period}
}

// TopCreatorsKey returns the key for the global top-creators set.
func TopCreatorsKey(period domain.Period) Key {
	return Key{Scope: ScopeTopCreators, Period: period}
}

// String renders the storage key, e.g. "rank:challenge:chal-x:daily".
func (k Key) String() string {
	if k.ScopeID == "" {
		return fmt.Sprintf("rank:%s:%s", k.Scope, k.Period)
	}
	return fmt.Sprintf("rank:%s:%s:%s", k.Scope, k.ScopeID, k.Period)
}
