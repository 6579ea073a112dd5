// Package score implements the popularity formula:
//
//	score = |friends| + 0.5 × (total hobbies shared with resolvable friends)
//
// A hobby shared with three friends contributes three times. Friend ids
// without a matching record still count toward |friends| but contribute no
// shared hobbies.
package score

import (
	"github.com/cybernauts/social-graph/internal/db"
)

// Compute derives the popularity score for user given the full records of
// its resolvable friends. Pure: no lookups, no side effects.
//
// Hobby matching is case-sensitive and exact. The user's own hobby list is
// not deduplicated, so a duplicate entry that matches a friend counts twice;
// that mirrors the stored data's semantics.
func Compute(user *db.User, friends []db.User) float64 {
	shared := 0
	for _, friend := range friends {
		shared += sharedHobbies(user.Hobbies, friend.Hobbies)
	}
	return float64(len(user.Friends)) + 0.5*float64(shared)
}

// sharedHobbies counts entries of a that also appear in b.
func sharedHobbies(a, b []string) int {
	set := make(map[string]struct{}, len(b))
	for _, h := range b {
		set[h] = struct{}{}
	}
	n := 0
	for _, h := range a {
		if _, ok := set[h]; ok {
			n++
		}
	}
	return n
}
