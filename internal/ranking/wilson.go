// Package ranking computes submission popularity scores.
//
// Scores are the lower bound of the Wilson score interval over the
// upvote ratio. The lower bound is preferred over the raw ratio because
// it penalizes small sample sizes: 3/3 positive votes ranks below
// 90/100.
package ranking

import (
	"fmt"
	"math"
)

// z is the 97.5 percentile of the standard normal distribution,
// giving a 95% confidence interval.
const z = 1.96

// superVoteExtraTrials is added to both the weighted positive count and
// the weighted total per super vote. Each super vote contributes two
// phantom successful trials on top of its ordinary vote, making it
// count three times while keeping the success ratio a valid proportion
// for the Wilson bound.
const superVoteExtraTrials = 2

// Score returns the Wilson lower-bound score for a submission's vote
// tally. It is deterministic, bounded to [0, 1], and returns 0 when
// there are no votes.
//
// Counts come from the store's aggregation query and can never
// legitimately be negative or inconsistent; Score panics on inputs that
// violate that contract rather than guessing.
func Score(upvotes, totalVotes, superVotes int) float64 {
	if upvotes < 0 || superVotes < 0 || totalVotes < upvotes || superVotes > upvotes {
		panic(fmt.Sprintf("ranking: invalid vote counts (up=%d total=%d super=%d)",
			upvotes, totalVotes, superVotes))
	}

	p := float64(upvotes + superVoteExtraTrials*superVotes)
	n := float64(totalVotes + superVoteExtraTrials*superVotes)
	if n == 0 {
		return 0
	}

	phat := p / n
	z2 := z * z
	return (phat + z2/(2*n) - z*math.Sqrt(phat*(1-phat)/n+z2/(4*n*n))) / (1 + z2/n)
}
