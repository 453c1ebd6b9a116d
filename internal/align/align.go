// Package align diffs two replay action sequences. Actions are aligned with a
// longest-common-subsequence pass and the gaps between matches are classified
// into inserted, removed, and modified entries.
package align

import (
	"github.com/vytor/puzzlereplay/internal/delta"
	"github.com/vytor/puzzlereplay/internal/models"
)

// Pair is one matched position: original[Original] equals updated[New].
type Pair struct {
	Original int
	New      int
}

// EqualActions reports whether two actions are interchangeable for alignment
// purposes: same type and structurally identical action data. Sequence
// numbers, timestamps, and state snapshots are ignored.
func EqualActions(a, b models.Action) bool {
	return a.ActionType == b.ActionType && delta.Equal(a.ActionData, b.ActionData)
}

// LongestCommonSubsequence returns the matched index pairs of the standard
// O(n*m) dynamic-programming LCS over the two action sequences, in order.
func LongestCommonSubsequence(original, updated []models.Action) []Pair {
	m := len(original)
	n := len(updated)

	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if EqualActions(original[i-1], updated[j-1]) {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	// Backtrack from the bottom-right corner.
	var rev []Pair
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case EqualActions(original[i-1], updated[j-1]):
			rev = append(rev, Pair{Original: i - 1, New: j - 1})
			i--
			j--
		case dp[i-1][j] > dp[i][j-1]:
			i--
		default:
			j--
		}
	}

	pairs := make([]Pair, len(rev))
	for k := range rev {
		pairs[len(rev)-1-k] = rev[k]
	}
	return pairs
}

// Differences aligns the two sequences and classifies every unmatched token.
// Inside each gap between consecutive matches, original-side and new-side
// tokens are paired positionally and reported as modified; leftover tokens
// become removed (original only) or inserted (new only). Plain LCS cannot
// distinguish modified from removed+inserted, so the pairing is a reporting
// heuristic; the numeric comparison results do not depend on it.
func Differences(original, updated []models.Action) models.ActionDifferences {
	matches := LongestCommonSubsequence(original, updated)
	// Sentinel match past both ends flushes the trailing gap.
	matches = append(matches, Pair{Original: len(original), New: len(updated)})

	var details []models.ActionDifference
	oi, ni := 0, 0

	for _, match := range matches {
		origGap := original[oi:match.Original]
		newGap := updated[ni:match.New]

		paired := len(origGap)
		if len(newGap) < paired {
			paired = len(newGap)
		}

		for j := 0; j < paired; j++ {
			details = append(details, models.ActionDifference{
				SequenceNumber: oi + j,
				ChangeType:     models.ChangeModified,
				OriginalAction: summarize(origGap[j]),
				NewAction:      summarize(newGap[j]),
			})
		}
		for j := paired; j < len(origGap); j++ {
			details = append(details, models.ActionDifference{
				SequenceNumber: oi + j,
				ChangeType:     models.ChangeRemoved,
				OriginalAction: summarize(origGap[j]),
			})
		}
		for j := paired; j < len(newGap); j++ {
			details = append(details, models.ActionDifference{
				SequenceNumber: ni + j,
				ChangeType:     models.ChangeInserted,
				NewAction:      summarize(newGap[j]),
			})
		}

		oi = match.Original + 1
		ni = match.New + 1
	}

	diffs := models.ActionDifferences{
		TotalDifferenceCount: len(details),
		Details:              details,
	}
	for _, d := range details {
		switch d.ChangeType {
		case models.ChangeInserted:
			diffs.InsertedActions++
		case models.ChangeRemoved:
			diffs.RemovedActions++
		case models.ChangeModified:
			diffs.ModifiedActions++
		}
	}
	return diffs
}

func summarize(a models.Action) *models.ActionSummary {
	return &models.ActionSummary{Type: a.ActionType, Data: a.ActionData}
}
