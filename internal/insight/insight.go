// Package insight composes the one-time natural-language summary shown on a
// poll's results page once participation crosses the generation threshold.
package insight

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vraj-maheshwari/pollapp/internal/model"
)

// Threshold is the vote total at which a summary is generated.
const Threshold = 20

// Generate returns a summary for the aggregated results, or "" when the poll
// has not reached the threshold. Up to three clauses are joined with " • ":
// a margin clause (always), a participation clause (total >= 30), and a
// distribution clause (>= 2 options with a notable gap).
//
// The caller is responsible for the generate-once guarantee; Generate itself
// is pure and deterministic for a given breakdown.
func Generate(results []model.OptionResult, total int) string {
	if total < Threshold || len(results) == 0 {
		return ""
	}

	winner := results[0]
	for _, r := range results[1:] {
		if r.Count > winner.Count {
			winner = r
		}
	}

	var clauses []string

	switch {
	case winner.Percentage > 60:
		clauses = append(clauses, fmt.Sprintf("Clear winner: '%s' dominates with %s%% of votes", winner.Text, formatPct(winner.Percentage)))
	case winner.Percentage < 35:
		clauses = append(clauses, fmt.Sprintf("Close race: No clear consensus, '%s' leads narrowly at %s%%", winner.Text, formatPct(winner.Percentage)))
	default:
		clauses = append(clauses, fmt.Sprintf("Moderate lead: '%s' has a solid lead with %s%% of votes", winner.Text, formatPct(winner.Percentage)))
	}

	if total >= 50 {
		clauses = append(clauses, fmt.Sprintf("High engagement: %d participants shows strong interest", total))
	} else if total >= 30 {
		clauses = append(clauses, fmt.Sprintf("Good participation: %d votes collected", total))
	}

	if len(results) >= 2 {
		ranked := make([]model.OptionResult, len(results))
		copy(ranked, results)
		// Stable sort: options tied on count keep aggregation (insertion)
		// order, so the earlier-created option ranks first.
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Count > ranked[j].Count
		})
		gap := ranked[0].Percentage - ranked[1].Percentage
		if gap < 10 {
			clauses = append(clauses, "Very competitive: Top options are neck-and-neck")
		} else if gap > 30 {
			clauses = append(clauses, "Decisive outcome: Clear preference established")
		}
	}

	return strings.Join(clauses, " • ")
}

func formatPct(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}
