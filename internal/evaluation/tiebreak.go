package evaluation

import (
	"math"
	"sort"
)

// FinalRanking orders evaluations for the award decision and assigns
// sequential final ranks. Eligible bids sort by overall score descending;
// two eligible bids whose scores differ by less than the tie epsilon are
// resolved by walking the configured tie-break order, and a fully exhausted
// order preserves the incoming position (stable). Disqualified bids keep
// their relative order after every eligible bid.
func FinalRanking(evals []Evaluation, cfg Config) []Evaluation {
	out := append([]Evaluation(nil), evals...)

	sort.SliceStable(out, func(i, j int) bool {
		return beats(out[i], out[j], cfg)
	})

	for i := range out {
		out[i].FinalRank = i + 1
	}

	return out
}

// beats reports whether a should be ranked ahead of b.
//
// The epsilon comparison is not transitive: in a chain of scores each within
// epsilon of the next but with endpoints further apart, the pairwise verdicts
// can disagree with the chain's score order. sort.SliceStable keeps the result
// deterministic for a given input, so such chains settle into a single,
// repeatable order.
func beats(a, b Evaluation, cfg Config) bool {
	if a.Eligible() != b.Eligible() {
		return a.Eligible()
	}
	if !a.Eligible() {
		return false
	}

	d := a.OverallScore - b.OverallScore
	if math.Abs(d) >= cfg.TieEpsilon {
		return d > 0
	}

	for _, crit := range cfg.TieBreakOrder {
		switch crit {
		case TieBreakPrice:
			if a.PriceScore != b.PriceScore {
				return a.PriceScore > b.PriceScore
			}
		case TieBreakTechnical:
			if a.TechnicalScore != b.TechnicalScore {
				return a.TechnicalScore > b.TechnicalScore
			}
		case TieBreakQualification:
			if a.QualificationScore != b.QualificationScore {
				return a.QualificationScore > b.QualificationScore
			}
		case TieBreakSubmission:
			if !a.SubmittedAt.Equal(b.SubmittedAt) {
				return a.SubmittedAt.Before(b.SubmittedAt)
			}
		}
	}

	return false
}
