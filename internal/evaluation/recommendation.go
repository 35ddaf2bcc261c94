package evaluation

import (
	"fmt"
	"strings"
)

// Recommend selects the award recommendation from the final ranking.
// finalEvals must already be sorted by FinalRank; lowBidder is the apparent
// low bid from ranking. Returns nil when no bid survived qualification.
func Recommend(finalEvals []Evaluation, lowBidder string, cfg Config) *Recommendation {
	var eligible []Evaluation
	for _, e := range finalEvals {
		if e.Eligible() {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	winner := eligible[0]

	altCount := cfg.AlternativesCount
	if altCount > len(eligible)-1 {
		altCount = len(eligible) - 1
	}
	alternatives := make([]string, 0, altCount)
	for _, e := range eligible[1 : 1+altCount] {
		alternatives = append(alternatives, e.BidderID)
	}

	var concerns []Concern

	if winner.BidderID != lowBidder {
		concerns = append(concerns, Concern{
			Tag: ConcernPriceVsQuality,
			Note: fmt.Sprintf(
				"recommended bidder %s is not the lowest-price bidder (%s); award trades price for evaluated quality",
				winner.BidderID, lowBidder),
		})
	}

	if len(eligible) > 1 {
		margin := winner.OverallScore - eligible[1].OverallScore
		if margin < cfg.CloseCompetitionPts {
			concerns = append(concerns, Concern{
				Tag: ConcernCloseCompetition,
				Note: fmt.Sprintf(
					"margin over runner-up %s is %.2f points, below the %.2f-point close-competition threshold",
					eligible[1].BidderID, margin, cfg.CloseCompetitionPts),
			})
		}
	}

	if winner.QualificationStatus == StatusConditional {
		notes := make([]string, 0, len(winner.Failures))
		for _, f := range winner.Failures {
			notes = append(notes, f.Note)
		}
		concerns = append(concerns, Concern{
			Tag:  ConcernConditional,
			Note: "recommended bidder is only conditionally qualified: " + strings.Join(notes, "; "),
		})
	}

	return &Recommendation{
		BidderID:     winner.BidderID,
		Alternatives: alternatives,
		Concerns:     concerns,
		Rationale:    rationale(winner, eligible, cfg),
	}
}

// rationale summarizes the deciding factors behind the selection.
func rationale(winner Evaluation, eligible []Evaluation, cfg Config) string {
	components := []struct {
		name         string
		contribution float64
	}{
		{"price", cfg.PriceWeight * winner.PriceScore},
		{"technical", cfg.TechnicalWeight * winner.TechnicalScore},
		{"qualification", cfg.QualificationWeight * winner.QualificationScore},
	}

	dominant := components[0]
	for _, c := range components[1:] {
		if c.contribution > dominant.contribution {
			dominant = c
		}
	}

	if len(eligible) == 1 {
		return fmt.Sprintf(
			"%s is the only bidder to pass qualification; overall score %.2f, led by its %s component (%.2f weighted points)",
			winner.BidderID, winner.OverallScore, dominant.name, dominant.contribution)
	}

	margin := winner.OverallScore - eligible[1].OverallScore
	return fmt.Sprintf(
		"%s ranks first with overall score %.2f, led by its %s component (%.2f weighted points), %.2f points ahead of %s",
		winner.BidderID, winner.OverallScore, dominant.name, dominant.contribution,
		margin, eligible[1].BidderID)
}
