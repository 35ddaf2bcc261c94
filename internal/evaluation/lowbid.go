package evaluation

import (
	"fmt"

	"github.com/buildtally/bidlevel/internal/errors"
)

// AnalyzeLowBid identifies the apparent low bid and measures the gap to the
// next distinct amount. "Next distinct" rather than "next ranked" so that a
// tie at the bottom reads as a zero-gap field, not as a gap to itself. A gap
// above the configured threshold marks the low bid suspicious (possible
// scope exclusion or bid error) but never disqualifies it or alters ranking.
func AnalyzeLowBid(ranked []RankedBid, cfg Config) (LowBidAnalysis, error) {
	if len(ranked) == 0 {
		return LowBidAnalysis{}, errors.NewInvalidInputError("cannot analyze an empty ranked bid set")
	}

	low := ranked[0]
	analysis := LowBidAnalysis{
		BidderID: low.Bid.BidderID,
		Amount:   low.Bid.TotalAmount,
	}

	var next *float64
	for _, rb := range ranked[1:] {
		if rb.Bid.TotalAmount > low.Bid.TotalAmount {
			amt := rb.Bid.TotalAmount
			next = &amt
			break
		}
	}

	if next == nil {
		if len(ranked) == 1 {
			analysis.Note = "only one bid received; no gap analysis possible"
		} else {
			analysis.Note = "all bids share the low amount; no gap to the field"
		}
		return analysis, nil
	}

	analysis.NextDistinctAmount = next
	analysis.GapPct = percentOf(*next-low.Bid.TotalAmount, low.Bid.TotalAmount)

	if analysis.GapPct == nil {
		analysis.Note = fmt.Sprintf(
			"low bid of %.2f is zero-valued; gap to next distinct bid %.2f is not expressible as a percentage",
			low.Bid.TotalAmount, *next)
		return analysis, nil
	}

	if *analysis.GapPct > cfg.SuspiciousGapPct {
		analysis.Suspicious = true
		analysis.Note = fmt.Sprintf(
			"low bid %.2f sits %.1f%% below the next distinct bid %.2f (threshold %.1f%%); review for scope exclusions or bid error",
			low.Bid.TotalAmount, *analysis.GapPct, *next, cfg.SuspiciousGapPct)
	} else {
		analysis.Note = fmt.Sprintf(
			"low bid %.2f is %.1f%% below the next distinct bid %.2f",
			low.Bid.TotalAmount, *analysis.GapPct, *next)
	}

	return analysis, nil
}
