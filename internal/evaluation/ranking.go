package evaluation

import (
	"sort"

	"github.com/buildtally/bidlevel/internal/errors"
	"github.com/buildtally/bidlevel/internal/types"
)

// RankBids orders bids ascending by total amount and computes per-bid
// variance metrics against the group statistics and the optional project
// estimate.
//
// Ranks reflect sorted position: bids with equal amounts share the rank of
// the first tied position, and the next distinct amount takes its own
// position index. [100, 100, 120] ranks as 1, 1, 3, never re-compressed to
// 1, 1, 2. Downstream variance math depends on this exact semantic.
func RankBids(bids []types.Bid, estimate *float64, stats BidStatistics, outliers map[string]bool) ([]RankedBid, error) {
	if len(bids) == 0 {
		return nil, errors.NewInvalidInputError("cannot rank an empty bid set")
	}

	sorted := append([]types.Bid(nil), bids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalAmount < sorted[j].TotalAmount
	})

	ranked := make([]RankedBid, len(sorted))
	for i, b := range sorted {
		rank := i + 1
		if i > 0 && b.TotalAmount == sorted[i-1].TotalAmount {
			rank = ranked[i-1].Rank
		}

		rb := RankedBid{
			Bid:      b,
			Rank:     rank,
			VsLow:    percentOf(b.TotalAmount-stats.Low, stats.Low),
			VsHigh:   percentOf(stats.High-b.TotalAmount, stats.High),
			VsMean:   percentOf(b.TotalAmount-stats.Mean, stats.Mean),
			VsMedian: percentOf(b.TotalAmount-stats.Median, stats.Median),
			Outlier:  outliers[b.BidderID],
		}
		if estimate != nil {
			rb.VsEstimate = percentOf(b.TotalAmount-*estimate, *estimate)
		}
		ranked[i] = rb
	}

	return ranked, nil
}
