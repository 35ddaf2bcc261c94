package evaluation

import (
	"sort"

	"github.com/buildtally/bidlevel/internal/types"
)

// minOutlierSample is the smallest bid set outlier detection operates on;
// below it every method degrades to "no outliers".
const minOutlierSample = 3

// iqrFenceMultiplier is the conventional Tukey fence factor.
const iqrFenceMultiplier = 1.5

// DetectOutliers flags bids statistically distant from the group and returns
// the flagged bidder IDs. Bids are only annotated, never removed.
func DetectOutliers(bids []types.Bid, stats BidStatistics, cfg Config) (map[string]bool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	flagged := make(map[string]bool)
	if len(bids) < minOutlierSample {
		return flagged, nil
	}

	switch cfg.OutlierMethod {
	case OutlierIQR:
		sorted := make([]float64, len(bids))
		for i, b := range bids {
			sorted[i] = b.TotalAmount
		}
		sort.Float64s(sorted)

		q1 := quantile(sorted, 0.25)
		q3 := quantile(sorted, 0.75)
		iqr := q3 - q1
		upper := q3 + iqrFenceMultiplier*iqr

		// Only the upper fence applies. Unusually low bids get their own
		// treatment in the low-bid gap analysis rather than an outlier flag.
		for _, b := range bids {
			if b.TotalAmount > upper {
				flagged[b.BidderID] = true
			}
		}

	case OutlierStdDev:
		if stats.StdDev == 0 {
			return flagged, nil
		}
		for _, b := range bids {
			z := (b.TotalAmount - stats.Mean) / stats.StdDev
			if z < 0 {
				z = -z
			}
			if z > cfg.OutlierZThreshold {
				flagged[b.BidderID] = true
			}
		}
	}

	return flagged, nil
}
