package evaluation

import (
	"fmt"

	"github.com/buildtally/bidlevel/internal/errors"
)

// PriceScore maps a single bid amount to [0,100] under the configured method.
// stats must describe the bid set the amount belongs to.
func PriceScore(amount float64, stats BidStatistics, cfg Config) (float64, error) {
	if amount < 0 {
		return 0, errors.NewInvalidInputError(
			fmt.Sprintf("bid amount is negative: %v", amount))
	}

	switch cfg.PriceMethod {
	case PriceInverseLinear:
		return inverseLinearScore(amount, stats.Low), nil
	case PriceThreshold:
		return thresholdScore(amount, stats.Low, cfg), nil
	case PriceBestValue:
		return bestValueScore(amount, stats.Mean), nil
	default:
		return 0, errors.NewConfigurationError(
			fmt.Sprintf("unrecognized price scoring method %q", cfg.PriceMethod))
	}
}

// PriceScores scores every ranked bid, keyed by bidder ID.
func PriceScores(ranked []RankedBid, stats BidStatistics, cfg Config) (map[string]float64, error) {
	scores := make(map[string]float64, len(ranked))
	for _, rb := range ranked {
		s, err := PriceScore(rb.Bid.TotalAmount, stats, cfg)
		if err != nil {
			return nil, err
		}
		scores[rb.Bid.BidderID] = s
	}
	return scores, nil
}

// inverseLinearScore: 100 * low / amount. The low bid always scores exactly
// 100; everything above decays hyperbolically.
func inverseLinearScore(amount, low float64) float64 {
	if amount == 0 {
		// amount == 0 implies low == 0: the bid is the low bid
		return 100
	}
	return clampScore(100 * low / amount)
}

// thresholdScore: full marks within the band above low, linear decay to zero
// at the ceiling.
func thresholdScore(amount, low float64, cfg Config) float64 {
	band := low * (1 + cfg.FullScoreBandPct/100)
	ceiling := low * (1 + cfg.ZeroScoreCeilingPct/100)

	switch {
	case amount <= band:
		return 100
	case amount >= ceiling:
		return 0
	default:
		return clampScore(100 * (ceiling - amount) / (ceiling - band))
	}
}

// bestValueScore rewards proximity to the group average rather than the
// minimum: an extremely low bid is not automatically the best bid.
func bestValueScore(amount, mean float64) float64 {
	if mean == 0 {
		if amount == 0 {
			return 100
		}
		return 0
	}
	dev := amount - mean
	if dev < 0 {
		dev = -dev
	}
	return clampScore(100 * (1 - dev/mean))
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
