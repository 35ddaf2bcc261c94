package evaluation

import (
	"fmt"
	"math"
	"sort"

	"github.com/buildtally/bidlevel/internal/errors"
)

// Statistics computes descriptive statistics over a set of bid amounts.
// Variance is population variance so a single bid is well-defined.
func Statistics(amounts []float64) (BidStatistics, error) {
	if len(amounts) == 0 {
		return BidStatistics{}, errors.NewInvalidInputError("bid amount set is empty")
	}
	for i, a := range amounts {
		if a < 0 {
			return BidStatistics{}, errors.NewInvalidInputError(
				fmt.Sprintf("bid amount at index %d is negative: %v", i, a))
		}
	}

	sorted := append([]float64(nil), amounts...)
	sort.Float64s(sorted)

	low := sorted[0]
	high := sorted[len(sorted)-1]
	m := mean(sorted)

	variance := 0.0
	for _, a := range sorted {
		d := a - m
		variance += d * d
	}
	variance /= float64(len(sorted))

	spread := high - low

	return BidStatistics{
		Count:     len(sorted),
		Low:       low,
		High:      high,
		Mean:      m,
		Median:    median(sorted),
		Variance:  variance,
		StdDev:    math.Sqrt(variance),
		Spread:    spread,
		SpreadPct: percentOf(spread, low),
	}, nil
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, v := range xs {
		s += v
	}
	return s / float64(len(xs))
}

// median expects xs already sorted ascending.
func median(xs []float64) float64 {
	mid := len(xs) / 2
	if len(xs)%2 == 1 {
		return xs[mid]
	}
	return 0.5 * (xs[mid-1] + xs[mid])
}

// quantile returns the p-quantile of sorted xs using linear interpolation
// between closest ranks.
func quantile(xs []float64, p float64) float64 {
	if len(xs) == 1 {
		return xs[0]
	}
	pos := p * float64(len(xs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return xs[lo]
	}
	frac := pos - float64(lo)
	return xs[lo] + frac*(xs[hi]-xs[lo])
}

// percentOf expresses delta as a percentage of ref. A zero reference has no
// meaningful percentage, so nil is returned instead of a numeric fault.
func percentOf(delta, ref float64) *float64 {
	if ref == 0 {
		return nil
	}
	v := delta / ref * 100
	return &v
}
