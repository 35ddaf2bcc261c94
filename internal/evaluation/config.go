package evaluation

import (
	"fmt"
	"math"

	"github.com/buildtally/bidlevel/internal/errors"
)

// OutlierMethod selects how statistically distant bids are flagged.
type OutlierMethod string

const (
	OutlierIQR    OutlierMethod = "iqr"
	OutlierStdDev OutlierMethod = "stddev"
)

// PriceMethod selects how a bid amount maps to a 0-100 price score.
type PriceMethod string

const (
	PriceInverseLinear PriceMethod = "inverse_linear"
	PriceThreshold     PriceMethod = "threshold"
	PriceBestValue     PriceMethod = "best_value"
)

// TieBreakCriterion is one step in the tie-break priority order.
type TieBreakCriterion string

const (
	TieBreakPrice         TieBreakCriterion = "price"
	TieBreakTechnical     TieBreakCriterion = "technical"
	TieBreakQualification TieBreakCriterion = "qualification"
	TieBreakSubmission    TieBreakCriterion = "submission"
)

// weightTolerance is how far a weight sum may drift from 1.0 before the
// configuration is rejected.
const weightTolerance = 1e-6

// Config carries every tunable of an evaluation run. It is passed by value
// into each component; nothing reads ambient or global settings.
type Config struct {
	OutlierMethod     OutlierMethod `json:"outlier_method"`
	OutlierZThreshold float64       `json:"outlier_z_threshold"`

	SuspiciousGapPct float64 `json:"suspicious_gap_pct"`

	PriceMethod         PriceMethod `json:"price_method"`
	FullScoreBandPct    float64     `json:"full_score_band_pct"`
	ZeroScoreCeilingPct float64     `json:"zero_score_ceiling_pct"`

	PriceWeight         float64 `json:"price_weight"`
	TechnicalWeight     float64 `json:"technical_weight"`
	QualificationWeight float64 `json:"qualification_weight"`

	TieBreakOrder []TieBreakCriterion `json:"tie_break_order"`
	TieEpsilon    float64             `json:"tie_epsilon"`

	AlternativesCount   int     `json:"alternatives_count"`
	CloseCompetitionPts float64 `json:"close_competition_pts"`
}

// DefaultConfig returns the stock evaluation settings. The gap and
// close-competition thresholds are conventional defaults, not mandates; any
// of them may be overridden per run.
func DefaultConfig() Config {
	return Config{
		OutlierMethod:       OutlierIQR,
		OutlierZThreshold:   2.0,
		SuspiciousGapPct:    15.0,
		PriceMethod:         PriceInverseLinear,
		FullScoreBandPct:    5.0,
		ZeroScoreCeilingPct: 50.0,
		PriceWeight:         0.5,
		TechnicalWeight:     0.3,
		QualificationWeight: 0.2,
		TieBreakOrder: []TieBreakCriterion{
			TieBreakPrice,
			TieBreakTechnical,
			TieBreakQualification,
			TieBreakSubmission,
		},
		TieEpsilon:          0.01,
		AlternativesCount:   2,
		CloseCompetitionPts: 3.0,
	}
}

// Validate rejects configurations the engine cannot evaluate under.
func (c Config) Validate() error {
	switch c.OutlierMethod {
	case OutlierIQR, OutlierStdDev:
	default:
		return errors.NewConfigurationError(
			fmt.Sprintf("unrecognized outlier method %q", c.OutlierMethod))
	}

	if c.OutlierMethod == OutlierStdDev && c.OutlierZThreshold <= 0 {
		return errors.NewConfigurationError(
			fmt.Sprintf("outlier z-score threshold must be positive, got %v", c.OutlierZThreshold))
	}

	if c.SuspiciousGapPct < 0 {
		return errors.NewConfigurationError(
			fmt.Sprintf("suspicious gap threshold must be non-negative, got %v", c.SuspiciousGapPct))
	}

	switch c.PriceMethod {
	case PriceInverseLinear, PriceThreshold, PriceBestValue:
	default:
		return errors.NewConfigurationError(
			fmt.Sprintf("unrecognized price scoring method %q", c.PriceMethod))
	}

	if c.PriceMethod == PriceThreshold {
		if c.FullScoreBandPct < 0 {
			return errors.NewConfigurationError(
				fmt.Sprintf("full-score band must be non-negative, got %v", c.FullScoreBandPct))
		}
		if c.ZeroScoreCeilingPct <= c.FullScoreBandPct {
			return errors.NewConfigurationError(
				fmt.Sprintf("zero-score ceiling (%v%%) must exceed the full-score band (%v%%)",
					c.ZeroScoreCeilingPct, c.FullScoreBandPct))
		}
	}

	for _, w := range []float64{c.PriceWeight, c.TechnicalWeight, c.QualificationWeight} {
		if w < 0 || w > 1 {
			return errors.NewConfigurationError(
				fmt.Sprintf("overall weight %v outside [0,1]", w))
		}
	}
	sum := c.PriceWeight + c.TechnicalWeight + c.QualificationWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return errors.NewConfigurationError(
			fmt.Sprintf("overall weights must sum to 1.0, got %v", sum))
	}

	for _, crit := range c.TieBreakOrder {
		switch crit {
		case TieBreakPrice, TieBreakTechnical, TieBreakQualification, TieBreakSubmission:
		default:
			return errors.NewConfigurationError(
				fmt.Sprintf("unrecognized tie-break criterion %q", crit))
		}
	}

	if c.TieEpsilon < 0 {
		return errors.NewConfigurationError(
			fmt.Sprintf("tie epsilon must be non-negative, got %v", c.TieEpsilon))
	}

	if c.AlternativesCount < 0 {
		return errors.NewConfigurationError(
			fmt.Sprintf("alternatives count must be non-negative, got %d", c.AlternativesCount))
	}

	if c.CloseCompetitionPts < 0 {
		return errors.NewConfigurationError(
			fmt.Sprintf("close-competition threshold must be non-negative, got %v", c.CloseCompetitionPts))
	}

	return nil
}
