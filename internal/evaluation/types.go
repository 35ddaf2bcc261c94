package evaluation

import (
	"time"

	"github.com/buildtally/bidlevel/internal/types"
)

// BidStatistics holds descriptive statistics over a bid amount set. Variance
// is population variance (divide by N) so a single bid yields 0, not NaN.
type BidStatistics struct {
	Count     int      `json:"count"`
	Low       float64  `json:"low"`
	High      float64  `json:"high"`
	Mean      float64  `json:"mean"`
	Median    float64  `json:"median"`
	Variance  float64  `json:"variance"`
	StdDev    float64  `json:"std_dev"`
	Spread    float64  `json:"spread"`
	SpreadPct *float64 `json:"spread_pct"` // nil when the low bid is 0
}

// RankedBid is a bid plus its sorted position and variance metrics. All
// variance fields are percentages of the reference value; nil means the
// reference was zero (or, for VsEstimate, that no estimate was supplied).
type RankedBid struct {
	Bid        types.Bid `json:"bid"`
	Rank       int       `json:"rank"`
	VsLow      *float64  `json:"vs_low_pct"`
	VsHigh     *float64  `json:"vs_high_pct"`
	VsMean     *float64  `json:"vs_mean_pct"`
	VsMedian   *float64  `json:"vs_median_pct"`
	VsEstimate *float64  `json:"vs_estimate_pct,omitempty"`
	Outlier    bool      `json:"outlier"`
}

// MatrixEntry is one bidder's price for a line item, ranked within that item.
type MatrixEntry struct {
	BidderID  string   `json:"bidder_id"`
	UnitPrice float64  `json:"unit_price"`
	Rank      int      `json:"rank"`
	VsLow     *float64 `json:"vs_low_pct"`
}

// ItemComparison is the cross-bid ranking for a single line-item key. Only
// bidders who actually priced the item appear; missing prices are never
// imputed.
type ItemComparison struct {
	Key     string        `json:"key"`
	Entries []MatrixEntry `json:"entries"`
}

// ComparisonMatrix is the per-line-item cross-bid comparison table.
type ComparisonMatrix struct {
	Items []ItemComparison `json:"items"`
}

// LowBidAnalysis describes the apparent low bid and how far the field sits
// above it.
type LowBidAnalysis struct {
	BidderID           string   `json:"bidder_id"`
	Amount             float64  `json:"amount"`
	NextDistinctAmount *float64 `json:"next_distinct_amount,omitempty"`
	GapPct             *float64 `json:"gap_pct,omitempty"`
	Suspicious         bool     `json:"suspicious"`
	Note               string   `json:"note"`
}

// QualificationStatus is the outcome of the qualification check for one bid.
type QualificationStatus string

const (
	StatusQualified    QualificationStatus = "qualified"
	StatusConditional  QualificationStatus = "conditionally_qualified"
	StatusDisqualified QualificationStatus = "disqualified"
)

// FailedCheck names a qualification requirement a bidder did not meet.
type FailedCheck struct {
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
	Note     string   `json:"note"`
}

// QualificationResult is the per-bid output of the qualification checker.
type QualificationResult struct {
	Score    float64             `json:"score"`
	Status   QualificationStatus `json:"status"`
	Failures []FailedCheck       `json:"failures,omitempty"`
}

// Evaluation is the scored outcome for one bid. Disqualified bids carry an
// overall score of 0 but remain in the output for transparency.
type Evaluation struct {
	BidderID            string              `json:"bidder_id"`
	SubmittedAt         time.Time           `json:"submitted_at"`
	PriceScore          float64             `json:"price_score"`
	TechnicalScore      float64             `json:"technical_score"`
	QualificationScore  float64             `json:"qualification_score"`
	QualificationStatus QualificationStatus `json:"qualification_status"`
	Failures            []FailedCheck       `json:"failures,omitempty"`
	OverallScore        float64             `json:"overall_score"`
	FinalRank           int                 `json:"final_rank"`
}

// Eligible reports whether the bid participates in the recommendation.
func (e Evaluation) Eligible() bool {
	return e.QualificationStatus != StatusDisqualified
}

// Concern tags a reason the recommendation deserves scrutiny.
type Concern struct {
	Tag  string `json:"tag"`
	Note string `json:"note"`
}

// Concern tags emitted by the recommendation generator.
const (
	ConcernPriceVsQuality   = "price_vs_quality"
	ConcernCloseCompetition = "close_competition"
	ConcernConditional      = "conditional_qualification"
)

// Recommendation is the final award decision artifact.
type Recommendation struct {
	BidderID     string    `json:"bidder_id"`
	Alternatives []string  `json:"alternatives"`
	Concerns     []Concern `json:"concerns,omitempty"`
	Rationale    string    `json:"rationale"`
}

// Report bundles every output of a single evaluation run. Recommendation is
// nil when no bid survived qualification.
type Report struct {
	Statistics     BidStatistics    `json:"statistics"`
	Ranked         []RankedBid      `json:"ranked"`
	Matrix         ComparisonMatrix `json:"matrix"`
	LowBid         LowBidAnalysis   `json:"low_bid"`
	Evaluations    []Evaluation     `json:"evaluations"`
	Recommendation *Recommendation  `json:"recommendation,omitempty"`
}
