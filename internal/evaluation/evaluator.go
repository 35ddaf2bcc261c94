package evaluation

import (
	"fmt"
	"strings"
	"time"

	"github.com/buildtally/bidlevel/internal/errors"
	"github.com/buildtally/bidlevel/internal/types"
)

// Input carries everything a single evaluation run consumes. The engine
// never mutates it, so the same Input always produces the same Report.
type Input struct {
	Bids     []types.Bid `json:"bids"`
	Estimate *float64    `json:"estimate,omitempty"`

	Criteria []Criterion                   `json:"criteria,omitempty"`
	Ratings  map[string]map[string]float64 `json:"ratings,omitempty"` // bidder ID -> criterion -> rating

	Requirements QualificationRequirements `json:"requirements"`
	Config       Config                    `json:"config"`

	// AsOf anchors time-dependent checks (insurance expiry). A zero AsOf
	// skips expiry comparison; callers wanting wall-clock behavior set it
	// explicitly so repeated runs stay reproducible.
	AsOf time.Time `json:"as_of,omitempty"`
}

// Evaluate runs the full comparison and evaluation pipeline over a bid set:
// statistics, outlier flags, ranking, the line-item comparison matrix, the
// low-bid analysis, per-bid scoring, tie-broken final ranking, and the award
// recommendation. It is a pure function of its input: no I/O, no shared
// state, deterministic for identical inputs.
func Evaluate(in Input) (*Report, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	amounts := make([]float64, len(in.Bids))
	for i, b := range in.Bids {
		amounts[i] = b.TotalAmount
	}

	stats, err := Statistics(amounts)
	if err != nil {
		return nil, err
	}

	outliers, err := DetectOutliers(in.Bids, stats, in.Config)
	if err != nil {
		return nil, err
	}

	ranked, err := RankBids(in.Bids, in.Estimate, stats, outliers)
	if err != nil {
		return nil, err
	}

	matrix := BuildMatrix(in.Bids)

	lowBid, err := AnalyzeLowBid(ranked, in.Config)
	if err != nil {
		return nil, err
	}

	priceScores, err := PriceScores(ranked, stats, in.Config)
	if err != nil {
		return nil, err
	}

	evals := make([]Evaluation, 0, len(in.Bids))
	for _, b := range in.Bids {
		technical := 0.0
		if len(in.Criteria) > 0 {
			technical, err = TechnicalScore(in.Ratings[b.BidderID], in.Criteria)
			if err != nil {
				return nil, errors.WrapError(err, "bidder %s", b.BidderID)
			}
		}

		qual, err := CheckQualifications(b, in.Requirements, in.AsOf)
		if err != nil {
			return nil, err
		}

		overall, err := OverallScore(priceScores[b.BidderID], technical, qual, in.Config)
		if err != nil {
			return nil, err
		}

		evals = append(evals, Evaluation{
			BidderID:            b.BidderID,
			SubmittedAt:         b.SubmittedAt,
			PriceScore:          priceScores[b.BidderID],
			TechnicalScore:      technical,
			QualificationScore:  qual.Score,
			QualificationStatus: qual.Status,
			Failures:            qual.Failures,
			OverallScore:        overall,
		})
	}

	final := FinalRanking(evals, in.Config)
	recommendation := Recommend(final, lowBid.BidderID, in.Config)

	return &Report{
		Statistics:     stats,
		Ranked:         ranked,
		Matrix:         matrix,
		LowBid:         lowBid,
		Evaluations:    final,
		Recommendation: recommendation,
	}, nil
}

// validateInput front-loads every input and configuration check so the
// pipeline proper never has to produce NaN or undefined scores.
func validateInput(in Input) error {
	if len(in.Bids) == 0 {
		return errors.NewInvalidInputError("bid set is empty")
	}

	seen := make(map[string]bool, len(in.Bids))
	for i, b := range in.Bids {
		if strings.TrimSpace(b.BidderID) == "" {
			return errors.NewInvalidInputError(
				fmt.Sprintf("bid at index %d has an empty bidder ID", i))
		}
		if seen[b.BidderID] {
			return errors.NewInvalidInputError(
				fmt.Sprintf("duplicate bidder ID %q", b.BidderID))
		}
		seen[b.BidderID] = true

		if b.TotalAmount < 0 {
			return errors.NewInvalidInputError(
				fmt.Sprintf("bidder %s has a negative total amount: %v", b.BidderID, b.TotalAmount))
		}

		for j, item := range b.LineItems {
			if strings.TrimSpace(item.Key) == "" {
				return errors.NewInvalidInputError(
					fmt.Sprintf("bidder %s line item %d has an empty key", b.BidderID, j))
			}
			if item.UnitPrice < 0 || item.Quantity < 0 || item.Extended < 0 {
				return errors.NewInvalidInputError(
					fmt.Sprintf("bidder %s line item %q has a negative value", b.BidderID, item.Key))
			}
		}
	}

	if in.Estimate != nil && *in.Estimate < 0 {
		return errors.NewInvalidInputError(
			fmt.Sprintf("project estimate is negative: %v", *in.Estimate))
	}

	if err := in.Config.Validate(); err != nil {
		return err
	}

	if err := ValidateCriteria(in.Criteria); err != nil {
		return err
	}

	if len(in.Criteria) == 0 && in.Config.TechnicalWeight > 0 {
		return errors.NewConfigurationError(
			fmt.Sprintf("technical weight is %v but no technical criteria were supplied",
				in.Config.TechnicalWeight))
	}

	if len(in.Criteria) > 0 {
		for _, b := range in.Bids {
			if _, ok := in.Ratings[b.BidderID]; !ok {
				return errors.NewMissingDataError(
					fmt.Sprintf("no technical ratings supplied for bidder %s", b.BidderID))
			}
		}
	}

	return in.Requirements.Validate()
}
