package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildtally/bidlevel/internal/errors"
	"github.com/buildtally/bidlevel/internal/types"
)

func pipelineInput() Input {
	submitted := time.Date(2026, 4, 10, 14, 0, 0, 0, time.UTC)

	criteria := []Criterion{
		{Name: "experience", Weight: 0.5},
		{Name: "schedule", Weight: 0.3},
		{Name: "safety", Weight: 0.2},
	}

	bids := []types.Bid{
		{
			BidderID:    "acme",
			TotalAmount: 100000,
			SubmittedAt: submitted,
			LineItems: []types.LineItem{
				{Key: "concrete", UnitPrice: 120, Quantity: 500, Extended: 60000},
				{Key: "steel", UnitPrice: 800, Quantity: 50, Extended: 40000},
			},
			Qualifications: qualifiedBidder(),
		},
		{
			BidderID:    "builder",
			TotalAmount: 112000,
			SubmittedAt: submitted.Add(2 * time.Hour),
			LineItems: []types.LineItem{
				{Key: "concrete", UnitPrice: 130, Quantity: 500, Extended: 65000},
				{Key: "steel", UnitPrice: 940, Quantity: 50, Extended: 47000},
			},
			Qualifications: qualifiedBidder(),
		},
		{
			BidderID:    "crest",
			TotalAmount: 95000,
			SubmittedAt: submitted.Add(-time.Hour),
			Qualifications: types.Qualifications{
				ExperienceYears:     floatPtr(12),
				SimilarProjects:     intPtr(9),
				BondOnFile:          boolPtr(true),
				InsuranceOnFile:     boolPtr(false), // critical miss
				WorkloadUtilization: floatPtr(0.4),
			},
		},
	}

	estimate := 105000.0
	return Input{
		Bids:     bids,
		Estimate: &estimate,
		Criteria: criteria,
		Ratings: map[string]map[string]float64{
			"acme":    {"experience": 85, "schedule": 90, "safety": 80},
			"builder": {"experience": 95, "schedule": 88, "safety": 92},
			"crest":   {"experience": 70, "schedule": 75, "safety": 65},
		},
		Requirements: strictRequirements(),
		Config:       DefaultConfig(),
	}
}

func TestEvaluate_FullPipeline(t *testing.T) {
	report, err := Evaluate(pipelineInput())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Statistics.Count)
	assert.Equal(t, 95000.0, report.Statistics.Low)
	assert.Equal(t, 112000.0, report.Statistics.High)

	// crest is the apparent low bid
	require.Len(t, report.Ranked, 3)
	assert.Equal(t, "crest", report.Ranked[0].Bid.BidderID)
	assert.Equal(t, 1, report.Ranked[0].Rank)
	assert.Equal(t, "crest", report.LowBid.BidderID)

	// crest supplied no line items, so only two bidders appear per item
	require.Len(t, report.Matrix.Items, 2)
	for _, item := range report.Matrix.Items {
		assert.Len(t, item.Entries, 2)
	}

	require.Len(t, report.Evaluations, 3)

	byBidder := make(map[string]Evaluation)
	for _, e := range report.Evaluations {
		byBidder[e.BidderID] = e
	}

	// crest is disqualified for missing insurance but stays visible
	crest := byBidder["crest"]
	assert.Equal(t, StatusDisqualified, crest.QualificationStatus)
	assert.Equal(t, 0.0, crest.OverallScore)
	assert.Equal(t, 3, crest.FinalRank)

	// the recommendation goes to an eligible bidder, with the
	// price-vs-quality concern because the low bidder lost
	require.NotNil(t, report.Recommendation)
	assert.NotEqual(t, "crest", report.Recommendation.BidderID)

	tags := concernTags(report.Recommendation)
	assert.Contains(t, tags, ConcernPriceVsQuality)
}

func TestEvaluate_Idempotent(t *testing.T) {
	in := pipelineInput()

	first, err := Evaluate(in)
	require.NoError(t, err)
	second, err := Evaluate(in)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same input and configuration must yield identical output")
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	in := pipelineInput()
	originalOrder := []string{in.Bids[0].BidderID, in.Bids[1].BidderID, in.Bids[2].BidderID}
	originalAmounts := []float64{in.Bids[0].TotalAmount, in.Bids[1].TotalAmount, in.Bids[2].TotalAmount}

	_, err := Evaluate(in)
	require.NoError(t, err)

	for i := range in.Bids {
		assert.Equal(t, originalOrder[i], in.Bids[i].BidderID)
		assert.Equal(t, originalAmounts[i], in.Bids[i].TotalAmount)
	}
}

func TestEvaluate_IdenticalBidsAllRankOne(t *testing.T) {
	in := Input{
		Bids: []types.Bid{
			{BidderID: "a", TotalAmount: 100000, Qualifications: qualifiedBidder()},
			{BidderID: "b", TotalAmount: 100000, Qualifications: qualifiedBidder()},
			{BidderID: "c", TotalAmount: 100000, Qualifications: qualifiedBidder()},
		},
		Config: func() Config {
			c := DefaultConfig()
			c.TechnicalWeight = 0
			c.PriceWeight = 0.8
			c.QualificationWeight = 0.2
			return c
		}(),
	}

	report, err := Evaluate(in)
	require.NoError(t, err)

	assert.Equal(t, 0.0, report.Statistics.StdDev)
	for _, rb := range report.Ranked {
		assert.Equal(t, 1, rb.Rank)
	}
}

func TestEvaluate_InputValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Input)
		checker func(error) bool
	}{
		{
			"empty bid set",
			func(in *Input) { in.Bids = nil },
			errors.IsInvalidInput,
		},
		{
			"duplicate bidder ID",
			func(in *Input) { in.Bids[1].BidderID = in.Bids[0].BidderID },
			errors.IsInvalidInput,
		},
		{
			"negative amount",
			func(in *Input) { in.Bids[0].TotalAmount = -5 },
			errors.IsInvalidInput,
		},
		{
			"malformed line item",
			func(in *Input) { in.Bids[0].LineItems[0].Key = "" },
			errors.IsInvalidInput,
		},
		{
			"negative line item price",
			func(in *Input) { in.Bids[0].LineItems[0].UnitPrice = -1 },
			errors.IsInvalidInput,
		},
		{
			"negative estimate",
			func(in *Input) { e := -1.0; in.Estimate = &e },
			errors.IsInvalidInput,
		},
		{
			"bad scoring method",
			func(in *Input) { in.Config.PriceMethod = "cheapest" },
			errors.IsConfiguration,
		},
		{
			"criteria weights off",
			func(in *Input) { in.Criteria[0].Weight = 0.9 },
			errors.IsConfiguration,
		},
		{
			"ratings missing for a bidder",
			func(in *Input) { delete(in.Ratings, "builder") },
			errors.IsMissingData,
		},
		{
			"technical weight without criteria",
			func(in *Input) { in.Criteria = nil },
			errors.IsConfiguration,
		},
		{
			"bad requirement severity",
			func(in *Input) { in.Requirements.BondRequired = &Requirement{Severity: "fatal"} },
			errors.IsConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := pipelineInput()
			tt.mutate(&in)

			_, err := Evaluate(in)
			require.Error(t, err)
			assert.True(t, tt.checker(err), "unexpected error category: %v", err)
		})
	}
}

func TestEvaluate_AllBidsDisqualified(t *testing.T) {
	in := pipelineInput()
	for i := range in.Bids {
		in.Bids[i].Qualifications.InsuranceOnFile = boolPtr(false)
	}

	report, err := Evaluate(in)
	require.NoError(t, err)

	assert.Nil(t, report.Recommendation)
	for _, e := range report.Evaluations {
		assert.Equal(t, StatusDisqualified, e.QualificationStatus)
		assert.Equal(t, 0.0, e.OverallScore)
	}
}

func TestEvaluate_NoTechnicalCriteria(t *testing.T) {
	in := Input{
		Bids: []types.Bid{
			{BidderID: "a", TotalAmount: 90000, Qualifications: qualifiedBidder()},
			{BidderID: "b", TotalAmount: 100000, Qualifications: qualifiedBidder()},
		},
		Requirements: strictRequirements(),
		Config: func() Config {
			c := DefaultConfig()
			c.PriceWeight = 0.7
			c.TechnicalWeight = 0
			c.QualificationWeight = 0.3
			return c
		}(),
	}

	report, err := Evaluate(in)
	require.NoError(t, err)

	require.NotNil(t, report.Recommendation)
	assert.Equal(t, "a", report.Recommendation.BidderID)
	for _, e := range report.Evaluations {
		assert.Equal(t, 0.0, e.TechnicalScore)
	}
}
