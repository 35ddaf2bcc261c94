package types

import "time"

// Bid is a single contractor's price submission for a project or bid package.
// Bids are immutable once evaluation begins; the engine never mutates them.
type Bid struct {
	BidderID       string         `json:"bidder_id"`
	BidderName     string         `json:"bidder_name,omitempty"`
	TotalAmount    float64        `json:"total_amount"`
	LineItems      []LineItem     `json:"line_items,omitempty"`
	SubmittedAt    time.Time      `json:"submitted_at"`
	Qualifications Qualifications `json:"qualifications"`
}

// LineItem is one priced item within a bid. Items are matched across bids by
// Key; a bid that did not price an item simply omits it, it is never recorded
// as a zero price.
type LineItem struct {
	Key         string  `json:"key"`
	Description string  `json:"description,omitempty"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    float64 `json:"quantity"`
	Extended    float64 `json:"extended"`
}

// Qualifications holds a bidder's eligibility attributes. Pointer fields are
// optional: nil means the value was never supplied, and a nil value fails any
// requirement that depends on it rather than being silently ignored.
type Qualifications struct {
	ExperienceYears     *float64   `json:"experience_years,omitempty"`
	SimilarProjects     *int       `json:"similar_projects,omitempty"`
	BondOnFile          *bool      `json:"bond_on_file,omitempty"`
	InsuranceOnFile     *bool      `json:"insurance_on_file,omitempty"`
	InsuranceExpires    *time.Time `json:"insurance_expires,omitempty"`
	WorkloadUtilization *float64   `json:"workload_utilization,omitempty"`
	LateSubmission      bool       `json:"late_submission,omitempty"`
}
