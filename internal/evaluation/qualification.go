package evaluation

import (
	"fmt"
	"time"

	"github.com/buildtally/bidlevel/internal/errors"
	"github.com/buildtally/bidlevel/internal/types"
)

// Severity tags how a failed requirement is treated: critical failures
// disqualify, conditional failures reduce the score proportionally.
type Severity string

const (
	SeverityCritical    Severity = "critical"
	SeverityConditional Severity = "conditional"
)

// Threshold is a numeric requirement with its failure severity.
type Threshold struct {
	Value    float64  `json:"value"`
	Severity Severity `json:"severity"`
}

// Requirement is a yes/no requirement; its presence means it is enforced.
type Requirement struct {
	Severity Severity `json:"severity"`
}

// QualificationRequirements lists the thresholds a bidder is checked
// against. Nil fields are simply not enforced.
type QualificationRequirements struct {
	MinExperienceYears     *Threshold   `json:"min_experience_years,omitempty"`
	MinSimilarProjects     *Threshold   `json:"min_similar_projects,omitempty"`
	BondRequired           *Requirement `json:"bond_required,omitempty"`
	InsuranceRequired      *Requirement `json:"insurance_required,omitempty"`
	MaxWorkloadUtilization *Threshold   `json:"max_workload_utilization,omitempty"`
	LateSubmission         *Requirement `json:"late_submission,omitempty"`
}

// Validate rejects malformed requirement sets.
func (r QualificationRequirements) Validate() error {
	checkSeverity := func(name string, s Severity) error {
		switch s {
		case SeverityCritical, SeverityConditional:
			return nil
		default:
			return errors.NewConfigurationError(
				fmt.Sprintf("requirement %q has unrecognized severity %q", name, s))
		}
	}

	if t := r.MinExperienceYears; t != nil {
		if t.Value < 0 {
			return errors.NewConfigurationError(
				fmt.Sprintf("minimum experience years must be non-negative, got %v", t.Value))
		}
		if err := checkSeverity("min_experience_years", t.Severity); err != nil {
			return err
		}
	}
	if t := r.MinSimilarProjects; t != nil {
		if t.Value < 0 {
			return errors.NewConfigurationError(
				fmt.Sprintf("minimum similar projects must be non-negative, got %v", t.Value))
		}
		if err := checkSeverity("min_similar_projects", t.Severity); err != nil {
			return err
		}
	}
	if q := r.BondRequired; q != nil {
		if err := checkSeverity("bond_required", q.Severity); err != nil {
			return err
		}
	}
	if q := r.InsuranceRequired; q != nil {
		if err := checkSeverity("insurance_required", q.Severity); err != nil {
			return err
		}
	}
	if t := r.MaxWorkloadUtilization; t != nil {
		if t.Value <= 0 {
			return errors.NewConfigurationError(
				fmt.Sprintf("maximum workload utilization must be positive, got %v", t.Value))
		}
		if err := checkSeverity("max_workload_utilization", t.Severity); err != nil {
			return err
		}
	}
	if q := r.LateSubmission; q != nil {
		if err := checkSeverity("late_submission", q.Severity); err != nil {
			return err
		}
	}

	return nil
}

// check is one evaluated qualification attribute. attainment is in [0,1]:
// 1 for a pass, a proportional fraction for a conditional shortfall, 0 for
// a hard miss or absent data (missing fields fail safe).
type check struct {
	name       string
	severity   Severity
	met        bool
	attainment float64
	note       string
}

// CheckQualifications evaluates a bid against the requirement set. asOf is
// the reference time for insurance expiry; a zero asOf skips the expiry
// comparison and checks only certificate presence.
func CheckQualifications(bid types.Bid, reqs QualificationRequirements, asOf time.Time) (QualificationResult, error) {
	if err := reqs.Validate(); err != nil {
		return QualificationResult{}, err
	}

	q := bid.Qualifications
	var checks []check

	if t := reqs.MinExperienceYears; t != nil {
		c := check{name: "experience", severity: t.Severity}
		switch {
		case q.ExperienceYears == nil:
			c.note = "years of experience not supplied; requirement treated as unmet"
		case *q.ExperienceYears >= t.Value:
			c.met = true
			c.attainment = 1
		default:
			c.attainment = ratioAttainment(*q.ExperienceYears, t.Value)
			c.note = fmt.Sprintf("%.1f years of experience below required %.1f", *q.ExperienceYears, t.Value)
		}
		checks = append(checks, c)
	}

	if t := reqs.MinSimilarProjects; t != nil {
		c := check{name: "similar_projects", severity: t.Severity}
		switch {
		case q.SimilarProjects == nil:
			c.note = "similar project count not supplied; requirement treated as unmet"
		case float64(*q.SimilarProjects) >= t.Value:
			c.met = true
			c.attainment = 1
		default:
			c.attainment = ratioAttainment(float64(*q.SimilarProjects), t.Value)
			c.note = fmt.Sprintf("%d similar projects below required %.0f", *q.SimilarProjects, t.Value)
		}
		checks = append(checks, c)
	}

	if req := reqs.BondRequired; req != nil {
		c := check{name: "bond", severity: req.Severity}
		if q.BondOnFile != nil && *q.BondOnFile {
			c.met = true
			c.attainment = 1
		} else if q.BondOnFile == nil {
			c.note = "bond status not supplied; required bond treated as missing"
		} else {
			c.note = "required bid bond is not on file"
		}
		checks = append(checks, c)
	}

	if req := reqs.InsuranceRequired; req != nil {
		c := check{name: "insurance", severity: req.Severity}
		switch {
		case q.InsuranceOnFile == nil:
			c.note = "insurance status not supplied; required certificate treated as missing"
		case !*q.InsuranceOnFile:
			c.note = "required insurance certificate is not on file"
		case q.InsuranceExpires != nil && !asOf.IsZero() && q.InsuranceExpires.Before(asOf):
			c.note = fmt.Sprintf("insurance certificate expired %s", q.InsuranceExpires.Format("2006-01-02"))
		default:
			c.met = true
			c.attainment = 1
		}
		checks = append(checks, c)
	}

	if t := reqs.MaxWorkloadUtilization; t != nil {
		c := check{name: "workload", severity: t.Severity}
		switch {
		case q.WorkloadUtilization == nil:
			c.note = "workload utilization not supplied; requirement treated as unmet"
		case *q.WorkloadUtilization <= t.Value:
			c.met = true
			c.attainment = 1
		default:
			over := (*q.WorkloadUtilization - t.Value) / t.Value
			c.attainment = clampUnit(1 - over)
			c.note = fmt.Sprintf("workload utilization %.0f%% exceeds maximum %.0f%%",
				*q.WorkloadUtilization*100, t.Value*100)
		}
		checks = append(checks, c)
	}

	if req := reqs.LateSubmission; req != nil {
		c := check{name: "late_submission", severity: req.Severity}
		if !q.LateSubmission {
			c.met = true
			c.attainment = 1
		} else {
			c.note = "bid was submitted after the deadline"
		}
		checks = append(checks, c)
	}

	return scoreChecks(checks), nil
}

// scoreChecks folds individual checks into a result. Each enforced check
// carries equal weight; a conditional shortfall keeps its proportional
// attainment while a critical failure zeroes the whole score.
func scoreChecks(checks []check) QualificationResult {
	if len(checks) == 0 {
		return QualificationResult{Score: 100, Status: StatusQualified}
	}

	var failures []FailedCheck
	disqualified := false
	total := 0.0

	for _, c := range checks {
		total += c.attainment
		if c.met {
			continue
		}
		failures = append(failures, FailedCheck{
			Name:     c.name,
			Severity: c.severity,
			Note:     c.note,
		})
		if c.severity == SeverityCritical {
			disqualified = true
		}
	}

	if disqualified {
		return QualificationResult{
			Score:    0,
			Status:   StatusDisqualified,
			Failures: failures,
		}
	}

	result := QualificationResult{
		Score:    100 * total / float64(len(checks)),
		Status:   StatusQualified,
		Failures: failures,
	}
	if len(failures) > 0 {
		result.Status = StatusConditional
	}
	return result
}

// ratioAttainment is the fraction of a minimum threshold the bidder reached.
func ratioAttainment(actual, required float64) float64 {
	if required == 0 {
		return 1
	}
	return clampUnit(actual / required)
}

func clampUnit(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
