package database

import (
	"time"

	"github.com/google/uuid"
)

// Project represents a procurement project bids are evaluated against
type Project struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name,omitempty" db:"name"`
	Estimate  *float64  `json:"estimate,omitempty" db:"estimate"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EvaluationRun records a persisted evaluation result
type EvaluationRun struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"project_id" db:"project_id"`
	BidCount    int       `json:"bid_count" db:"bid_count"`
	WinnerID    string    `json:"winner_id,omitempty" db:"winner_id"`
	WinnerScore *float64  `json:"winner_score,omitempty" db:"winner_score"`
	Report      string    `json:"report,omitempty" db:"report"`
	RequestHash string    `json:"-" db:"request_hash"`
	ClientIP    string    `json:"-" db:"client_ip"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewEvaluationRun creates a run record with a generated ID
func NewEvaluationRun(projectID string, bidCount int, report, requestHash, clientIP string) *EvaluationRun {
	return &EvaluationRun{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		BidCount:    bidCount,
		Report:      report,
		RequestHash: requestHash,
		ClientIP:    clientIP,
		CreatedAt:   time.Now(),
	}
}
