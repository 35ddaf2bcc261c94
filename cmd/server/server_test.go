package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildtally/bidlevel/internal/cache"
	"github.com/buildtally/bidlevel/internal/database"
	"github.com/buildtally/bidlevel/internal/evaluation"
	"github.com/buildtally/bidlevel/internal/monitoring"
	"github.com/buildtally/bidlevel/internal/ratelimit"
	"github.com/buildtally/bidlevel/internal/types"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	metrics := monitoring.NewMetrics()
	redisClient, err := ratelimit.NewRedisClient(ratelimit.RedisConfig{})
	require.NoError(t, err)
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), metrics)

	return &server{
		repo:    database.NewRepository(db),
		db:      db,
		cache:   cache.New(15 * time.Minute),
		limiter: limiter,
		metrics: metrics,
		logger:  monitoring.NewLogger(),
		clock:   time.Now,
	}
}

func testEvaluateBody(t *testing.T) []byte {
	t.Helper()

	req := evaluateRequest{
		ProjectName: "Community Center Phase 2",
		Bids: []types.Bid{
			{BidderID: "acme", TotalAmount: 96000, SubmittedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
			{BidderID: "builder", TotalAmount: 98000, SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
			{BidderID: "crest", TotalAmount: 95000, SubmittedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
		},
		Criteria: []evaluation.Criterion{
			{Name: "schedule", Weight: 0.5},
			{Name: "approach", Weight: 0.5},
		},
		Ratings: map[string]map[string]float64{
			"acme":    {"schedule": 80, "approach": 90},
			"builder": {"schedule": 85, "approach": 95},
			"crest":   {"schedule": 70, "approach": 75},
		},
	}

	body, err := json.Marshal(req)
	require.NoError(t, err)
	return body
}

func postEvaluate(r *gin.Engine, projectID string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/projects/%s/evaluate", projectID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestEvaluateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	r := srv.setupRouter()

	w := postEvaluate(r, "community-center", testEvaluateBody(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		RunID     string `json:"run_id"`
		ProjectID string `json:"project_id"`
		Report    struct {
			Recommendation *struct {
				BidderID string `json:"bidder_id"`
			} `json:"recommendation"`
			Evaluations []struct {
				BidderID  string `json:"bidder_id"`
				FinalRank int    `json:"final_rank"`
			} `json:"evaluations"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "community-center", resp.ProjectID)
	require.NotNil(t, resp.Report.Recommendation)
	assert.Len(t, resp.Report.Evaluations, 3)
	assert.Equal(t, 1, resp.Report.Evaluations[0].FinalRank)
}

func TestEvaluateCachesIdenticalPayloads(t *testing.T) {
	srv := newTestServer(t)
	r := srv.setupRouter()
	body := testEvaluateBody(t)

	first := postEvaluate(r, "community-center", body)
	require.Equal(t, http.StatusOK, first.Code)

	second := postEvaluate(r, "community-center", body)
	require.Equal(t, http.StatusOK, second.Code)

	// Cached response is byte-identical, including the original run ID
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, int64(1), srv.metrics.CacheHits)
}

func TestEvaluateRejectsEmptyBidSet(t *testing.T) {
	srv := newTestServer(t)
	r := srv.setupRouter()

	body, err := json.Marshal(evaluateRequest{Bids: []types.Bid{}})
	require.NoError(t, err)

	w := postEvaluate(r, "community-center", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_input", resp["category"])
}

func TestEvaluateRejectsBadConfig(t *testing.T) {
	srv := newTestServer(t)
	r := srv.setupRouter()

	cfg := evaluation.DefaultConfig()
	cfg.PriceWeight = 0.9 // weights no longer sum to 1.0

	req := evaluateRequest{
		Bids: []types.Bid{
			{BidderID: "acme", TotalAmount: 96000},
		},
		Config: &cfg,
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w := postEvaluate(r, "community-center", body)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "configuration", resp["category"])
}

func TestEvaluateRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t)
	r := srv.setupRouter()

	w := postEvaluate(r, "community-center", []byte(`{"bids": [`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndFetchRuns(t *testing.T) {
	srv := newTestServer(t)
	r := srv.setupRouter()

	w := postEvaluate(r, "community-center", testEvaluateBody(t))
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	listW := httptest.NewRecorder()
	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/projects/community-center/evaluations", nil)
	r.ServeHTTP(listW, listReq)
	require.Equal(t, http.StatusOK, listW.Code)

	var listResp struct {
		Count int `json:"count"`
		Runs  []struct {
			ID       string `json:"id"`
			BidCount int    `json:"bid_count"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(listW.Body.Bytes(), &listResp))
	require.Equal(t, 1, listResp.Count)
	assert.Equal(t, created.RunID, listResp.Runs[0].ID)
	assert.Equal(t, 3, listResp.Runs[0].BidCount)

	getW := httptest.NewRecorder()
	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+created.RunID, nil)
	r.ServeHTTP(getW, getReq)
	require.Equal(t, http.StatusOK, getW.Code)

	var getResp struct {
		RunID  string          `json:"run_id"`
		Report json.RawMessage `json:"report"`
	}
	require.NoError(t, json.Unmarshal(getW.Body.Bytes(), &getResp))
	assert.Equal(t, created.RunID, getResp.RunID)
	assert.NotEmpty(t, getResp.Report)
}

func TestFetchUnknownRun(t *testing.T) {
	srv := newTestServer(t)
	r := srv.setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/no-such-run", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	r := srv.setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Contains(t, resp, "metrics")
	assert.Contains(t, resp, "database")
	assert.Contains(t, resp, "rate_limit")
}
