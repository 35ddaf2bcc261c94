package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildtally/bidlevel/internal/types"
)

func bidSet(amounts map[string]float64) []types.Bid {
	bids := make([]types.Bid, 0, len(amounts))
	// deterministic order not required here; DetectOutliers keys by bidder
	for id, amt := range amounts {
		bids = append(bids, types.Bid{BidderID: id, TotalAmount: amt})
	}
	return bids
}

func TestDetectOutliers_IQR(t *testing.T) {
	bids := bidSet(map[string]float64{
		"acme":    90000,
		"builder": 95000,
		"crest":   98000,
		"delta":   97000,
		"eagle":   250000,
	})

	stats, err := Statistics([]float64{90000, 95000, 98000, 97000, 250000})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.OutlierMethod = OutlierIQR

	flagged, err := DetectOutliers(bids, stats, cfg)
	require.NoError(t, err)

	// Q1=95000, Q3=98000, IQR=3000, upper fence 102500
	assert.True(t, flagged["eagle"])
	assert.False(t, flagged["acme"])
	assert.False(t, flagged["builder"])
	assert.False(t, flagged["crest"])
	assert.False(t, flagged["delta"])
}

func TestDetectOutliers_IQRIgnoresLowBids(t *testing.T) {
	// 40000 sits far below the lower Tukey fence. The IQR method still
	// leaves it unflagged; suspiciously low bids surface through the
	// low-bid gap analysis instead.
	bids := bidSet(map[string]float64{
		"acme":    40000,
		"builder": 95000,
		"crest":   96000,
		"delta":   97000,
		"eagle":   98000,
	})

	stats, err := Statistics([]float64{40000, 95000, 96000, 97000, 98000})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.OutlierMethod = OutlierIQR

	flagged, err := DetectOutliers(bids, stats, cfg)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

func TestDetectOutliers_StdDev(t *testing.T) {
	bids := bidSet(map[string]float64{
		"a": 100,
		"b": 100,
		"c": 100,
		"d": 100,
		"e": 100,
		"f": 100,
		"g": 100,
		"h": 500,
	})

	amounts := make([]float64, 0, len(bids))
	for _, b := range bids {
		amounts = append(amounts, b.TotalAmount)
	}
	stats, err := Statistics(amounts)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.OutlierMethod = OutlierStdDev
	cfg.OutlierZThreshold = 2.0

	flagged, err := DetectOutliers(bids, stats, cfg)
	require.NoError(t, err)

	assert.True(t, flagged["h"])
	assert.False(t, flagged["a"])
}

func TestDetectOutliers_SmallSampleDegradesGracefully(t *testing.T) {
	bids := bidSet(map[string]float64{"a": 100, "b": 100000})
	stats, err := Statistics([]float64{100, 100000})
	require.NoError(t, err)

	for _, method := range []OutlierMethod{OutlierIQR, OutlierStdDev} {
		cfg := DefaultConfig()
		cfg.OutlierMethod = method

		flagged, err := DetectOutliers(bids, stats, cfg)
		require.NoError(t, err)
		assert.Empty(t, flagged, "method %s should flag nothing below 3 bids", method)
	}
}

func TestDetectOutliers_ZeroStdDev(t *testing.T) {
	bids := bidSet(map[string]float64{"a": 100, "b": 100, "c": 100})
	stats, err := Statistics([]float64{100, 100, 100})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.OutlierMethod = OutlierStdDev

	flagged, err := DetectOutliers(bids, stats, cfg)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

func TestDetectOutliers_UnknownMethod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutlierMethod = "mad"

	_, err := DetectOutliers(bidSet(map[string]float64{"a": 1, "b": 2, "c": 3}), BidStatistics{}, cfg)
	assert.Error(t, err)
}
