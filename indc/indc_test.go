package indc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var closes = []float64{10, 11, 12, 11, 13}

func TestSMA(t *testing.T) {
	r := SMA(closes, 3)
	assert.True(t, math.IsNaN(r[0]))
	assert.True(t, math.IsNaN(r[1]))
	assert.InDelta(t, 11, r[2], 1e-9)
	assert.InDelta(t, 34./3, r[3], 1e-9)
	assert.InDelta(t, 12, r[4], 1e-9)

	r = SMA([]float64{1, math.NaN(), 3, 4, 5}, 2)
	assert.True(t, math.IsNaN(r[1]))
	assert.True(t, math.IsNaN(r[2]))
	assert.InDelta(t, 3.5, r[3], 1e-9)
}

func TestEMA(t *testing.T) {
	r := EMA(closes, 3)
	expected := []float64{10, 10.5, 11.25, 11.125, 12.0625}
	for i := range expected {
		assert.InDelta(t, expected[i], r[i], 1e-9, "index %d", i)
	}
}

func TestRSI(t *testing.T) {
	r := RSI(closes, 3)
	assert.True(t, math.IsNaN(r.Change[0]))
	assert.Equal(t, []float64{0, 1, 1, 0, 2}, r.Gain)
	assert.Equal(t, []float64{0, 0, 0, 1, 0}, r.Loss)
	assert.InDelta(t, 1.1875, r.AvgGain[4], 1e-9)
	assert.InDelta(t, 0.25, r.AvgLoss[4], 1e-9)
	assert.InDelta(t, 0, r.RSI[0], 1e-9)
	assert.InDelta(t, 100, r.RSI[1], 1e-6)
	assert.InDelta(t, 100-100/1.75, r.RSI[3], 1e-9)
	assert.InDelta(t, 100-100/5.75, r.RSI[4], 1e-9)
}

func TestMACD(t *testing.T) {
	r := MACD(closes, 2, 3, 2)
	s, l := EMA(closes, 2), EMA(closes, 3)
	sig := EMA([]float64{s[0] - l[0], s[1] - l[1], s[2] - l[2], s[3] - l[3], s[4] - l[4]}, 2)
	for i := range closes {
		assert.InDelta(t, s[i]-l[i], r.Line[i], 1e-12)
		assert.InDelta(t, sig[i], r.Signal[i], 1e-12)
		assert.InDelta(t, r.Line[i]-r.Signal[i], r.Hist[i], 1e-12)
	}
	assert.Len(t, DeftMACD(closes).Line, len(closes))
}

func TestSMACrossovers(t *testing.T) {
	dates := []string{"d0", "d1", "d2", "d3", "d4", "d5"}
	short := []float64{math.NaN(), 1, 2, 3, 2, 1}
	long := []float64{math.NaN(), 2, 2, 2, 2, 2}
	sigs := SMACrossovers(dates, short, long, 1)
	require.Len(t, sigs, 2)
	assert.Equal(t, Buy, sigs[0].Kind)
	assert.Equal(t, "d3", sigs[0].Date)
	assert.Equal(t, Sell, sigs[1].Kind)
	assert.Equal(t, "d5", sigs[1].Date)

	// the Buy at d3 lies before the scan start
	late := SMACrossovers(dates, short, long, 4)
	require.Len(t, late, 1)
	assert.Equal(t, Sell, late[0].Kind)
}

func TestRSICrossovers(t *testing.T) {
	rsi := []float64{50, 69, 70, 75, 65, 31, 30, 29, 35}
	sigs := RSICrossovers(nil, rsi, 70, 30)
	require.Len(t, sigs, 2)
	assert.Equal(t, Overbought, sigs[0].Kind)
	assert.Equal(t, 2, sigs[0].Index)
	assert.Equal(t, Oversold, sigs[1].Kind)
	assert.Equal(t, 6, sigs[1].Index)
}

func TestTrend(t *testing.T) {
	tr, ma := Trend(closes, 3)
	assert.Equal(t, "Bullish", tr)
	assert.InDelta(t, 12, ma, 1e-9)
	tr, _ = Trend(closes, 10)
	assert.Equal(t, "Bearish", tr)
}
