package indc

import (
	"math"
)

//SMA calculates the simple moving average over a rolling window of n values.
//The first n-1 results, and any window holding a NaN, are NaN.
func SMA(src []float64, n int) []float64 {
	r := make([]float64, len(src))
	sum, nan := .0, 0
	for i, v := range src {
		if math.IsNaN(v) {
			nan++
		} else {
			sum += v
		}
		if i >= n {
			old := src[i-n]
			if math.IsNaN(old) {
				nan--
			} else {
				sum -= old
			}
		}
		if i < n-1 || nan > 0 || n <= 0 {
			r[i] = math.NaN()
			continue
		}
		r[i] = sum / float64(n)
	}
	return r
}

//EMA calculates the exponential moving average with alpha = 2/(span+1),
//seeded with the first valid value. NaN inputs carry the previous average forward.
func EMA(src []float64, span int) []float64 {
	alpha := 2. / (float64(span) + 1.)
	r := make([]float64, len(src))
	prev := math.NaN()
	for i, v := range src {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
		default:
			prev = alpha*v + (1-alpha)*prev
		}
		r[i] = prev
	}
	return r
}

//Diff returns the difference between consecutive values; the first is NaN.
func Diff(src []float64) []float64 {
	r := make([]float64, len(src))
	for i := range src {
		if i == 0 {
			r[i] = math.NaN()
			continue
		}
		r[i] = src[i] - src[i-1]
	}
	return r
}

//GainLoss splits changes into gains (positive changes) and losses (magnitude
//of negative changes). NaN changes count as zero for both.
func GainLoss(change []float64) (gain, loss []float64) {
	gain = make([]float64, len(change))
	loss = make([]float64, len(change))
	for i, c := range change {
		if c > 0 {
			gain[i] = c
		} else if c < 0 {
			loss[i] = -c
		}
	}
	return
}

//Trend labels the latest close against its n-period SMA.
func Trend(close []float64, n int) (trend string, ma float64) {
	if len(close) == 0 {
		return "", math.NaN()
	}
	sma := SMA(close, n)
	last := close[len(close)-1]
	ma = sma[len(sma)-1]
	if last > ma {
		return "Bullish", ma
	}
	return "Bearish", ma
}
