package indc

//MACDResult holds the MACD line, its signal line and the histogram.
type MACDResult struct {
	Line   []float64
	Signal []float64
	Hist   []float64
}

//MACD calculates MACD indicator for the given parameters
func MACD(close []float64, nshort, nlong, m int) *MACDResult {
	short := EMA(close, nshort)
	long := EMA(close, nlong)
	r := &MACDResult{
		Line: make([]float64, len(close)),
		Hist: make([]float64, len(close)),
	}
	for i := range close {
		r.Line[i] = short[i] - long[i]
	}
	r.Signal = EMA(r.Line, m)
	for i := range close {
		r.Hist[i] = r.Line[i] - r.Signal[i]
	}
	return r
}

//DeftMACD calculates MACD indicator using default parameters (12,26,9)
func DeftMACD(close []float64) *MACDResult {
	return MACD(close, 12, 26, 9)
}
