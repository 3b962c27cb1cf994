package indc

//RSIResult carries the intermediate series of the RSI calculation, which are
//published as features alongside the index itself.
type RSIResult struct {
	Change  []float64
	Gain    []float64
	Loss    []float64
	AvgGain []float64
	AvgLoss []float64
	RS      []float64
	RSI     []float64
}

//RSI calculates Relative Strength Index with exponentially smoothed gains and
//losses over the given window. A zero average loss is replaced by 1e-10.
func RSI(close []float64, window int) *RSIResult {
	r := &RSIResult{Change: Diff(close)}
	r.Gain, r.Loss = GainLoss(r.Change)
	r.AvgGain = EMA(r.Gain, window)
	r.AvgLoss = EMA(r.Loss, window)
	r.RS = make([]float64, len(close))
	r.RSI = make([]float64, len(close))
	for i := range close {
		l := r.AvgLoss[i]
		if l == 0 {
			l = 1e-10
		}
		r.RS[i] = r.AvgGain[i] / l
		r.RSI[i] = 100 - 100/(1+r.RS[i])
	}
	return r
}

//DeftRSI calculates RSI using the default window (20)
func DeftRSI(close []float64) *RSIResult {
	return RSI(close, 20)
}
