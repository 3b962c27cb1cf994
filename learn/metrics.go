package learn

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

//Metrics are regression scores on the held out rows.
type Metrics struct {
	MAE float64
	MSE float64
	R2  float64
}

//Evaluate scores predictions against actual values. R2 is NaN when the
//actual values have no variance.
func Evaluate(pred, actual []float64) (m Metrics) {
	abs := make([]float64, len(pred))
	sq := make([]float64, len(pred))
	for i := range pred {
		d := pred[i] - actual[i]
		abs[i], sq[i] = math.Abs(d), d*d
	}
	m.MAE, _ = stats.Mean(abs)
	m.MSE, _ = stats.Mean(sq)
	if v, e := stats.Variance(actual); e != nil || v == 0 {
		m.R2 = math.NaN()
	} else {
		m.R2 = stat.RSquaredFrom(pred, actual, nil)
	}
	return
}
