package learn

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//Linear is a ridge-regularised least squares model with intercept.
type Linear struct {
	Coef      []float64
	Intercept float64
	Ridge     float64
}

//NewLinear creates an unfitted linear model with the given ridge penalty.
func NewLinear(ridge float64) *Linear {
	return &Linear{Ridge: ridge}
}

//Fit solves the ridge normal equations on centered data; the intercept restores the means.
//An ill-conditioned system is logged and its solution kept.
func (l *Linear) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || n != len(y) {
		return errors.Errorf("invalid training data: %d samples, %d targets", n, len(y))
	}
	p := len(x[0])
	if p == 0 {
		return errors.New("invalid training data: no features")
	}
	xm := make([]float64, p)
	ym := 0.
	for i, row := range x {
		for j, v := range row {
			xm[j] += v
		}
		ym += y[i]
	}
	for j := range xm {
		xm[j] /= float64(n)
	}
	ym /= float64(n)

	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range x {
		for j, v := range row {
			xc.Set(i, j, v-xm[j])
		}
		yc.SetVec(i, y[i]-ym)
	}
	var a mat.Dense
	a.Mul(xc.T(), xc)
	ridge := l.Ridge
	if ridge <= 0 {
		ridge = 1e-10
	}
	for j := 0; j < p; j++ {
		a.Set(j, j, a.At(j, j)+ridge)
	}
	var b, beta mat.VecDense
	b.MulVec(xc.T(), yc)
	if e := beta.SolveVec(&a, &b); e != nil {
		if _, ok := e.(mat.Condition); !ok {
			return errors.Wrap(e, "failed to solve normal equations")
		}
		log.Warnf("linear model: %v", e)
	}
	l.Coef = make([]float64, p)
	l.Intercept = ym
	for j := range l.Coef {
		l.Coef[j] = beta.AtVec(j)
		l.Intercept -= l.Coef[j] * xm[j]
	}
	return nil
}

//Predict evaluates the model for one sample.
func (l *Linear) Predict(x []float64) float64 {
	v := l.Intercept
	for j, c := range l.Coef {
		v += c * x[j]
	}
	return v
}
