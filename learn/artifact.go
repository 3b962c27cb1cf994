package learn

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
)

//Artifact is the persisted model with the feature order it was trained on.
type Artifact struct {
	RunID     string
	Kind      string
	Features  []string
	Forest    *Forest
	Linear    *Linear
	Metrics   Metrics
	Source    string
	TrainedAt string
}

//Predict evaluates one sample whose values follow a.Features.
func (a *Artifact) Predict(x []float64) (float64, error) {
	if len(x) != len(a.Features) {
		return 0, errors.Errorf("Expected %d features, got %d.", len(a.Features), len(x))
	}
	switch a.Kind {
	case conf.LINEAR:
		if a.Linear == nil {
			return 0, errors.New("linear model missing from artifact")
		}
		return a.Linear.Predict(x), nil
	default:
		if a.Forest == nil {
			return 0, errors.New("forest missing from artifact")
		}
		return a.Forest.Predict(x), nil
	}
}

//Missing returns the model features absent from row, sorted by name.
func (a *Artifact) Missing(has func(string) bool) (missing []string) {
	for _, f := range a.Features {
		if !has(f) {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)
	return
}

//PredictMap aligns named values to the model feature order and predicts.
//Every feature must be present and numeric.
func (a *Artifact) PredictMap(m map[string]interface{}) (float64, error) {
	if miss := a.Missing(func(f string) bool { _, ok := m[f]; return ok }); len(miss) > 0 {
		return 0, errors.Errorf("missing features: %s", strings.Join(miss, ", "))
	}
	x := make([]float64, len(a.Features))
	for i, f := range a.Features {
		v, e := toFloat(m[f])
		if e != nil {
			return 0, errors.WithMessagef(e, "feature %s", f)
		}
		x[i] = v
	}
	return a.Predict(x)
}

//PredictList predicts from values already in model feature order.
func (a *Artifact) PredictList(vals []interface{}) (float64, error) {
	x := make([]float64, len(vals))
	for i, v := range vals {
		f, e := toFloat(v)
		if e != nil {
			return 0, errors.WithMessagef(e, "feature %d", i)
		}
		x[i] = f
	}
	return a.Predict(x)
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, e := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if e != nil {
			return 0, errors.Errorf("could not convert string to float: '%s'", t)
		}
		return f, nil
	default:
		return 0, errors.Errorf("unsupported value %v", t)
	}
}

func (a *Artifact) String() string {
	return fmt.Sprintf("%s model %s with %d features, MAE %.4f", a.Kind, a.RunID, len(a.Features), a.Metrics.MAE)
}

//Save writes the artifact as gzipped gob.
func (a *Artifact) Save(path string) error {
	return errors.WithMessage(util.WriteCompressed(path, a), "failed to save model")
}

//Load reads an artifact written by Save.
func Load(path string) (*Artifact, error) {
	a := new(Artifact)
	if e := util.ReadCompressed(path, a); e != nil {
		return nil, errors.WithMessage(e, "failed to load model")
	}
	if len(a.Features) == 0 {
		return nil, errors.Errorf("model at %s has no features", path)
	}
	return a, nil
}
