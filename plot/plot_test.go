package plot

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"testing"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/getd"
	"github.com/carusyte/stockpred/indc"
	"github.com/carusyte/stockpred/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG")

func analysed(t *testing.T) *model.Frame {
	f := model.NewFrame(model.ColDate, model.ColClose)
	for i := 0; i < 28; i++ {
		f.Append(fmt.Sprintf("2024-03-%02d", i+1), model.FormatFloat(100+10*math.Sin(float64(i)/4)))
	}
	require.NoError(t, getd.Indicators(f))
	return f
}

func TestPrice(t *testing.T) {
	f := analysed(t)
	sigs := []*indc.Signal{{Index: 10, Date: "2024-03-11", Kind: indc.Buy, Value: 101}}
	b, e := Price("MSFT Price", f, sigs)
	require.NoError(t, e)
	assert.True(t, bytes.HasPrefix(b, pngMagic))

	_, e = Price("x", model.NewFrame(model.ColDate), nil)
	assert.Error(t, e)
}

func TestRSI(t *testing.T) {
	b, e := RSI("MSFT RSI", analysed(t), 70, 30)
	require.NoError(t, e)
	assert.True(t, bytes.HasPrefix(b, pngMagic))

	one := model.NewFrame(model.ColDate, "RSI")
	one.Append("2024-03-01", "50")
	_, e = RSI("x", one, 70, 30)
	assert.Error(t, e)
}

func TestAnalysis(t *testing.T) {
	dd := conf.Args.DataDir
	defer func() { conf.Args.DataDir = dd }()
	conf.Args.DataDir = t.TempDir()
	paths, e := Analysis(&getd.Analysis{Symbol: "msft", Frame: analysed(t)})
	require.NoError(t, e)
	require.Len(t, paths, 2)
	for _, p := range paths {
		_, e = os.Stat(p)
		assert.NoError(t, e)
	}
}
