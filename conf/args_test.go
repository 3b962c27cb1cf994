package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "stockpred.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	e := Load(writeConfig(t, "news:\n  rate_per_minute: 0\n"))
	require.Error(t, e)
	assert.Contains(t, e.Error(), "RatePerMinute")
	assert.Equal(t, e, Err())

	e = Load(writeConfig(t, "model:\n  kind: boosted\nnews:\n  rate_per_minute: 30\n"))
	require.Error(t, e)
	assert.Contains(t, e.Error(), "Kind")

	e = Load(writeConfig(t, "sentiment:\n  vader_weight: 0\n  polarity_weight: 0\n"+
		"news:\n  rate_per_minute: 30\nmodel:\n  kind: linear\n"))
	require.Error(t, e)
	assert.Contains(t, e.Error(), "sentiment weights")
}

func TestLoadValid(t *testing.T) {
	require.NoError(t, Load(writeConfig(t, "concurrency: 2\nnews:\n  rate_per_minute: 45\n"+
		"sentiment:\n  vader_weight: 0.65\n  polarity_weight: 0.35\nmodel:\n  kind: forest\n")))
	assert.NoError(t, Err())
	assert.Equal(t, 2, Args.Concurrency)
	assert.Equal(t, 45, Args.News.RatePerMinute)
	assert.Equal(t, filepath.Join(Args.Model.Dir, Args.Model.File), Args.ModelPath())

	assert.Error(t, Load(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, Err())
}
