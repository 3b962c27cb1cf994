package senti

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Stocks rally", CleanText("<p>Stocks&nbsp;<b>rally</b></p>"))
	assert.Equal(t, `Apple's "big" day`, CleanText("  Apple’s “big”\r\n day  "))
	assert.Equal(t, "a < b", CleanText("a < b"))
	assert.Equal(t, "", CleanText(""))
	// full-width letters fold to ASCII
	assert.Equal(t, "MSFT", CleanText("ＭＳＦＴ"))
}

func TestFinanceAdjust(t *testing.T) {
	assert.InDelta(t, 0.26, FinanceAdjust("strong earnings lift shares"), 1e-9)
	assert.InDelta(t, -0.28, FinanceAdjust("company cut forecast"), 1e-9)
	assert.InDelta(t, 0.08, FinanceAdjust("stocks rally"), 1e-9)
	assert.InDelta(t, -0.2, FinanceAdjust("shares plunge after earnings miss"), 1e-9)
	// substrings count separately
	assert.InDelta(t, 0.16, FinanceAdjust("gains"), 1e-9)
	assert.InDelta(t, 0, FinanceAdjust("quarterly report"), 1e-9)
}

func TestLexiconScore(t *testing.T) {
	lex, e := DefaultLexicon()
	require.NoError(t, e)

	p, s := lex.Score("good")
	assert.InDelta(t, 0.7, p, 1e-9)
	assert.InDelta(t, 0.6, s, 1e-9)

	p, _ = lex.Score("not good")
	assert.InDelta(t, -0.35, p, 1e-9)
	p, _ = lex.Score("It isn't good")
	assert.InDelta(t, -0.35, p, 1e-9)

	p, s = lex.Score("Very good")
	assert.InDelta(t, 0.91, p, 1e-9)
	assert.InDelta(t, 0.78, s, 1e-9)

	p, _ = lex.Score("not very good")
	assert.InDelta(t, -0.455, p, 1e-9)

	p, s = lex.Score("good and bad")
	assert.InDelta(t, 0, p, 1e-9)
	assert.InDelta(t, (0.6+0.667)/2, s, 1e-9)

	p, s = lex.Score("nothing to see here")
	assert.Zero(t, p)
	assert.Zero(t, s)
}

func TestLexiconHeadlines(t *testing.T) {
	lex, e := DefaultLexicon()
	require.NoError(t, e)
	for _, c := range []struct {
		title     string
		pol, subj float64
	}{
		{"Apple posts impressive quarter as iPhone sales stay robust", 0.7, 0.8},
		{"Tesla faces disappointing deliveries amid volatile trading", -0.45, 0.65},
		{"Microsoft unveils innovative AI tools for developers", 0.5, 0.75},
		{"Regulators call bank's lending practices reckless and irresponsible", -0.55, 0.75},
		{"Nvidia reports absolutely stunning results", 0.75, 1},
		{"Retailer warns of a difficult holiday season", -0.5, 1},
		{"Amazon's cloud unit is not profitable yet", -0.25, 0.6},
	} {
		p, s := lex.Score(c.title)
		assert.InDelta(t, c.pol, p, 1e-9, c.title)
		assert.InDelta(t, c.subj, s, 1e-9, c.title)
	}
}

func TestLoadLexiconRejectsBadRows(t *testing.T) {
	_, e := LoadLexicon(strings.NewReader("word,polarity,subjectivity,intensity\ngood,x,0.5,1\n"))
	assert.Error(t, e)
}

func TestScorer(t *testing.T) {
	sc, e := NewScorer()
	require.NoError(t, e)

	r := sc.Score(model.Headline{Title: "Stocks rally, surge and soar to record high on strong earnings beat, bullish turnaround"})
	assert.Equal(t, 1., r.Sentiment)
	assert.Equal(t, model.Positive, r.Label)

	r = sc.Score(model.Headline{Title: "Shares plunge as weak demand forces company to cut forecast"})
	assert.Equal(t, model.Negative, r.Label)
	assert.InDelta(t, util.Clamp(0.65*r.Compound+0.35*r.Polarity+r.Adjust, -1, 1), r.Sentiment, 1e-12)

	assert.Equal(t, model.Neutral, sc.Label(0.05))
	assert.Equal(t, model.Neutral, sc.Label(-0.05))
	assert.Equal(t, model.Positive, sc.Label(0.051))
	assert.Equal(t, model.Negative, sc.Label(-0.051))
}

func TestScoreFrame(t *testing.T) {
	sc, e := NewScorer()
	require.NoError(t, e)

	_, e = sc.ScoreFrame(model.NewFrame("headline"))
	require.Error(t, e)

	f := model.NewFrame("title", "link")
	f.Append("Stocks rally", "a")
	f.Append("Stocks rally", "b")
	f.Append("Stocks plunge", "c")
	r, e := sc.ScoreFrame(f)
	require.NoError(t, e)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"title", "link", "published", "sentiment", "sentiment_label", "subjectivity"}, r.Columns())
	assert.Equal(t, util.Today(), r.Get(0, "published"))
	assert.Equal(t, "a", r.Get(0, "link"))
	assert.Equal(t, model.Positive, r.Get(0, "sentiment_label"))
	assert.Equal(t, model.Negative, r.Get(1, "sentiment_label"))
	// input is left untouched
	assert.Equal(t, 3, f.Len())
	assert.False(t, f.Has("sentiment"))
}

func TestMergeMaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master_sentiment.csv")
	a := model.NewFrame("title", "published", "sentiment")
	a.Append("old", "2024-05-01", "0.1")
	a.Append("dup", "2024-05-02", "0.2")
	_, e := MergeMaster(path, a)
	require.NoError(t, e)

	b := model.NewFrame("title", "published", "sentiment")
	b.Append("dup", "2024-05-03", "0.9")
	b.Append("new", "2024-05-04", "0.3")
	m, e := MergeMaster(path, b)
	require.NoError(t, e)
	assert.Equal(t, []string{"new", "dup", "old"}, m.Strings("title"))
	assert.Equal(t, "0.2", m.Get(1, "sentiment"))
}

func TestSummarize(t *testing.T) {
	f := model.NewFrame("title", "sentiment", "sentiment_label")
	f.Append("a", "0.5", model.Positive)
	f.Append("b", "-0.3", model.Negative)
	f.Append("c", "0.1", model.Positive)
	f.Append("d", "0", model.Neutral)
	s := Summarize(f, "2024-05-01")
	assert.Equal(t, 4, s.NumArticles)
	assert.InDelta(t, 0.075, s.AvgSentiment, 1e-9)
	assert.Equal(t, 2, s.NumPositive)
	assert.Equal(t, 1, s.NumNeutral)
	assert.Equal(t, 1, s.NumNegative)
}

func TestRun(t *testing.T) {
	conf.Args.DataDir = t.TempDir()
	in := filepath.Join(conf.Args.DataDir, "headlines.csv")
	require.NoError(t, os.WriteFile(in, []byte("title,link,published\n"+
		"Stocks rally,a,\"Wed, 01 May 2024 22:15:00 -0400\"\n"+
		"Shares plunge,b,2024-05-01\n"), 0644))

	r, e := Run(in, true)
	require.NoError(t, e)
	assert.FileExists(t, r.Scored)
	assert.Equal(t, MasterPath(), r.Master)
	assert.Equal(t, 2, r.Summary.NumArticles)

	raw, e := os.ReadFile(r.JSON)
	require.NoError(t, e)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"date", "num_articles", "avg_sentiment", "num_positive", "num_neutral", "num_negative"} {
		assert.Contains(t, m, k)
	}
	assert.Len(t, m, 6)

	master, e := model.ReadCSV(r.Master)
	require.NoError(t, e)
	assert.Equal(t, []string{"2024-05-02", "2024-05-01"}, master.Strings("published"))
}
