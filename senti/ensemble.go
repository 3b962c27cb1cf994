package senti

import (
	"strings"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/model"
	"github.com/carusyte/stockpred/util"
	"github.com/jonreiter/govader"
)

//Scorer blends the VADER compound score with lexicon polarity and the finance
//vocabulary adjustment.
type Scorer struct {
	vader          *govader.SentimentIntensityAnalyzer
	lex            *Lexicon
	VaderWeight    float64
	PolarityWeight float64
	PosThreshold   float64
	NegThreshold   float64
}

//NewScorer creates a scorer with the weights and thresholds in conf.Args.Sentiment.
func NewScorer() (*Scorer, error) {
	lex, e := DefaultLexicon()
	if e != nil {
		return nil, e
	}
	sc := conf.Args.Sentiment
	return &Scorer{
		vader:          govader.NewSentimentIntensityAnalyzer(),
		lex:            lex,
		VaderWeight:    sc.VaderWeight,
		PolarityWeight: sc.PolarityWeight,
		PosThreshold:   sc.PositiveThreshold,
		NegThreshold:   sc.NegativeThreshold,
	}, nil
}

//Score cleans and scores a headline title.
func (s *Scorer) Score(h model.Headline) *model.ScoredHeadline {
	text := CleanText(h.Title)
	r := &model.ScoredHeadline{Headline: h}
	r.Compound = s.vader.PolarityScores(text).Compound
	r.Polarity, r.Subjectivity = s.lex.Score(text)
	r.Adjust = FinanceAdjust(strings.ToLower(text))
	r.Sentiment = util.Clamp(s.VaderWeight*r.Compound+s.PolarityWeight*r.Polarity+r.Adjust, -1, 1)
	r.Label = s.Label(r.Sentiment)
	return r
}

//Label maps a combined score to Positive, Negative or Neutral.
func (s *Scorer) Label(v float64) string {
	switch {
	case v > s.PosThreshold:
		return model.Positive
	case v < s.NegThreshold:
		return model.Negative
	default:
		return model.Neutral
	}
}
