package senti

import (
	_ "embed"
	"encoding/csv"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/carusyte/stockpred/util"
	"github.com/pkg/errors"
)

//go:embed lexicon.csv
var lexiconCSV string

var (
	lexOnce sync.Once
	deftLex *Lexicon
	lexErr  error

	wordRe = regexp.MustCompile(`[a-z]+(?:'[a-z]+)?`)

	negations = map[string]bool{"not": true, "no": true, "never": true, "none": true, "nor": true, "cannot": true}
)

type assessment struct {
	polarity     float64
	subjectivity float64
	intensity    float64
}

//Lexicon scores polarity and subjectivity from a word lexicon. Words with an
//intensity other than 1 modify the next scored word instead of being scored.
type Lexicon struct {
	words map[string]assessment
}

//LoadLexicon reads word,polarity,subjectivity,intensity rows with a header line.
func LoadLexicon(r io.Reader) (l *Lexicon, e error) {
	recs, e := csv.NewReader(r).ReadAll()
	if e != nil {
		return nil, errors.WithStack(e)
	}
	l = &Lexicon{words: make(map[string]assessment, len(recs))}
	for i, rec := range recs {
		if i == 0 {
			continue
		}
		if len(rec) != 4 {
			return nil, errors.Errorf("lexicon line %d: expected 4 fields, got %d", i+1, len(rec))
		}
		var a assessment
		for j, p := range []*float64{&a.polarity, &a.subjectivity, &a.intensity} {
			if *p, e = strconv.ParseFloat(strings.TrimSpace(rec[j+1]), 64); e != nil {
				return nil, errors.Wrapf(e, "lexicon line %d", i+1)
			}
		}
		l.words[strings.ToLower(strings.TrimSpace(rec[0]))] = a
	}
	return l, nil
}

//DefaultLexicon returns the embedded lexicon.
func DefaultLexicon() (*Lexicon, error) {
	lexOnce.Do(func() {
		deftLex, lexErr = LoadLexicon(strings.NewReader(lexiconCSV))
	})
	return deftLex, lexErr
}

//Score returns the mean polarity in [-1, 1] and subjectivity in [0, 1] of the
//lexicon words found in text. A negation before a word scales its polarity by -0.5.
//Both are 0 when no word matches.
func (l *Lexicon) Score(text string) (polarity, subjectivity float64) {
	var n int
	mult, neg := 1., false
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if negations[w] || strings.HasSuffix(w, "n't") {
			neg = true
			continue
		}
		a, ok := l.words[w]
		if !ok {
			mult, neg = 1, false
			continue
		}
		if a.intensity != 1 && a.polarity == 0 {
			mult *= a.intensity
			continue
		}
		p, s := a.polarity*mult, a.subjectivity*mult
		if neg {
			p *= -0.5
		}
		polarity += util.Clamp(p, -1, 1)
		subjectivity += util.Clamp(s, 0, 1)
		n++
		mult, neg = 1, false
	}
	if n == 0 {
		return 0, 0
	}
	return polarity / float64(n), subjectivity / float64(n)
}
