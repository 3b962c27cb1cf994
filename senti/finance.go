package senti

import (
	"strings"

	"github.com/carusyte/stockpred/util"
)

var (
	//FinPos lists finance terms that lift headline sentiment.
	FinPos = []string{
		"rally", "rallies", "gain", "gains", "surge", "soar", "beat", "beats",
		"upgraded", "upgrade", "record high", "record-high", "strong earnings",
		"outperform", "bullish", "bounce", "turnaround", "recovery",
	}
	//FinNeg lists finance terms that depress headline sentiment.
	FinNeg = []string{
		"plunge", "plunges", "drop", "drops", "decline", "declines", "miss",
		"misses", "downgrade", "downgrades", "weak", "weakness", "warns",
		"selloff", "sell-off", "cut forecast", "loss", "fall", "fallen",
	}

	phrases = []string{"strong earnings", "record high", "cut forecast", "turnaround"}
)

const (
	phraseWeight = 0.18
	posWeight    = 0.08
	negWeight    = 0.10
)

//FinanceAdjust scores finance vocabulary in lower-cased text. Key phrases add
//or subtract 0.18 on top of the per-term +0.08 / -0.10. Terms match as substrings.
func FinanceAdjust(lower string) (adjust float64) {
	for _, p := range phrases {
		if !strings.Contains(lower, p) {
			continue
		}
		if util.ContainsStr(FinPos, p) {
			adjust += phraseWeight
		} else if util.ContainsStr(FinNeg, p) {
			adjust -= phraseWeight
		}
	}
	for _, w := range FinPos {
		if strings.Contains(lower, w) {
			adjust += posWeight
		}
	}
	for _, w := range FinNeg {
		if strings.Contains(lower, w) {
			adjust -= negWeight
		}
	}
	return
}

