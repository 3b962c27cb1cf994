package indc

//Signal kinds
const (
	Buy        = "Buy"
	Sell       = "Sell"
	Overbought = "Overbought"
	Oversold   = "Oversold"
)

//Signal marks a crossover event at a bar.
type Signal struct {
	Index int
	Date  string
	Kind  string
	Value float64
}

//SMACrossovers finds the bars where the short moving average crosses the long one.
//Scanning starts at index shortWindow. A Buy is short rising above long, a Sell
//is short falling below long.
func SMACrossovers(dates []string, short, long []float64, shortWindow int) (sigs []*Signal) {
	if shortWindow < 1 {
		shortWindow = 1
	}
	for i := shortWindow; i < len(short) && i < len(long); i++ {
		s, l, ps, pl := short[i], long[i], short[i-1], long[i-1]
		switch {
		case s > l && ps <= pl:
			sigs = append(sigs, &Signal{Index: i, Date: dateAt(dates, i), Kind: Buy, Value: s})
		case s < l && ps >= pl:
			sigs = append(sigs, &Signal{Index: i, Date: dateAt(dates, i), Kind: Sell, Value: s})
		}
	}
	return
}

//RSICrossovers finds the bars where RSI crosses into overbought (previous below
//upper, current at or above it) or oversold (previous above lower, current at or below it).
func RSICrossovers(dates []string, rsi []float64, upper, lower float64) (sigs []*Signal) {
	for i := 1; i < len(rsi); i++ {
		prev, cur := rsi[i-1], rsi[i]
		switch {
		case prev < upper && cur >= upper:
			sigs = append(sigs, &Signal{Index: i, Date: dateAt(dates, i), Kind: Overbought, Value: cur})
		case prev > lower && cur <= lower:
			sigs = append(sigs, &Signal{Index: i, Date: dateAt(dates, i), Kind: Oversold, Value: cur})
		}
	}
	return
}

func dateAt(dates []string, i int) string {
	if i < len(dates) {
		return dates[i]
	}
	return ""
}
