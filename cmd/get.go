package cmd

import (
	"context"
	"strings"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/util"
	"github.com/spf13/cobra"
)

var (
	input, analysisFile, sentiFile string
	upload, merge                  bool
	days                           int
)

func init() {
	fetchCmd.Flags().BoolVarP(&upload, "upload", "u", false, "upload saved files to the configured storage")

	analyseCmd.Flags().StringVarP(&input, "input", "i", "", "analyse an existing raw price CSV instead of fetching")
	analyseCmd.Flags().BoolVarP(&upload, "upload", "u", false, "upload saved files to the configured storage")

	scrapeCmd.Flags().BoolVarP(&upload, "upload", "u", false, "upload saved files to the configured storage")
	historyNewsCmd.Flags().IntVarP(&days, "days", "d", 0, "number of days back to fetch (default news.days_back)")
	historyNewsCmd.Flags().BoolVarP(&merge, "merge", "m", false, "also merge the rows into the master headline file")
	historyNewsCmd.Flags().BoolVarP(&upload, "upload", "u", false, "upload saved files to the configured storage")
	newsCmd.AddCommand(scrapeCmd)
	newsCmd.AddCommand(historyNewsCmd)

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(analyseCmd)
	rootCmd.AddCommand(newsCmd)
}

//symbols returns args or, when empty, the configured symbols, upper-cased.
func symbols(args []string) []string {
	if len(args) == 0 {
		args = conf.Args.Symbols
	}
	s := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.ToUpper(strings.TrimSpace(a)); a != "" && !util.ContainsStr(s, a) {
			s = append(s, a)
		}
	}
	return s
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [symbol...]",
	Short: "Fetch price bars and save them as raw CSV files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(context.Background(), upload)
		defer p.close()
		return p.fetch(symbols(args))
	},
}

var analyseCmd = &cobra.Command{
	Use:   "analyse [symbol...]",
	Short: "Compute indicators, fundamentals and signals for each symbol.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(context.Background(), upload)
		defer p.close()
		_, e := p.analyse(symbols(args), input)
		return e
	},
}

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Collect news headlines.",
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the configured RSS feeds into the master headline file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(context.Background(), upload)
		defer p.close()
		_, e := p.scrape()
		return e
	},
}

var historyNewsCmd = &cobra.Command{
	Use:   "history [symbol]",
	Short: "Fetch historical company news from finnhub, one day at a time.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		syms := symbols(args)
		if len(syms) == 0 {
			syms = []string{"MSFT"}
		}
		if days <= 0 {
			days = conf.Args.News.DaysBack
		}
		p := newPipeline(context.Background(), upload)
		defer p.close()
		_, e := p.history(syms[0], days, merge)
		return e
	},
}
