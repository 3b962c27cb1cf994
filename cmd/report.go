package cmd

import (
	"context"
	"fmt"

	"github.com/carusyte/stockpred/getd"
	"github.com/carusyte/stockpred/plot"
	"github.com/carusyte/stockpred/report"
	"github.com/carusyte/stockpred/store"
	"github.com/spf13/cobra"
)

var limit int

func init() {
	plotCmd.Flags().BoolVarP(&upload, "upload", "u", false, "upload the charts to the configured storage")
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows per table")
	rootCmd.AddCommand(plotCmd, historyCmd)
}

var plotCmd = &cobra.Command{
	Use:   "plot [symbol...]",
	Short: "Render price and RSI charts from the analysis files.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(context.Background(), upload)
		defer p.close()
		for _, s := range symbols(args) {
			a, e := getd.LoadAnalysis(s)
			if e != nil {
				return e
			}
			paths, e := plot.Analysis(a)
			if e != nil {
				return e
			}
			for _, path := range paths {
				fmt.Println(path)
				p.replace(path, store.Key("Charts", path))
			}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [symbol]",
	Short: "Show recent predictions, training runs and stage timings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := ""
		if syms := symbols(args); len(args) > 0 && len(syms) > 0 {
			s = syms[0]
		}
		out, e := report.History(s, limit)
		if e != nil {
			return e
		}
		fmt.Print(out)
		return nil
	},
}
