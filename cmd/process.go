package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/learn"
	"github.com/carusyte/stockpred/serve"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	train, sentiMaster, fuseMaster bool
	addr                           string
)

func init() {
	sentiCmd.Flags().StringVarP(&input, "input", "i", "", "headline CSV to score (default the master headline file)")
	sentiCmd.Flags().BoolVarP(&sentiMaster, "master", "m", true, "merge scored rows into the master sentiment file")
	sentiCmd.Flags().BoolVarP(&upload, "upload", "u", false, "upload saved files to the configured storage")

	fuseCmd.Flags().StringVarP(&analysisFile, "analysis", "a", "", "analysis CSV (default the symbol's analysis file)")
	fuseCmd.Flags().StringVarP(&sentiFile, "sentiment", "s", "", "scored headline CSV (default the master sentiment file)")
	fuseCmd.Flags().BoolVarP(&fuseMaster, "master", "m", false, "merge fused rows into the master fused file")
	fuseCmd.Flags().BoolVarP(&upload, "upload", "u", false, "upload saved files to the configured storage")

	trainCmd.Flags().StringVarP(&input, "input", "i", "", "fused CSV to train on (default the latest fused file)")
	trainCmd.Flags().BoolVarP(&upload, "upload", "u", false, "upload the model to the configured storage")

	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default serve.addr)")

	runCmd.Flags().BoolVarP(&train, "train", "t", false, "retrain the model even if one exists")

	rootCmd.AddCommand(sentiCmd, fuseCmd, trainCmd, predictCmd, serveCmd, runCmd, scheduleCmd)
}

var sentiCmd = &cobra.Command{
	Use:   "senti",
	Short: "Score headline sentiment and write the daily summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(context.Background(), upload)
		defer p.close()
		_, e := p.sentiment(input, sentiMaster)
		return e
	},
}

var fuseCmd = &cobra.Command{
	Use:   "fuse [symbol]",
	Short: "Join the analysis table with daily sentiment aggregates.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		syms := symbols(args)
		if len(syms) == 0 {
			return errors.New("no symbol given or configured")
		}
		p := newPipeline(context.Background(), upload)
		defer p.close()
		_, e := p.fuse(syms[0], analysisFile, sentiFile, fuseMaster)
		return e
	},
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the close price model on fused features.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(context.Background(), upload)
		defer p.close()
		_, e := p.train(input)
		return e
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict [symbol...]",
	Short: "Predict today's close from the latest fused features.",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPipeline(context.Background(), false)
		defer p.close()
		_, e := p.predict(symbols(args))
		return e
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve predictions over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, e := learn.Load(conf.Args.ModelPath())
		if e != nil {
			return e
		}
		log.Printf("loaded %v", m)
		if addr == "" {
			addr = conf.Args.Serve.Addr
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve.NewServer(m, addr).Start(ctx)
	},
}

var runCmd = &cobra.Command{
	Use:   "run [symbol...]",
	Short: "Run every stage from analysis to prediction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		p := newPipeline(ctx, true)
		defer p.close()
		return p.all(symbols(args), train)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [symbol...]",
	Short: "Run the pipeline on the configured cron schedule until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		syms := symbols(args)
		c := cron.New()
		_, e := c.AddFunc(conf.Args.Schedule.Cron, func() {
			p := newPipeline(ctx, true)
			defer p.close()
			if err := p.all(syms, conf.Args.Schedule.Train); err != nil {
				log.Errorf("scheduled run failed: %+v", err)
			}
		})
		if e != nil {
			return errors.Wrapf(e, "invalid schedule %q", conf.Args.Schedule.Cron)
		}
		c.Start()
		log.Printf("pipeline scheduled at %q for %v", conf.Args.Schedule.Cron, syms)
		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	},
}
