package cmd

import (
	"github.com/carusyte/stockpred/conf"
	"github.com/carusyte/stockpred/global"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

var log = global.Log

var (
	cfgFile, logLevel, profMode string
	prof                        interface{ Stop() }
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is stockpred.toml in $GOPATH/bin, the working directory or $HOME)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override the configured log level (debug, info, warning, error)")
	rootCmd.PersistentFlags().StringVar(&profMode, "profile", "",
		"write a cpu or mem profile to the working directory")
}

var rootCmd = &cobra.Command{
	Use:   "stockpred",
	Short: "Stockpred collects market data and news, scores sentiment and predicts daily closing prices.",
	Long:  `Please provide subcommand to take further actions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			if e := conf.Load(cfgFile); e != nil {
				return e
			}
		}
		if e := conf.Err(); e != nil {
			return e
		}
		if logLevel != "" {
			conf.Args.LogLevel = logLevel
		}
		global.SetupLog()
		if profMode == "" {
			profMode = conf.Args.Profiling
		}
		switch profMode {
		case "cpu":
			prof = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		case "mem":
			prof = profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if prof != nil {
			prof.Stop()
		}
	},
}

//Execute is the entrance of this command-line framework
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}
