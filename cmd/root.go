// Package cmd is for command line interactions with selscan
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yumyai/selscan/config"
	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/db"
)

const Version = "0.1.0"

var (
	// settings loaded in PersistentPreRunE
	cfg config.Config

	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "selscan",
	Short: "Quality-check CDS sets and test codeml fits for positive selection",
	Long: `selscan filters coding sequences ahead of alignment (duplicates, malformed
codons, length outliers) and turns codeml log-likelihoods into likelihood ratio
tests with Benjamini-Hochberg corrected p-values.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()

		var err error
		if cfg, err = config.Load(viper.GetViper(), cfgFile); err != nil {
			return err
		}

		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		if err := logger.InitLogger(level); err != nil {
			return err
		}
		logger.Debug("Start:", zap.String("Version", Version), zap.String("command", cmd.Name()))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It returns the process exit code.
func Execute() int {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// openStore opens the result store when one is configured.
func openStore() (*db.Store, error) {
	if cfg.DB == "" {
		return nil, nil
	}
	store, err := db.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("Open result store on", zap.String("DB_LOC", cfg.DB))
	return store, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default ./selscan.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().String("db", "", "sqlite file to record runs in")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
}
