package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yumyai/selscan/internal/util"
	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/codeml"
	"github.com/yumyai/selscan/pkg/render"
	"github.com/yumyai/selscan/pkg/selection"
)

// fitCmd runs codeml once per model and tabulates the log-likelihoods.
var fitCmd = &cobra.Command{
	Use:   "fit [alignment] [tree]",
	Short: "Fit codeml models to one gene and write a Gene,Model,lnL table",
	Long: `Runs codeml for every requested model (M0, B, BS_NULL and BS by default) on
the alignment and tree and writes the log-likelihoods as a CSV that "selscan lrt"
reads. Models that fail are reported and left out of the table.`,
	Args: cobra.ExactArgs(2),
	RunE: runFit,
}

func fitModels() ([]codeml.ModelSpec, error) {
	if len(cfg.Codeml.Models) == 0 {
		return codeml.DefaultFitModels(), nil
	}
	return codeml.ParseModels(cfg.Codeml.Models)
}

func runFit(cmd *cobra.Command, args []string) error {
	alignment, tree := args[0], args[1]
	gene, _ := cmd.Flags().GetString("gene")
	if gene == "" {
		gene = util.BaseName(alignment)
	}
	out, _ := cmd.Flags().GetString("out")

	models, err := fitModels()
	if err != nil {
		return err
	}
	runner, err := codeml.NewRunner(cfg.Codeml.Binary)
	if err != nil {
		return err
	}

	runs, err := codeml.FitAll(cmd.Context(), runner, gene, alignment, tree, cfg.Codeml.WorkDir, models)
	if len(runs) == 0 {
		return fmt.Errorf("no model could be fitted for %s: %w", gene, err)
	}
	if err != nil {
		logger.Warn("Some models were not fitted",
			zap.String("gene", gene), zap.Int("fitted", len(runs)), zap.Int("requested", len(models)))
	}

	write := func(w io.Writer) error { return selection.WriteTable(w, runs) }
	if out == "" {
		return write(cmd.OutOrStdout())
	}
	if err := render.WriteFileAtomic(out, write); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.Info("Wrote likelihood table", zap.String("file", out), zap.Int("models", len(runs)))
	return nil
}

// set flags
func init() {
	fitCmd.Flags().StringP("gene", "g", "", "gene name for the table (default alignment file name)")
	fitCmd.Flags().StringP("out", "o", "", "CSV output path (default stdout)")
	fitCmd.Flags().StringSliceP("models", "m", nil, "codeml models to fit, e.g. M0,B,BS_NULL,BS")
	fitCmd.Flags().String("work-dir", "", "keep codeml files here instead of a temporary directory")
	fitCmd.Flags().String("codeml", codeml.DefaultBinary, "codeml executable")

	viper.BindPFlag("codeml.models", fitCmd.Flags().Lookup("models"))
	viper.BindPFlag("codeml.work-dir", fitCmd.Flags().Lookup("work-dir"))
	viper.BindPFlag("codeml.binary", fitCmd.Flags().Lookup("codeml"))

	rootCmd.AddCommand(fitCmd)
}
