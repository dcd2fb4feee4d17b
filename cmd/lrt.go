package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yumyai/selscan/config"
	"github.com/yumyai/selscan/internal/util"
	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/db"
	"github.com/yumyai/selscan/pkg/render"
	"github.com/yumyai/selscan/pkg/selection"
)

// lrtCmd turns likelihood tables into corrected LRT results.
var lrtCmd = &cobra.Command{
	Use:   "lrt [csv or dir...]",
	Short: "Likelihood ratio tests with Benjamini-Hochberg correction",
	Long: `Reads Gene,Model,lnL (or Folder,lnL) tables and writes LRT_results_<name>.xlsx
with one sheet per comparison, plus a TSV per comparison. Without arguments every
*.csv in the working directory is processed. Tables without the needed columns
are skipped with a warning.`,
	RunE: runLRT,
}

// loadComparisons builds the comparison list from settings: the yaml file when
// given (else the branch-site and branch pairs), followed by any sequence pairs.
func loadComparisons(c config.LRTConfig) ([]selection.Comparison, error) {
	cmps := selection.DefaultComparisons()
	if c.Comparisons != "" {
		f, err := os.Open(c.Comparisons)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if cmps, err = selection.LoadComparisons(f); err != nil {
			return nil, fmt.Errorf("%s: %w", c.Comparisons, err)
		}
	}
	if len(c.Sequence) > 0 {
		pairs, err := selection.SequencePairs(c.Sequence, c.DF)
		if err != nil {
			return nil, err
		}
		cmps = append(cmps, pairs...)
	}
	return cmps, nil
}

// tableLabels is every label a Folder column may end with.
func tableLabels(c config.LRTConfig, cmps []selection.Comparison) []string {
	labels := append([]string{}, selection.DefaultLabels...)
	labels = append(labels, c.Labels...)
	return append(labels, selection.Labels(cmps)...)
}

// lrtInputs expands directories to the *.csv files they hold.
func lrtInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var files []string
	for _, arg := range args {
		if !util.DirExists(arg) {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.csv"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, errors.New("no csv files found")
	}
	return files, nil
}

func runLRT(cmd *cobra.Command, args []string) error {
	cmps, err := loadComparisons(cfg.LRT)
	if err != nil {
		return err
	}
	labels := tableLabels(cfg.LRT, cmps)

	inputs, err := lrtInputs(args)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.LRT.OutDir, 0o755); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	var failed []error
	for _, input := range inputs {
		err := lrtFile(cmd.Context(), store, input, cmps, labels)
		var tableErr *selection.TableError
		switch {
		case err == nil:
		case errors.As(err, &tableErr) && len(tableErr.Missing) > 0:
			logger.Warn("Skipping table", zap.String("file", input), zap.Strings("missing", tableErr.Missing))
		default:
			logger.Error("LRT failed", zap.String("file", input), zap.Error(err))
			failed = append(failed, fmt.Errorf("%s: %w", input, err))
		}
	}
	return errors.Join(failed...)
}

func lrtFile(ctx context.Context, store *db.Store, input string, cmps []selection.Comparison, labels []string) error {
	table, err := selection.ReadTableFile(input, labels)
	if err != nil {
		return err
	}
	sets, err := selection.CompareAll(table, cmps)
	if err != nil {
		return err
	}

	base := util.BaseName(input)
	xlsx := filepath.Join(cfg.LRT.OutDir, "LRT_results_"+base+".xlsx")
	switch err := render.WriteResultsXLSX(xlsx, sets); {
	case errors.Is(err, render.ErrNoResults):
		logger.Warn("No gene had both models of any comparison", zap.String("file", input))
	case err != nil:
		return err
	default:
		logger.Info("Wrote LRT results", zap.String("file", xlsx))
	}

	for _, set := range sets {
		if len(set.Results) == 0 {
			continue
		}
		name := strings.NewReplacer("/", "_", " ", "_").Replace(set.Comparison.SheetName())
		tsv := filepath.Join(cfg.LRT.OutDir, "LRT_results_"+base+"_"+name+".tsv")
		if err := render.WriteFileAtomic(tsv, func(w io.Writer) error {
			return render.WriteResultsTSV(w, set.Comparison, set.Results)
		}); err != nil {
			return err
		}
		logger.Debug("Wrote comparison table", zap.String("file", tsv), zap.Int("genes", len(set.Results)))
	}

	if store != nil {
		run := db.NewRun(db.KindLRT, input)
		if err := store.SaveLRT(ctx, run, sets); err != nil {
			return err
		}
		logger.Info("Recorded LRT run", zap.String("run_id", run.ID))
	}
	return nil
}

// set flags
func init() {
	lrtCmd.Flags().StringP("comparisons", "c", "", "yaml file of comparisons replacing the branch-site and branch pairs")
	lrtCmd.Flags().StringSlice("sequence", nil, "ordered models tested as consecutive (null, alt) pairs, e.g. M1a,M2a,M7,M8")
	lrtCmd.Flags().Float64("df", 1, "degrees of freedom for --sequence pairs")
	lrtCmd.Flags().StringP("out-dir", "o", ".", "directory for result workbooks")

	viper.BindPFlag("lrt.comparisons", lrtCmd.Flags().Lookup("comparisons"))
	viper.BindPFlag("lrt.sequence", lrtCmd.Flags().Lookup("sequence"))
	viper.BindPFlag("lrt.df", lrtCmd.Flags().Lookup("df"))
	viper.BindPFlag("lrt.out-dir", lrtCmd.Flags().Lookup("out-dir"))

	rootCmd.AddCommand(lrtCmd)
}
