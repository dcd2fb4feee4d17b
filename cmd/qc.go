package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yumyai/selscan/internal/util"
	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/db"
	"github.com/yumyai/selscan/pkg/fasta"
	"github.com/yumyai/selscan/pkg/render"
	"github.com/yumyai/selscan/pkg/seqqc"
)

// qcCmd filters one or more CDS FASTA files.
var qcCmd = &cobra.Command{
	Use:   "qc [fasta...]",
	Short: "Remove duplicate, malformed and length-outlier coding sequences",
	Long: `Each input is deduplicated, validated and length filtered. Two FASTA files
are written per input: <name>_passed.fasta and <name>_trimmed.fasta, the latter
with the terminal stop codon removed. A discard summary is printed to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQC,
}

type qcOutputs struct {
	passed  string
	trimmed string
}

func qcPaths(cmd *cobra.Command, input string) qcOutputs {
	outDir, _ := cmd.Flags().GetString("out-dir")
	base := util.BaseName(input)
	out := qcOutputs{
		passed:  filepath.Join(outDir, base+"_passed.fasta"),
		trimmed: filepath.Join(outDir, base+"_trimmed.fasta"),
	}
	if p, _ := cmd.Flags().GetString("passed"); p != "" {
		out.passed = p
	}
	if p, _ := cmd.Flags().GetString("trimmed"); p != "" {
		out.trimmed = p
	}
	return out
}

func runQC(cmd *cobra.Command, args []string) error {
	passed, _ := cmd.Flags().GetString("passed")
	trimmed, _ := cmd.Flags().GetString("trimmed")
	if len(args) > 1 && (passed != "" || trimmed != "") {
		return errors.New("--passed and --trimmed need exactly one input")
	}

	filter, err := seqqc.NewFilter(cfg.QC)
	if err != nil {
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
	for _, input := range args {
		if err := qcFile(cmd.Context(), cmd.OutOrStdout(), filter, store, input, qcPaths(cmd, input)); err != nil {
			logger.Error("QC failed", zap.String("file", input), zap.Error(err))
			failed = append(failed, fmt.Errorf("%s: %w", input, err))
		}
	}
	return errors.Join(failed...)
}

func qcFile(ctx context.Context, stdout io.Writer, filter *seqqc.Filter, store *db.Store, input string, out qcOutputs) error {
	records, err := fasta.ReadFile(input)
	if err != nil {
		return err
	}
	res, err := filter.Run(records)
	if err != nil {
		return err
	}

	for _, dir := range []string{filepath.Dir(out.passed), filepath.Dir(out.trimmed)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := render.WriteFileAtomic(out.passed, func(w io.Writer) error {
		return fasta.WriteDataset(w, res.Passed, fasta.DefaultWidth)
	}); err != nil {
		return err
	}
	if err := render.WriteFileAtomic(out.trimmed, func(w io.Writer) error {
		return fasta.WriteDataset(w, res.Trimmed, fasta.DefaultWidth)
	}); err != nil {
		return err
	}
	logger.Info("Wrote filtered sequences",
		zap.String("passed", out.passed),
		zap.String("trimmed", out.trimmed),
		zap.Int("kept", res.Passed.Len()),
	)

	if err := render.QCSummary(stdout, input, res.Raw, res.Passed.Len(), res.Ledger); err != nil {
		return err
	}

	if store != nil {
		run := db.NewRun(db.KindQC, input)
		if err := store.SaveQC(ctx, run, res.Raw, res.Passed.Len(), res.Ledger); err != nil {
			return err
		}
		logger.Info("Recorded QC run", zap.String("run_id", run.ID))
	}
	return nil
}

// set flags
func init() {
	qcCmd.Flags().String("passed", "", "passed FASTA output path (single input only)")
	qcCmd.Flags().String("trimmed", "", "trimmed FASTA output path (single input only)")
	qcCmd.Flags().StringP("out-dir", "o", ".", "directory for <name>_passed/_trimmed.fasta")
	qcCmd.Flags().IntP("min-length", "l", seqqc.DefaultMinLength, "discard sequences shorter than this")
	qcCmd.Flags().String("outlier", string(seqqc.OutlierIQR), "length outlier strategy: iqr, zscore or none")
	qcCmd.Flags().String("stop-scan", string(seqqc.StopScanInner), "premature stop range: inner or all-but-last")
	qcCmd.Flags().Bool("require-frame", true, "discard sequences whose length is not a multiple of 3")

	viper.BindPFlag("qc.min-length", qcCmd.Flags().Lookup("min-length"))
	viper.BindPFlag("qc.outlier.strategy", qcCmd.Flags().Lookup("outlier"))
	viper.BindPFlag("qc.stop-scan", qcCmd.Flags().Lookup("stop-scan"))
	viper.BindPFlag("qc.require-frame", qcCmd.Flags().Lookup("require-frame"))

	rootCmd.AddCommand(qcCmd)
}
