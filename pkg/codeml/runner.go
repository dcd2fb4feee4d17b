package codeml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/selection"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "codeml"

// FitRequest is one model fit for one alignment and tree.
type FitRequest struct {
	Alignment string    `json:"alignment"`
	Tree      string    `json:"tree"`
	Model     ModelSpec `json:"model"`
	// WorkDir receives the control and report files. Empty means a temporary
	// directory removed after the fit.
	WorkDir string `json:"work_dir,omitempty"`
}

// Fit is the outcome of a successful fit.
type Fit struct {
	Model string  `json:"model"`
	LnL   float64 `json:"lnL"`
	NP    int     `json:"np"`
}

// Fitter fits a codon model and reports its log-likelihood.
type Fitter interface {
	Fit(ctx context.Context, req FitRequest) (Fit, error)
}

// RunError is a codeml process that exited unsuccessfully.
type RunError struct {
	Model  string
	Err    error
	Output []byte
}

func (e *RunError) Error() string {
	return fmt.Sprintf("codeml %s: %v - %s", e.Model, e.Err, e.Output)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Runner executes the codeml binary.
type Runner struct {
	Binary string
}

// NewRunner resolves binary (DefaultBinary when empty) on PATH.
func NewRunner(binary string) (*Runner, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("codeml binary %q: %w", binary, err)
	}
	return &Runner{Binary: path}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func (r *Runner) Fit(ctx context.Context, req FitRequest) (Fit, error) {
	alignment, err := existingFile(req.Alignment)
	if err != nil {
		return Fit{}, err
	}
	tree, err := existingFile(req.Tree)
	if err != nil {
		return Fit{}, err
	}

	workDir := req.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "codeml-*")
		if err != nil {
			return Fit{}, err
		}
		defer os.RemoveAll(workDir)
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return Fit{}, err
	}

	base := unsafeName.ReplaceAllString(req.Model.Name, "_")
	ctlName := base + ".ctl"
	outName := base + ".out"
	ctl := ControlFile(alignment, tree, outName, req.Model)
	if err := os.WriteFile(filepath.Join(workDir, ctlName), []byte(ctl), 0o644); err != nil {
		return Fit{}, err
	}

	// codeml ctlfile, run inside workDir so its scratch files land there
	cmd := exec.CommandContext(ctx, r.Binary, ctlName)
	cmd.Dir = workDir
	logger.Debug("Running codeml", zap.String("model", req.Model.Name), zap.String("dir", workDir))
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Fit{}, &RunError{Model: req.Model.Name, Err: err, Output: output}
	}

	f, err := os.Open(filepath.Join(workDir, outName))
	if err != nil {
		return Fit{}, fmt.Errorf("codeml %s: %w", req.Model.Name, err)
	}
	defer f.Close()

	lnl, np, err := ParseLnL(f)
	if err != nil {
		return Fit{}, fmt.Errorf("codeml %s: %w", req.Model.Name, err)
	}
	return Fit{Model: req.Model.Name, LnL: lnl, NP: np}, nil
}

func existingFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// FitAll fits each model in turn for gene. Models that fail are logged and left
// out of the result; the returned error joins every failure.
func FitAll(ctx context.Context, f Fitter, gene, alignment, tree, workDir string, models []ModelSpec) ([]selection.ModelRun, error) {
	var (
		runs []selection.ModelRun
		errs []error
	)
	for _, m := range models {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		dir := workDir
		if dir != "" {
			dir = filepath.Join(workDir, unsafeName.ReplaceAllString(m.Name, "_"))
		}
		fit, err := f.Fit(ctx, FitRequest{Alignment: alignment, Tree: tree, Model: m, WorkDir: dir})
		if err != nil {
			logger.Warn("Model fit failed", zap.String("gene", gene), zap.String("model", m.Name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		logger.Info("Model fitted",
			zap.String("gene", gene),
			zap.String("model", fit.Model),
			zap.Float64("lnL", fit.LnL),
			zap.Int("np", fit.NP),
		)
		runs = append(runs, selection.ModelRun{Gene: gene, Model: fit.Model, LnL: fit.LnL})
	}
	return runs, errors.Join(errs...)
}
