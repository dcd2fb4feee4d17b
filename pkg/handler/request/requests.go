package request

import (
	"github.com/yumyai/selscan/pkg/db"
	"github.com/yumyai/selscan/pkg/selection"
	"github.com/yumyai/selscan/pkg/seqqc"
)

// FitRequest carries alignment and tree contents, not paths.
type FitRequest struct {
	Gene      string   `json:"gene"`
	Alignment string   `json:"alignment"`
	Tree      string   `json:"tree"`
	Models    []string `json:"models"`
}

type FitAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type QCResponse struct {
	RunID        string         `json:"run_id,omitempty"`
	Source       string         `json:"source"`
	Options      seqqc.Options  `json:"options"`
	Raw          int            `json:"raw"`
	Passed       int            `json:"passed"`
	Ledger       map[string]int `json:"ledger"`
	Bounds       *seqqc.Bounds  `json:"bounds,omitempty"`
	PassedFasta  string         `json:"passed_fasta"`
	TrimmedFasta string         `json:"trimmed_fasta"`
}

type LRTResponse struct {
	RunID       string                    `json:"run_id,omitempty"`
	Source      string                    `json:"source"`
	Genes       int                       `json:"genes"`
	Comparisons []selection.ComparisonSet `json:"comparisons"`
}

type RunsResponse struct {
	Runs []db.Run `json:"runs"`
}

// RunResponse carries the ledger for QC runs and the comparisons for LRT runs.
type RunResponse struct {
	Run         db.Run                    `json:"run"`
	Ledger      map[string]int            `json:"ledger,omitempty"`
	Comparisons []selection.ComparisonSet `json:"comparisons,omitempty"`
}
