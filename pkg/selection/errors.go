package selection

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInsufficientData = errors.New("insufficient data: no p-values to adjust")

// MissingDataError means one side of a model pair has no likelihood for a gene.
// Compare handles it by leaving the gene out.
type MissingDataError struct {
	Gene  string
	Model string
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("no log-likelihood for gene %s model %s", e.Gene, e.Model)
}

// TableError is a structural problem with a likelihood table, such as missing columns.
type TableError struct {
	Source  string
	Missing []string
	Err     error
}

func (e *TableError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s: missing required columns %s", e.Source, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *TableError) Unwrap() error {
	return e.Err
}
