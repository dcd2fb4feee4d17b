package render

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
	"github.com/yumyai/selscan/pkg/selection"
)

// ErrNoResults means every comparison set was empty, so there is nothing to write.
var ErrNoResults = errors.New("no comparison produced results")

// ResultHeader is the column header for one comparison.
func ResultHeader(c selection.Comparison) []string {
	return []string{"Gene", "lnL_" + c.Alt, "lnL_" + c.Null, "LRT", "p_value", "BH_FDR"}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteResultsTSV writes one comparison as tab separated text.
func WriteResultsTSV(w io.Writer, c selection.Comparison, results []selection.ComparisonResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(ResultHeader(c)); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Gene,
			formatFloat(r.LnLAlt),
			formatFloat(r.LnLNull),
			formatFloat(r.LRT),
			formatFloat(r.PValue),
			formatFloat(r.AdjustedP),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// excel forbids these in sheet names and caps them at 31 characters
var sheetNameReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

func sheetName(c selection.Comparison) string {
	name := sheetNameReplacer.Replace(c.SheetName())
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// WriteResultsXLSX writes one sheet per non-empty comparison set to path.
// The workbook is assembled in memory and the file is written once.
func WriteResultsXLSX(path string, sets []selection.ComparisonSet) error {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, set := range sets {
		if len(set.Results) == 0 {
			logger.Debug("Skipping empty comparison sheet", zap.String("comparison", set.Comparison.Name))
			continue
		}
		name := sheetName(set.Comparison)
		if first {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("sheet %s: %w", name, err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}

		header := ResultHeader(set.Comparison)
		row := make([]interface{}, len(header))
		for i, h := range header {
			row[i] = h
		}
		if err := f.SetSheetRow(name, "A1", &row); err != nil {
			return err
		}
		for i, r := range set.Results {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			values := []interface{}{r.Gene, r.LnLAlt, r.LnLNull, r.LRT, r.PValue, r.AdjustedP}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return err
			}
		}
	}
	if first {
		return ErrNoResults
	}
	f.SetActiveSheet(0)

	return WriteFileAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	})
}
