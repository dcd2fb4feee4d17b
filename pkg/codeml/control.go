package codeml

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoLikelihood means a codeml report had no lnL line.
var ErrNoLikelihood = errors.New("codeml output has no lnL line")

// ControlFile renders a codeml control file for one fit. Paths are written as given.
func ControlFile(alignment, tree, outFile string, m ModelSpec) string {
	var b strings.Builder
	line := func(key string, value any) {
		fmt.Fprintf(&b, "%s = %v\n", key, value)
	}

	line("seqfile", alignment)
	line("treefile", tree)
	line("outfile", outFile)
	line("noisy", 2)
	line("verbose", 1)
	line("seqtype", 1)
	line("ndata", 1)
	line("icode", 0)
	line("cleandata", 0)
	line("CodonFreq", 7)
	for _, l := range strings.Split(strings.TrimSpace(m.Body), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	fix := 0
	if m.FixOmega {
		fix = 1
	}
	line("fix_omega", fix)
	line("omega", strconv.FormatFloat(m.omega(), 'f', -1, 64))
	line("RateAncestor", 2)
	return b.String()
}

// ParseLnL reads the first line of the form
//
//	lnL(ntime: 13  np: 15):  -2345.678901      +0.000000
//
// and returns the log-likelihood and parameter count.
func ParseLnL(r io.Reader) (lnl float64, np int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "lnL") || !strings.Contains(line, "np:") {
			continue
		}
		head, tail, ok := strings.Cut(line, "):")
		if !ok {
			return 0, 0, fmt.Errorf("malformed lnL line %q", line)
		}
		fields := strings.Fields(tail)
		if len(fields) == 0 {
			return 0, 0, fmt.Errorf("malformed lnL line %q", line)
		}
		lnl, err = strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("parse lnL %q: %w", fields[0], err)
		}
		_, npText, _ := strings.Cut(head, "np:")
		np, err = strconv.Atoi(strings.TrimSpace(npText))
		if err != nil {
			return 0, 0, fmt.Errorf("parse np %q: %w", npText, err)
		}
		return lnl, np, nil
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}
	return 0, 0, ErrNoLikelihood
}
