// Package fasta reads and writes CDS records as FASTA using biogo.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/yumyai/selscan/pkg/seqqc"
)

// DefaultWidth is the sequence line width used for output.
const DefaultWidth = 60

var gzipMagic = []byte{0x1f, 0x8b}

// Read parses every record in r, in file order. The record ID is the first
// word of the header line. source names the input in errors.
func Read(r io.Reader, source string) ([]seqqc.Record, error) {
	br := bufio.NewReader(r)
	if err := checkHeader(br); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &seqqc.InputFormatError{Source: source, Err: err}
	}

	var out []seqqc.Record
	sc := seqio.NewScanner(fasta.NewReader(br, linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return nil, &seqqc.InputFormatError{Source: source, Err: fmt.Errorf("unexpected sequence type %T", sc.Seq())}
		}
		id := s.Name()
		if id == "" {
			return nil, &seqqc.InputFormatError{Source: source, Err: fmt.Errorf("record %d has an empty identifier", len(out)+1)}
		}
		out = append(out, seqqc.Record{
			ID:  id,
			Seq: string(alphabet.LettersToBytes(s.Seq)),
		})
	}
	if err := sc.Error(); err != nil {
		return nil, &seqqc.InputFormatError{Source: source, Err: err}
	}
	return out, nil
}

// checkHeader skips leading blank lines and requires the first record to start with '>'.
func checkHeader(br *bufio.Reader) error {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return err
		}
		switch b[0] {
		case '\n', '\r', ' ', '\t':
			if _, err := br.ReadByte(); err != nil {
				return err
			}
		case '>':
			return nil
		default:
			line, _ := br.Peek(min(br.Buffered(), 20))
			return fmt.Errorf("expected '>' at start of input, found %q", strings.TrimSpace(string(line)))
		}
	}
}

// ReadFile reads a FASTA file, transparently decompressing gzip input.
func ReadFile(path string) ([]seqqc.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, _ := br.Peek(2)
	if bytes.Equal(magic, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, &seqqc.InputFormatError{Source: path, Err: err}
		}
		defer gz.Close()
		return Read(gz, path)
	}
	return Read(br, path)
}

// Write writes records in order, wrapping sequence lines at width.
// A non-positive width uses DefaultWidth.
func Write(w io.Writer, records []seqqc.Record, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	fw := fasta.NewWriter(w, width)
	for _, rec := range records {
		s := linear.NewSeq(rec.ID, alphabet.BytesToLetters([]byte(rec.Seq)), alphabet.DNA)
		if _, err := fw.Write(s); err != nil {
			return fmt.Errorf("write record %s: %w", rec.ID, err)
		}
	}
	return nil
}

// WriteDataset writes d in insertion order.
func WriteDataset(w io.Writer, d *seqqc.Dataset, width int) error {
	if d == nil {
		return nil
	}
	return Write(w, d.Records(), width)
}
