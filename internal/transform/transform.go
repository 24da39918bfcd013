// Package transform normalizes raw report files into validated tabular
// output.
//
// The input is a plain-text report: a fixed number of free-form metadata
// lines, then a header row, then tab-separated data rows. Normalization
// validates the header against the configured token set, optionally trims
// and deduplicates rows, and re-serializes as TSV or minimally-quoted CSV.
// Header mismatch and ragged rows are validation errors, never silently
// repaired.
package transform

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"fileferry/internal/config"
	"fileferry/internal/errors"
)

// Table is a normalized table: validated header plus fixed-width data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Engine applies the configured normalization.
type Engine struct {
	cfg config.TransformConfig
}

// New creates an Engine.
func New(cfg config.TransformConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Apply normalizes raw and returns the re-serialized bytes.
func (e *Engine) Apply(raw []byte) ([]byte, error) {
	table, err := e.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return e.Serialize(table), nil
}

// Normalize parses and validates raw into a Table.
func (e *Engine) Normalize(raw []byte) (*Table, error) {
	text, err := decode(raw)
	if err != nil {
		return nil, err
	}

	lines := splitLines(text)
	if len(lines) <= e.cfg.SkipRows {
		return nil, errors.Newf(errors.EEmptyFile,
			"file has %d lines, cannot skip %d leading rows", len(lines), e.cfg.SkipRows)
	}
	lines = lines[e.cfg.SkipRows:]

	// The next non-blank line is the header.
	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, errors.New(errors.EEmptyFile, "no header row found after skipped rows")
	}

	header := splitCells(lines[headerIdx])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := e.validateHeader(header); err != nil {
		return nil, err
	}

	var rows [][]string
	seen := make(map[string]struct{})
	for i, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := splitCells(line)
		if e.cfg.Trim {
			for j := range cells {
				cells[j] = strings.TrimSpace(cells[j])
			}
		}
		if len(cells) != len(header) {
			return nil, errors.NewWithDetails(errors.ERaggedRow, "row width does not match header",
				map[string]string{
					"row":      strconv.Itoa(headerIdx + 2 + i + e.cfg.SkipRows),
					"expected": strconv.Itoa(len(header)),
					"actual":   strconv.Itoa(len(cells)),
				})
		}
		if e.cfg.Dedupe {
			// Trim has already run, so whitespace-only variants collapse.
			key := strings.Join(cells, "\x00")
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		rows = append(rows, cells)
	}

	return &Table{Header: header, Rows: rows}, nil
}

// Serialize writes the table in the configured format and line ending.
func (e *Engine) Serialize(t *Table) []byte {
	var buf bytes.Buffer
	if e.cfg.Format == "csv" {
		w := csv.NewWriter(&buf)
		w.UseCRLF = e.cfg.LineEnding == "crlf"
		_ = w.Write(t.Header)
		for _, row := range t.Rows {
			_ = w.Write(row)
		}
		w.Flush()
		return buf.Bytes()
	}

	ending := "\n"
	if e.cfg.LineEnding == "crlf" {
		ending = "\r\n"
	}
	buf.WriteString(strings.Join(t.Header, "\t"))
	buf.WriteString(ending)
	for _, row := range t.Rows {
		buf.WriteString(strings.Join(row, "\t"))
		buf.WriteString(ending)
	}
	return buf.Bytes()
}

func (e *Engine) validateHeader(actual []string) error {
	expected := e.cfg.Header
	mismatch := func() error {
		return errors.NewWithDetails(errors.EHeaderMismatch, "header row does not match expected tokens",
			map[string]string{
				"expected": strings.Join(expected, ", "),
				"actual":   strings.Join(actual, ", "),
			})
	}
	if len(actual) != len(expected) {
		return mismatch()
	}
	if e.cfg.HeaderOrdered {
		for i := range expected {
			if actual[i] != expected[i] {
				return mismatch()
			}
		}
		return nil
	}
	want := make(map[string]int, len(expected))
	for _, tok := range expected {
		want[tok]++
	}
	for _, tok := range actual {
		if want[tok] == 0 {
			return mismatch()
		}
		want[tok]--
	}
	return nil
}

// decode interprets raw as UTF-8, falling back to Windows-1252 for legacy
// report exports.
func decode(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", errors.Wrap(errors.EEmptyFile, "file is neither UTF-8 nor Windows-1252", err)
	}
	return string(out), nil
}

// splitLines splits on \n and strips trailing \r so CRLF input parses the
// same as LF.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	// A trailing newline produces one empty tail element; drop it.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func splitCells(line string) []string {
	return strings.Split(line, "\t")
}

