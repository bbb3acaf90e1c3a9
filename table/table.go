// Package table reads and writes the persisted rate tables: plain tabular
// text with #-prefixed headers, one rate file and one cumulative file per
// (process, field) pair. The layouts are fixed: consumers index these files
// by position, so column formats must not change.
package table

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Header carries the descriptive lines written above a table. An empty
// Revision degrades to a header without provenance.
type Header struct {
	Title     string
	FieldInfo string
	Revision  string
	Columns   string
}

func (h Header) write(w *bufio.Writer) {
	if h.Title != "" {
		fmt.Fprintf(w, "# %s\n", h.Title)
	}
	if h.FieldInfo != "" {
		fmt.Fprintf(w, "# photon field: %s\n", h.FieldInfo)
	}
	if h.Revision != "" {
		fmt.Fprintf(w, "# produced with emrates version: %s\n", h.Revision)
	}
	if h.Columns != "" {
		fmt.Fprintf(w, "# %s\n", h.Columns)
	}
}

// WriteRate writes a scalar rate table: per row, log10(E/eV) and the rate
// [1/Mpc]. The file is written atomically.
func WriteRate(path string, hdr Header, lgE, rates []float64) error {
	if len(lgE) != len(rates) {
		return fmt.Errorf("table: %d energies but %d rates", len(lgE), len(rates))
	}
	return writeAtomic(path, func(w *bufio.Writer) error {
		hdr.write(w)
		for i := range lgE {
			fmt.Fprintf(w, "%.2f\t%8.7e\n", lgE[i], rates[i])
		}
		return nil
	})
}

// WriteCDF writes a cumulative rate table. The first data row carries a
// leading sentinel column (0) followed by the coarse log10(s_kin/eV^2)
// grid; each following row is log10(E/eV) followed by the cumulative rate
// at every s_kin column.
func WriteCDF(path string, hdr Header, lgSKin, lgE []float64, rows [][]float64) error {
	if len(lgE) != len(rows) {
		return fmt.Errorf("table: %d energies but %d rows", len(lgE), len(rows))
	}
	return writeAtomic(path, func(w *bufio.Writer) error {
		hdr.write(w)
		fmt.Fprintf(w, "%.2f", 0.0)
		for _, s := range lgSKin {
			fmt.Fprintf(w, "\t%6.5e", s)
		}
		fmt.Fprintln(w)
		for i, row := range rows {
			if len(row) != len(lgSKin) {
				return fmt.Errorf("table: row %d has %d columns, grid has %d", i, len(row), len(lgSKin))
			}
			fmt.Fprintf(w, "%.2f", lgE[i])
			for _, v := range row {
				fmt.Fprintf(w, "\t%6.5e", v)
			}
			fmt.Fprintln(w)
		}
		return nil
	})
}

func writeAtomic(path string, fill func(*bufio.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("table: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := fill(w); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	return nil
}

func readRows(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		for i, fv := range fields {
			v, err := strconv.ParseFloat(fv, 64)
			if err != nil {
				return nil, fmt.Errorf("table: parse %s: %w", path, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("table: read %s: %w", path, err)
	}
	return rows, nil
}

// ReadRate reads a scalar rate table back.
func ReadRate(path string) (lgE, rates []float64, err error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, nil, err
	}
	for i, row := range rows {
		if len(row) != 2 {
			return nil, nil, fmt.Errorf("table: %s row %d has %d columns, want 2", path, i, len(row))
		}
		lgE = append(lgE, row[0])
		rates = append(rates, row[1])
	}
	return lgE, rates, nil
}

// ReadCDF reads a cumulative rate table back, splitting off the s_kin grid
// row and the leading log10(E/eV) column.
func ReadCDF(path string) (lgSKin, lgE []float64, rows [][]float64, err error) {
	raw, err := readRows(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(raw) < 2 {
		return nil, nil, nil, fmt.Errorf("table: %s has %d data rows, want >= 2", path, len(raw))
	}
	lgSKin = raw[0][1:]
	for i, row := range raw[1:] {
		if len(row) != len(lgSKin)+1 {
			return nil, nil, nil, fmt.Errorf("table: %s row %d has %d columns, want %d", path, i+1, len(row), len(lgSKin)+1)
		}
		lgE = append(lgE, row[0])
		rows = append(rows, row[1:])
	}
	return lgSKin, lgE, rows, nil
}
