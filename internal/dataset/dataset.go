package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Value is one cell. Text always holds the raw (trimmed) string; Num holds the
// parsed number for numeric or encoded columns.
type Value struct {
	Text    string
	Num     float64
	Missing bool
}

// Dataset is a column-major table sharing one schema.
type Dataset struct {
	Name   string
	schema *Schema
	cols   [][]Value // cols[j][i] is row i of column j
	rows   int
}

// LoadOptions controls CSV ingestion.
type LoadOptions struct {
	// Delimiter for CSV. If 0, auto-detects among ',', ';', '\t' from the header line.
	Delimiter rune
	// TextColumns are declared free text regardless of their content.
	TextColumns []string
}

// Load reads a delimited file into a Dataset and establishes its schema.
// A path that does not resolve yields ErrMissingInputFile.
func Load(path string, opt LoadOptions) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInputFile, path)
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path, b)
	}
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: %s is empty", filepath.Base(path))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	ds := &Dataset{
		Name:   filepath.Base(path),
		schema: newSchema(names),
		cols:   make([][]Value, len(names)),
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", ds.rows+1, err)
		}
		for j := range names {
			raw := ""
			if j < len(rec) {
				raw = strings.TrimSpace(rec[j])
			}
			ds.cols[j] = append(ds.cols[j], Value{Text: raw, Num: math.NaN(), Missing: isMissing(raw)})
		}
		ds.rows++
	}
	ds.inferKinds(opt.TextColumns)
	return ds, nil
}

// FromRecords builds a Dataset from an in-memory header and rows, with the same
// schema inference as Load.
func FromRecords(name string, header []string, records [][]string, textColumns ...string) *Dataset {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	ds := &Dataset{Name: name, schema: newSchema(names), cols: make([][]Value, len(names))}
	for _, rec := range records {
		for j := range names {
			raw := ""
			if j < len(rec) {
				raw = strings.TrimSpace(rec[j])
			}
			ds.cols[j] = append(ds.cols[j], Value{Text: raw, Num: math.NaN(), Missing: isMissing(raw)})
		}
		ds.rows++
	}
	ds.inferKinds(textColumns)
	return ds
}

// inferKinds declares a column numeric when every non-missing cell parses as a number.
func (d *Dataset) inferKinds(textColumns []string) {
	text := make(map[string]bool, len(textColumns))
	for _, c := range textColumns {
		text[c] = true
	}
	for j := range d.schema.cols {
		col := &d.schema.cols[j]
		if text[col.Name] {
			col.Kind = Text
			continue
		}
		seen := 0
		numeric := true
		for _, v := range d.cols[j] {
			if v.Missing {
				continue
			}
			seen++
			if _, err := strconv.ParseFloat(v.Text, 64); err != nil {
				numeric = false
				break
			}
		}
		if !numeric || seen == 0 {
			col.Kind = Categorical
			continue
		}
		col.Kind = Numeric
		for i := range d.cols[j] {
			if v := &d.cols[j][i]; !v.Missing {
				v.Num, _ = strconv.ParseFloat(v.Text, 64)
			}
		}
	}
}

// Schema returns the dataset schema.
func (d *Dataset) Schema() *Schema { return d.schema }

// Rows returns the number of records.
func (d *Dataset) Rows() int { return d.rows }

// NumColumns returns the number of declared columns.
func (d *Dataset) NumColumns() int { return len(d.schema.cols) }

// Has reports whether the column is present.
func (d *Dataset) Has(name string) bool { return d.schema.Has(name) }

// Column returns the cells of name.
func (d *Dataset) Column(name string) ([]Value, error) {
	j, err := d.schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	return d.cols[j], nil
}

// Floats returns a numeric column as float64 values (NaN for missing).
func (d *Dataset) Floats(name string) ([]float64, error) {
	j, err := d.schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	if d.schema.cols[j].Kind != Numeric {
		return nil, fmt.Errorf("%w: %q is %s, want numeric", ErrColumnType, name, d.schema.cols[j].Kind)
	}
	out := make([]float64, d.rows)
	for i, v := range d.cols[j] {
		out[i] = v.Num
	}
	return out, nil
}

// Record returns row i as a name→value mapping.
func (d *Dataset) Record(i int) map[string]Value {
	out := make(map[string]Value, len(d.schema.cols))
	for j, c := range d.schema.cols {
		out[c.Name] = d.cols[j][i]
	}
	return out
}

// DropColumns removes the named columns; names that are absent are ignored.
// It returns the names actually removed.
func (d *Dataset) DropColumns(names ...string) []string {
	var dropped []string
	for _, n := range names {
		j, ok := d.schema.index[n]
		if !ok {
			continue
		}
		d.cols = append(d.cols[:j], d.cols[j+1:]...)
		d.schema.remove(n)
		dropped = append(dropped, n)
	}
	return dropped
}

// LabelCount is one entry of a value histogram.
type LabelCount struct {
	Label string
	Count int
}

// ValueCounts counts raw labels of a column, skipping missing cells, sorted by label.
func (d *Dataset) ValueCounts(name string) ([]LabelCount, error) {
	cells, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, v := range cells {
		if v.Missing {
			continue
		}
		counts[v.Text]++
	}
	out := make([]LabelCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, LabelCount{Label: k, Count: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Label < out[b].Label })
	return out, nil
}

// Matrix returns the feature matrix, binary labels and feature names for target.
// Every feature column must already be numeric (see Encode).
func (d *Dataset) Matrix(target string) ([][]float64, []int, []string, error) {
	tj, ok := d.schema.index[target]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %q", ErrMissingTargetColumn, target)
	}
	if d.schema.cols[tj].Kind != Numeric {
		return nil, nil, nil, fmt.Errorf("%w: target %q is %s; encode first", ErrColumnType, target, d.schema.cols[tj].Kind)
	}
	var features []string
	var idx []int
	for j, c := range d.schema.cols {
		if j == tj {
			continue
		}
		if c.Kind != Numeric {
			return nil, nil, nil, fmt.Errorf("%w: feature %q is %s; encode first", ErrColumnType, c.Name, c.Kind)
		}
		features = append(features, c.Name)
		idx = append(idx, j)
	}
	X := make([][]float64, d.rows)
	y := make([]int, d.rows)
	for i := 0; i < d.rows; i++ {
		row := make([]float64, len(idx))
		for k, j := range idx {
			row[k] = d.cols[j][i].Num
		}
		X[i] = row
		lab := d.cols[tj][i].Num
		if lab != 0 && lab != 1 {
			return nil, nil, nil, fmt.Errorf("%w: row %d has %v", ErrTargetNotBinary, i+1, lab)
		}
		y[i] = int(lab)
	}
	return X, y, features, nil
}

// sniffDelimiter picks the most frequent of ',', ';', '\t' on the header line.
func sniffDelimiter(path string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if !sc.Scan() {
		return ','
	}
	line := sc.Text()
	best, bestN := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
