package dataset

import (
	"fmt"
	"sort"
)

// CodeBook records the integer code assigned to each label of one column.
type CodeBook struct {
	Column string
	Labels []string // Labels[code] is the label for code
}

// Code returns the code for label, or -1 when the label was never seen.
func (cb *CodeBook) Code(label string) int {
	for i, l := range cb.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Encode replaces every non-numeric column with dense integer codes assigned by
// first appearance, column by column. Missing cells get -1. The target column is
// coded in lexical label order so "No" < "Yes" maps to 0/1, and must end up binary.
// After Encode every column is Numeric.
func (d *Dataset) Encode(target string) (map[string]*CodeBook, error) {
	books := map[string]*CodeBook{}
	for j := range d.schema.cols {
		col := &d.schema.cols[j]
		if col.Kind == Numeric {
			continue
		}
		cb := &CodeBook{Column: col.Name}
		codes := map[string]int{}
		if col.Name == target {
			for _, v := range d.cols[j] {
				if !v.Missing {
					codes[v.Text] = 0
				}
			}
			for l := range codes {
				cb.Labels = append(cb.Labels, l)
			}
			sort.Strings(cb.Labels)
			for i, l := range cb.Labels {
				codes[l] = i
			}
		}
		for i := range d.cols[j] {
			v := &d.cols[j][i]
			if v.Missing {
				v.Num = -1
				continue
			}
			c, ok := codes[v.Text]
			if !ok {
				c = len(cb.Labels)
				codes[v.Text] = c
				cb.Labels = append(cb.Labels, v.Text)
			}
			v.Num = float64(c)
		}
		col.Kind = Numeric
		col.Encoded = true
		books[col.Name] = cb
	}
	if j, ok := d.schema.index[target]; ok {
		for i, v := range d.cols[j] {
			if v.Num != 0 && v.Num != 1 {
				return books, fmt.Errorf("%w: %q row %d has %q", ErrTargetNotBinary, target, i+1, v.Text)
			}
		}
	}
	return books, nil
}
