package dataset

import (
	"math"
	"strings"
)

// Normalized gender labels.
const (
	GenderFemale = "female"
	GenderMale   = "male"
	GenderOther  = "other"
)

// CleanOptions names the columns touched by Clean.
type CleanOptions struct {
	GenderColumn string
	FillColumns  []string
	FillValue    string
}

// DefaultCleanOptions matches the OSMI survey layout.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		GenderColumn: "Gender",
		FillColumns:  []string{"work_interfere", "self_employed"},
		FillValue:    "Don't know",
	}
}

// CleanStats reports what Clean changed.
type CleanStats struct {
	GenderCounts map[string]int
	Filled       map[string]int
}

// NormalizeGender folds free-text gender to female, male or other.
// "female" contains "male", so it must be tested first.
func NormalizeGender(s string) string {
	g := strings.ToLower(s)
	switch {
	case strings.Contains(g, "female"):
		return GenderFemale
	case strings.Contains(g, "male"):
		return GenderMale
	default:
		return GenderOther
	}
}

// Clean normalizes gender and fills missing cells of the fill columns in place.
// Columns that are absent are skipped.
func (d *Dataset) Clean(opt CleanOptions) CleanStats {
	st := CleanStats{GenderCounts: map[string]int{}, Filled: map[string]int{}}
	if j, ok := d.schema.index[opt.GenderColumn]; ok && opt.GenderColumn != "" {
		for i := range d.cols[j] {
			v := &d.cols[j][i]
			raw := v.Text
			if v.Missing {
				raw = "nan"
			}
			g := NormalizeGender(raw)
			*v = Value{Text: g, Num: math.NaN()}
			st.GenderCounts[g]++
		}
		d.schema.cols[j].Kind = Categorical
	}
	for _, name := range opt.FillColumns {
		j, ok := d.schema.index[name]
		if !ok {
			continue
		}
		n := 0
		for i := range d.cols[j] {
			v := &d.cols[j][i]
			if v.Missing {
				*v = Value{Text: opt.FillValue, Num: math.NaN()}
				n++
			}
		}
		// a sentinel string turns a numeric column categorical
		if n > 0 && d.schema.cols[j].Kind == Numeric {
			d.schema.cols[j].Kind = Categorical
		}
		st.Filled[name] = n
	}
	return st
}
