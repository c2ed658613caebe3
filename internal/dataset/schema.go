package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInputFile is returned by Load when the CSV path does not resolve.
	ErrMissingInputFile = errors.New("input file not found")
	// ErrMissingTargetColumn is returned when the target column is absent.
	ErrMissingTargetColumn = errors.New("target column not found")
	// ErrUnknownColumn is returned on access to a column the schema does not declare.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrColumnType is returned when a column is accessed as a kind it does not have.
	ErrColumnType = errors.New("column type mismatch")
	// ErrTargetNotBinary is returned when the encoded target holds values other than 0 and 1.
	ErrTargetNotBinary = errors.New("target column is not binary")
)

// Kind is the declared semantic type of a column.
type Kind int

const (
	Categorical Kind = iota
	Numeric
	Text
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	default:
		return "categorical"
	}
}

// Column is one schema entry.
type Column struct {
	Name string
	Kind Kind
	// Encoded is true once the column's labels were replaced by integer codes.
	Encoded bool
}

// Schema maps column names to declared kinds, in file order.
type Schema struct {
	cols  []Column
	index map[string]int
}

func newSchema(names []string) *Schema {
	s := &Schema{index: make(map[string]int, len(names))}
	for i, n := range names {
		s.cols = append(s.cols, Column{Name: n, Kind: Categorical})
		s.index[n] = i
	}
	return s
}

// Columns returns a copy of the schema entries in order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Lookup returns the position of name or ErrUnknownColumn.
func (s *Schema) Lookup(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return i, nil
}

// Kind returns the declared kind of name.
func (s *Schema) Kind(name string) (Kind, error) {
	i, err := s.Lookup(name)
	if err != nil {
		return 0, err
	}
	return s.cols[i].Kind, nil
}

func (s *Schema) remove(name string) bool {
	i, ok := s.index[name]
	if !ok {
		return false
	}
	s.cols = append(s.cols[:i], s.cols[i+1:]...)
	s.reindex()
	return true
}

func (s *Schema) reindex() {
	s.index = make(map[string]int, len(s.cols))
	for i, c := range s.cols {
		s.index[c.Name] = i
	}
}

// missingMarkers are the cell values treated as absent, case-insensitively.
var missingMarkers = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
}

func isMissing(raw string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}
