package models

import (
	"fmt"
	"strings"
)

// Filler pads fields and stands in for absent data.
const Filler = '<'

// Substitute replaces characters outside ASCII when MRZ text is normalized.
// It is outside the MRZ alphabet, so it counts as 0 in check digits and is
// reported in place.
const Substitute = '?'

// Line widths of the supported layouts.
const (
	TD1Width = 30
	TD3Width = 44
)

// DocumentKind is the layout detected when parsing MRZ text.
type DocumentKind string

const (
	KindIDCard   DocumentKind = "ID_CARD"
	KindPassport DocumentKind = "PASSPORT"
	KindUnknown  DocumentKind = "UNKNOWN"
)

// Format returns the ICAO size class of the kind ("TD1", "TD3"), empty when unknown.
func (k DocumentKind) Format() string {
	switch k {
	case KindIDCard:
		return "TD1"
	case KindPassport:
		return "TD3"
	default:
		return ""
	}
}

func (k DocumentKind) String() string {
	return string(k)
}

// Line is one fixed-width MRZ line over the alphabet A-Z, 0-9 and '<'.
// Lines are produced by the encoder; never build one by hand.
type Line string

// Valid reports whether the line has a supported width and only legal characters.
func (l Line) Valid() bool {
	if len(l) != TD1Width && len(l) != TD3Width {
		return false
	}
	for i := 0; i < len(l); i++ {
		if !IsMRZChar(l[i]) {
			return false
		}
	}
	return true
}

func (l Line) String() string {
	return string(l)
}

// IsMRZChar reports whether c belongs to the MRZ alphabet.
func IsMRZChar(c byte) bool {
	return c == Filler || (c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')
}

// Calculation is the working behind one check digit: the data it was computed
// over and the digit written. The composite's data is its members' values
// with their own check digits.
type Calculation struct {
	Field      string
	Data       string
	CheckDigit string
}

// LinesToStrings converts encoded lines for transport.
func LinesToStrings(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = string(l)
	}
	return out
}

// Span locates a subfield: Line is the 0-indexed line, [Start, End) the columns.
type Span struct {
	Line  int
	Start int
	End   int
}

// Label renders the span 1-indexed, e.g. "L2, 1-9" or "L2, 44".
func (s Span) Label() string {
	if s.End-s.Start <= 1 {
		return fmt.Sprintf("L%d, %d", s.Line+1, s.Start+1)
	}
	return fmt.Sprintf("L%d, %d-%d", s.Line+1, s.Start+1, s.End)
}

// FieldAnalysis is one row of an analysis report. Rows are built once per
// analysis and never mutated.
//
// IsValid is normally ActualCheckDigit == ExpectedCheckDigit. The composite
// row is the exception: it is also invalid when its digit does not verify
// against the member check digits as found in the input, so it can be invalid
// with equal actual and expected digits. Error then says so.
type FieldAnalysis struct {
	Name               string
	RawValue           string
	Span               Span
	HasCheckDigit      bool
	ActualCheckDigit   string
	ExpectedCheckDigit string
	IsValid            bool
	Error              string
}

// Position is the human-readable span label.
func (f FieldAnalysis) Position() string {
	return f.Span.Label()
}

// NewPlainField builds a row for a subfield without a check digit. Such rows are always valid.
func NewPlainField(name, raw string, span Span) FieldAnalysis {
	return FieldAnalysis{
		Name:     name,
		RawValue: raw,
		Span:     span,
		IsValid:  true,
	}
}

// NewCheckedField builds a row for a checksummed subfield, deriving validity
// from the actual and expected digits.
func NewCheckedField(name, raw string, span Span, actual, expected string) FieldAnalysis {
	f := FieldAnalysis{
		Name:               name,
		RawValue:           raw,
		Span:               span,
		HasCheckDigit:      true,
		ActualCheckDigit:   actual,
		ExpectedCheckDigit: expected,
		IsValid:            actual == expected,
	}
	if !f.IsValid {
		f.Error = fmt.Sprintf("Invalid check digit. Expected %s, found %s.", expected, actual)
	}
	return f
}

// NewCompositeField builds the overall check-digit row. expected is derived
// from the recomputed member digits; inputConsistent reports whether actual
// also verifies against the member digits as found in the input. The row is
// valid only when both hold, so a corrupted member digit also flags the
// composite even though its corrected value is unchanged.
func NewCompositeField(name, raw string, span Span, actual, expected string, inputConsistent bool) FieldAnalysis {
	f := NewCheckedField(name, raw, span, actual, expected)
	if f.IsValid && !inputConsistent {
		f.IsValid = false
		f.Error = fmt.Sprintf("Composite check digit %s does not verify against the check digits found in the input.", actual)
	}
	return f
}

// FormatError reports MRZ text whose line count or widths match neither TD1 nor TD3.
type FormatError struct {
	LineCount   int
	LineLengths []int
	Reason      string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	lengths := make([]string, len(e.LineLengths))
	for i, n := range e.LineLengths {
		lengths[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf(
		"Invalid MRZ format. Expected 2 lines of %d characters (TD3) or 3 lines of %d characters (TD1). Found %d line(s) with lengths: %s.",
		TD3Width, TD1Width, e.LineCount, strings.Join(lengths, ", "),
	)
}

// AnalysisResult is the outcome of analyzing MRZ text. When Error is set, Fields
// is empty and CorrectedMRZ echoes OriginalMRZ.
type AnalysisResult struct {
	OriginalMRZ  []string
	CorrectedMRZ []string
	DocumentKind DocumentKind
	Fields       []FieldAnalysis
	IsFullyValid bool
	Error        *FormatError
}

// InvalidFields lists the names of rows that failed verification.
func (r AnalysisResult) InvalidFields() []string {
	var names []string
	for _, f := range r.Fields {
		if !f.IsValid {
			names = append(names, f.Name)
		}
	}
	return names
}
