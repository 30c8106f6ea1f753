// Package parser detects the MRZ format of raw text and slices it into
// subfields through the canonical layout tables.
package parser

import (
	"strings"
	"unicode/utf8"

	"mrzgate/internal/mrz/models"
)

// Document is MRZ text that matched a layout.
type Document struct {
	Layout *Layout
	Lines  []string
}

// Normalize splits text into lines, trims surrounding whitespace (including CR
// from CRLF input), drops blank lines and upper-cases what is left. Every
// non-ASCII rune and every invalid byte becomes one models.Substitute byte,
// so a line's byte offsets are its character offsets.
func Normalize(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, strings.ToUpper(strings.Map(toASCII, line)))
		}
	}
	return lines
}

func toASCII(r rune) rune {
	if r >= utf8.RuneSelf {
		return models.Substitute
	}
	return r
}

// Detect picks the layout whose line count and width match exactly. Anything
// else is a *models.FormatError naming the observed count and widths.
func Detect(lines []string) (*Layout, error) {
	for _, layout := range Layouts {
		if matches(layout, lines) {
			return layout, nil
		}
	}
	return nil, newFormatError(lines, "")
}

func matches(layout *Layout, lines []string) bool {
	if len(lines) != layout.Lines {
		return false
	}
	for _, l := range lines {
		if utf8.RuneCountInString(l) != layout.Width {
			return false
		}
	}
	return true
}

func isASCII(lines []string) bool {
	for _, l := range lines {
		for i := 0; i < len(l); i++ {
			if l[i] >= utf8.RuneSelf {
				return false
			}
		}
	}
	return true
}

func newFormatError(lines []string, reason string) *models.FormatError {
	lengths := make([]int, len(lines))
	for i, l := range lines {
		lengths[i] = utf8.RuneCountInString(l)
	}
	return &models.FormatError{LineCount: len(lines), LineLengths: lengths, Reason: reason}
}

// Parse normalizes text and detects its layout. On failure the normalized lines
// are still returned so callers can echo them.
func Parse(text string) (*Document, []string, error) {
	lines := Normalize(text)
	layout, err := Detect(lines)
	if err != nil {
		return nil, lines, err
	}
	return &Document{Layout: layout, Lines: lines}, lines, nil
}

// Kind is the detected document kind.
func (d *Document) Kind() models.DocumentKind {
	return d.Layout.Kind
}

// Slice returns the characters covered by s.
func (d *Document) Slice(s models.Span) string {
	return d.Lines[s.Line][s.Start:s.End]
}

// Raw returns the field's value without its check digit.
func (d *Document) Raw(f FieldSpec) string {
	return d.Slice(f.Value)
}

// CheckDigit returns the check digit found in the input for f, empty when the
// field has none.
func (d *Document) CheckDigit(f FieldSpec) string {
	if !f.HasCheckDigit() {
		return ""
	}
	return d.Slice(f.CheckSpan())
}

// CompositeDigit returns the overall check digit found in the input.
func (d *Document) CompositeDigit() string {
	return d.Slice(d.Layout.Composite.Span())
}

// Validate re-checks the structural invariants slicing relies on: the layout's
// shape and single-byte characters.
func (d *Document) Validate() error {
	if d == nil || d.Layout == nil || !matches(d.Layout, d.Lines) || !isASCII(d.Lines) {
		var lines []string
		if d != nil {
			lines = d.Lines
		}
		return newFormatError(lines, "MRZ line structure does not match the detected format.")
	}
	return nil
}
