// Package analyzer verifies every check digit of parsed MRZ text and produces
// a corrected copy.
//
// The overall check digit is recomputed from the recomputed digits of its
// members, not from the digits found in the input, so fixing one field's digit
// cascades into the composite.
package analyzer

import (
	"errors"

	"mrzgate/internal/mrz/checkdigit"
	"mrzgate/internal/mrz/models"
	"mrzgate/internal/mrz/parser"
)

// Analyze parses text and reports on every subfield. It never fails: format
// problems are reported on the result's Error with no field rows and no
// correction.
func Analyze(text string) models.AnalysisResult {
	doc, lines, err := parser.Parse(text)
	if err != nil {
		return failed(lines, err)
	}
	return AnalyzeDocument(doc)
}

// AnalyzeDocument analyzes an already-parsed document.
func AnalyzeDocument(doc *parser.Document) models.AnalysisResult {
	if err := doc.Validate(); err != nil {
		var lines []string
		if doc != nil {
			lines = doc.Lines
		}
		return failed(lines, err)
	}

	layout := doc.Layout
	fields := make([]models.FieldAnalysis, 0, len(layout.Fields)+1)
	expected := make(map[parser.FieldID]string, len(layout.Fields))

	corrected := make([][]byte, len(doc.Lines))
	for i, l := range doc.Lines {
		corrected[i] = []byte(l)
	}

	for _, spec := range layout.Fields {
		raw := doc.Raw(spec)
		if !spec.HasCheckDigit() {
			fields = append(fields, models.NewPlainField(spec.Name, raw, spec.Value))
			continue
		}
		want := checkdigit.Calculate(raw)
		expected[spec.ID] = want
		fields = append(fields, models.NewCheckedField(spec.Name, raw, spec.Value, doc.CheckDigit(spec), want))
		corrected[spec.Value.Line][spec.Check] = want[0]
	}

	composite := layout.CompositeData(func(spec parser.FieldSpec) (string, string) {
		return doc.Raw(spec), expected[spec.ID]
	})
	compositeWant := checkdigit.Calculate(composite)
	asFound := layout.CompositeData(func(spec parser.FieldSpec) (string, string) {
		return doc.Raw(spec), doc.CheckDigit(spec)
	})
	compositeActual := doc.CompositeDigit()
	fields = append(fields, models.NewCompositeField(
		layout.Composite.Name, composite, layout.Composite.Span(),
		compositeActual, compositeWant, checkdigit.Verify(asFound, compositeActual),
	))
	corrected[layout.Composite.Line][layout.Composite.Column] = compositeWant[0]

	correctedLines := make([]string, len(corrected))
	for i, l := range corrected {
		correctedLines[i] = string(l)
	}

	return models.AnalysisResult{
		OriginalMRZ:  append([]string(nil), doc.Lines...),
		CorrectedMRZ: correctedLines,
		DocumentKind: layout.Kind,
		Fields:       fields,
		IsFullyValid: allValid(fields),
	}
}

func failed(lines []string, err error) models.AnalysisResult {
	var formatErr *models.FormatError
	if !errors.As(err, &formatErr) {
		formatErr = &models.FormatError{LineCount: len(lines), Reason: err.Error()}
	}
	original := append([]string{}, lines...)
	return models.AnalysisResult{
		OriginalMRZ:  original,
		CorrectedMRZ: append([]string{}, original...),
		DocumentKind: models.KindUnknown,
		Fields:       []models.FieldAnalysis{},
		Error:        formatErr,
	}
}

func allValid(fields []models.FieldAnalysis) bool {
	for _, f := range fields {
		if !f.IsValid {
			return false
		}
	}
	return true
}
