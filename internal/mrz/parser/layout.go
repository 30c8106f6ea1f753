package parser

import "mrzgate/internal/mrz/models"

// FieldID names a subfield of an MRZ layout.
type FieldID string

const (
	FieldDocumentCode   FieldID = "document_code"
	FieldIssuingCountry FieldID = "issuing_country"
	FieldName           FieldID = "name"
	FieldDocumentNumber FieldID = "document_number"
	FieldNationality    FieldID = "nationality"
	FieldDateOfBirth    FieldID = "date_of_birth"
	FieldGender         FieldID = "gender"
	FieldExpiryDate     FieldID = "expiry_date"
	FieldPersonalNumber FieldID = "personal_number"
	FieldOptionalData1  FieldID = "optional_data_1"
	FieldOptionalData2  FieldID = "optional_data_2"
)

// NoCheckDigit marks a field without a check digit.
const NoCheckDigit = -1

// FieldSpec locates a subfield. Check is the column of its check digit on the
// same line, or NoCheckDigit.
type FieldSpec struct {
	ID    FieldID
	Name  string
	Value models.Span
	Check int
}

// Width is the number of characters in the field's value.
func (f FieldSpec) Width() int {
	return f.Value.End - f.Value.Start
}

// HasCheckDigit reports whether the field carries its own check digit.
func (f FieldSpec) HasCheckDigit() bool {
	return f.Check != NoCheckDigit
}

// CheckSpan is the span of the field's check digit.
func (f FieldSpec) CheckSpan() models.Span {
	return models.Span{Line: f.Value.Line, Start: f.Check, End: f.Check + 1}
}

// CompositeSpec describes the overall check digit: its position and the fields
// whose values (followed by their own check digits, where they have one) are
// concatenated, in order, to compute it.
type CompositeSpec struct {
	Name    string
	Line    int
	Column  int
	Members []FieldID
}

// Span is the composite digit's position.
func (c CompositeSpec) Span() models.Span {
	return models.Span{Line: c.Line, Start: c.Column, End: c.Column + 1}
}

// Layout is the canonical offset table of one MRZ format. Encoders write
// through it and the analyzer reads through it, so the two never drift.
type Layout struct {
	Kind      models.DocumentKind
	Lines     int
	Width     int
	Fields    []FieldSpec
	Composite CompositeSpec
}

// Field looks up a field spec by ID.
func (l *Layout) Field(id FieldID) (FieldSpec, bool) {
	for _, f := range l.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// CompositeData assembles the composite check-digit input. valueOf returns a
// member's raw value and the check digit to use for it; the digit is ignored
// for members without one.
func (l *Layout) CompositeData(valueOf func(FieldSpec) (raw, check string)) string {
	var data []byte
	for _, id := range l.Composite.Members {
		spec, ok := l.Field(id)
		if !ok {
			continue
		}
		raw, check := valueOf(spec)
		data = append(data, raw...)
		if spec.HasCheckDigit() {
			data = append(data, check...)
		}
	}
	return string(data)
}

func span(line, start, end int) models.Span {
	return models.Span{Line: line, Start: start, End: end}
}

// TD3 is the passport layout: 2 lines of 44 characters.
var TD3 = &Layout{
	Kind:  models.KindPassport,
	Lines: 2,
	Width: models.TD3Width,
	Fields: []FieldSpec{
		{ID: FieldDocumentCode, Name: "Document Code", Value: span(0, 0, 2), Check: NoCheckDigit},
		{ID: FieldIssuingCountry, Name: "Issuing Country", Value: span(0, 2, 5), Check: NoCheckDigit},
		{ID: FieldName, Name: "Name", Value: span(0, 5, 44), Check: NoCheckDigit},
		{ID: FieldDocumentNumber, Name: "Document Number", Value: span(1, 0, 9), Check: 9},
		{ID: FieldNationality, Name: "Nationality", Value: span(1, 10, 13), Check: NoCheckDigit},
		{ID: FieldDateOfBirth, Name: "Date of Birth", Value: span(1, 13, 19), Check: 19},
		{ID: FieldGender, Name: "Gender", Value: span(1, 20, 21), Check: NoCheckDigit},
		{ID: FieldExpiryDate, Name: "Expiry Date", Value: span(1, 21, 27), Check: 27},
		{ID: FieldPersonalNumber, Name: "Personal Number / Optional", Value: span(1, 28, 42), Check: 42},
	},
	Composite: CompositeSpec{
		Name:    "Overall Check Digit",
		Line:    1,
		Column:  43,
		Members: []FieldID{FieldDocumentNumber, FieldDateOfBirth, FieldExpiryDate, FieldPersonalNumber},
	},
}

// TD1 is the ID-card layout: 3 lines of 30 characters.
var TD1 = &Layout{
	Kind:  models.KindIDCard,
	Lines: 3,
	Width: models.TD1Width,
	Fields: []FieldSpec{
		{ID: FieldDocumentCode, Name: "Document Code", Value: span(0, 0, 2), Check: NoCheckDigit},
		{ID: FieldIssuingCountry, Name: "Issuing Country", Value: span(0, 2, 5), Check: NoCheckDigit},
		{ID: FieldDocumentNumber, Name: "Document Number", Value: span(0, 5, 14), Check: 14},
		{ID: FieldOptionalData1, Name: "Optional Data 1", Value: span(0, 15, 30), Check: NoCheckDigit},
		{ID: FieldDateOfBirth, Name: "Date of Birth", Value: span(1, 0, 6), Check: 6},
		{ID: FieldGender, Name: "Gender", Value: span(1, 7, 8), Check: NoCheckDigit},
		{ID: FieldExpiryDate, Name: "Expiry Date", Value: span(1, 8, 14), Check: 14},
		{ID: FieldNationality, Name: "Nationality", Value: span(1, 15, 18), Check: NoCheckDigit},
		{ID: FieldOptionalData2, Name: "Optional Data 2", Value: span(1, 18, 29), Check: NoCheckDigit},
		{ID: FieldName, Name: "Name", Value: span(2, 0, 30), Check: NoCheckDigit},
	},
	Composite: CompositeSpec{
		Name:   "Overall Check Digit",
		Line:   1,
		Column: 29,
		Members: []FieldID{
			FieldDocumentNumber, FieldOptionalData1,
			FieldDateOfBirth, FieldExpiryDate, FieldOptionalData2,
		},
	},
}

// Layouts lists the supported layouts in detection order.
var Layouts = []*Layout{TD3, TD1}

// LayoutFor returns the layout a document kind is encoded with. Anything that
// is not an ID card is encoded as a passport.
func LayoutFor(kind models.DocumentKind) *Layout {
	if kind == models.KindIDCard {
		return TD1
	}
	return TD3
}
