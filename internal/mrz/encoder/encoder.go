// Package encoder assembles identity records into TD1 and TD3 MRZ lines.
package encoder

import (
	"mrzgate/internal/mrz/checkdigit"
	"mrzgate/internal/mrz/format"
	"mrzgate/internal/mrz/models"
	"mrzgate/internal/mrz/parser"
)

// Document codes written in the first two characters.
const (
	codeIDCard   = "I<"
	codePassport = "P<"
)

// Encode picks the layout from the record's document type and encodes it.
// It never fails: missing or malformed fields are rendered as filler.
func Encode(rec models.IdentityRecord) []models.Line {
	if parser.LayoutFor(rec.DocumentType.Kind()) == parser.TD1 {
		return EncodeTD1(rec)
	}
	return EncodeTD3(rec)
}

// Calculations reads back the check digits of lines encoded with layout: one
// entry per checked field in layout order, then the composite. It returns nil
// when the lines do not fit the layout.
func Calculations(layout *parser.Layout, lines []models.Line) []models.Calculation {
	doc := &parser.Document{Layout: layout, Lines: models.LinesToStrings(lines)}
	if doc.Validate() != nil {
		return nil
	}

	var out []models.Calculation
	for _, spec := range layout.Fields {
		if !spec.HasCheckDigit() {
			continue
		}
		out = append(out, models.Calculation{
			Field:      spec.Name,
			Data:       doc.Raw(spec),
			CheckDigit: doc.CheckDigit(spec),
		})
	}
	composite := layout.CompositeData(func(spec parser.FieldSpec) (string, string) {
		return doc.Raw(spec), doc.CheckDigit(spec)
	})
	return append(out, models.Calculation{
		Field:      layout.Composite.Name,
		Data:       composite,
		CheckDigit: doc.CompositeDigit(),
	})
}

// EncodeTD1 renders the record as 3 lines of 30 characters.
func EncodeTD1(rec models.IdentityRecord) []models.Line {
	b := newBuilder(parser.TD1)

	optional1 := format.Fill(15)
	if rec.IncludePersonalNumberInMRZ {
		optional1 = format.AlphaNumeric(rec.PersonalNumber, 15)
	}

	b.put(parser.FieldDocumentCode, codeIDCard)
	b.put(parser.FieldIssuingCountry, format.CountryCode(rec.IssuingCountry, 3))
	b.putChecked(parser.FieldDocumentNumber, format.AlphaNumeric(rec.DocumentNumber, 9))
	b.put(parser.FieldOptionalData1, optional1)

	b.putChecked(parser.FieldDateOfBirth, format.Date(models.ISODate(rec.DateOfBirth)))
	b.put(parser.FieldGender, rec.Gender.Code())
	b.putChecked(parser.FieldExpiryDate, format.Date(models.ISODate(rec.ExpiryDate)))
	b.put(parser.FieldNationality, format.CountryCode(rec.Nationality, 3))
	// Optional data 2 has no assigned meaning and stays filler.
	b.put(parser.FieldOptionalData2, format.Fill(11))

	b.put(parser.FieldName, format.Name(rec.LastName, rec.FirstName, models.TD1Width))

	b.putComposite()
	return b.lines()
}

// EncodeTD3 renders the record as 2 lines of 44 characters.
func EncodeTD3(rec models.IdentityRecord) []models.Line {
	b := newBuilder(parser.TD3)

	personal := format.Fill(14)
	if rec.IncludePersonalNumberInMRZ && rec.PersonalNumber != "" {
		personal = format.AlphaNumeric(rec.PersonalNumber, 14)
	}

	b.put(parser.FieldDocumentCode, codePassport)
	b.put(parser.FieldIssuingCountry, format.CountryCode(rec.IssuingCountry, 3))
	b.put(parser.FieldName, format.Name(rec.LastName, rec.FirstName, 39))

	b.putChecked(parser.FieldDocumentNumber, format.AlphaNumeric(rec.DocumentNumber, 9))
	b.put(parser.FieldNationality, format.CountryCode(rec.Nationality, 3))
	b.putChecked(parser.FieldDateOfBirth, format.Date(models.ISODate(rec.DateOfBirth)))
	b.put(parser.FieldGender, rec.Gender.Code())
	b.putChecked(parser.FieldExpiryDate, format.Date(models.ISODate(rec.ExpiryDate)))
	b.putChecked(parser.FieldPersonalNumber, personal)

	b.putComposite()
	return b.lines()
}

// builder writes formatted values into filler-initialised lines at the
// layout's offsets.
type builder struct {
	layout *parser.Layout
	buf    [][]byte
}

func newBuilder(layout *parser.Layout) *builder {
	buf := make([][]byte, layout.Lines)
	for i := range buf {
		buf[i] = []byte(format.Fill(layout.Width))
	}
	return &builder{layout: layout, buf: buf}
}

func (b *builder) spec(id parser.FieldID) parser.FieldSpec {
	spec, ok := b.layout.Field(id)
	if !ok {
		panic("encoder: field " + string(id) + " missing from layout")
	}
	return spec
}

// put writes value into the field, padded or truncated to the field width.
func (b *builder) put(id parser.FieldID, value string) {
	spec := b.spec(id)
	dst := b.buf[spec.Value.Line][spec.Value.Start:spec.Value.End]
	n := copy(dst, value)
	for i := n; i < len(dst); i++ {
		dst[i] = models.Filler
	}
}

// putChecked writes value and its check digit.
func (b *builder) putChecked(id parser.FieldID, value string) {
	b.put(id, value)
	spec := b.spec(id)
	b.buf[spec.Value.Line][spec.Check] = checkdigit.Calculate(b.raw(spec))[0]
}

func (b *builder) raw(spec parser.FieldSpec) string {
	return string(b.buf[spec.Value.Line][spec.Value.Start:spec.Value.End])
}

// putComposite computes the overall check digit over what has been written.
func (b *builder) putComposite() {
	data := b.layout.CompositeData(func(spec parser.FieldSpec) (string, string) {
		check := ""
		if spec.HasCheckDigit() {
			check = string(b.buf[spec.Value.Line][spec.Check])
		}
		return b.raw(spec), check
	})
	c := b.layout.Composite
	b.buf[c.Line][c.Column] = checkdigit.Calculate(data)[0]
}

func (b *builder) lines() []models.Line {
	out := make([]models.Line, len(b.buf))
	for i, l := range b.buf {
		out[i] = models.Line(l)
	}
	return out
}
