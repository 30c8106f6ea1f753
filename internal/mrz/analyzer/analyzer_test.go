package analyzer

import (
	"math/rand"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"mrzgate/internal/mrz/encoder"
	"mrzgate/internal/mrz/models"
)

const (
	td3Line1 = "P<USADOE<<JOHN<<<<<<<<<<<<<<<<<<<<<<<<<<<<<<"
	td3Line2 = "L898902C<3USA8001014M3001019<<<<<<<<<<<<<<06"
	td1Line1 = "I<UTOD231458907<<<<<<<<<<<<<<<"
	td1Line2 = "7408122F1204159UTO<<<<<<<<<<<6"
	td1Line3 = "ERIKSSON<<ANNA<MARIA<<<<<<<<<<"
)

type AnalyzerSuite struct {
	suite.Suite
}

func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerSuite))
}

func (s *AnalyzerSuite) field(res models.AnalysisResult, name string) models.FieldAnalysis {
	for _, f := range res.Fields {
		if f.Name == name {
			return f
		}
	}
	s.FailNow("field not found", name)
	return models.FieldAnalysis{}
}

// invalidUTF8 returns the first output string that is not valid UTF-8.
func invalidUTF8(res models.AnalysisResult) (string, bool) {
	out := append(append([]string{}, res.OriginalMRZ...), res.CorrectedMRZ...)
	for _, f := range res.Fields {
		out = append(out, f.RawValue, f.ActualCheckDigit, f.ExpectedCheckDigit)
	}
	for _, v := range out {
		if !utf8.ValidString(v) {
			return v, true
		}
	}
	return "", false
}

func (s *AnalyzerSuite) TestNonASCIIInput() {
	s.Run("short line with a multi-byte character is a format error", func() {
		short := td3Line2[:8] + "É" + td3Line2[9:43]
		res := Analyze(td3Line1 + "\n" + short)

		s.Require().NotNil(res.Error)
		s.Equal(models.KindUnknown, res.DocumentKind)
		s.Empty(res.Fields)
		_, bad := invalidUTF8(res)
		s.False(bad)
	})

	s.Run("full width line reports the character in place", func() {
		line := td3Line2[:9] + "É" + td3Line2[10:]
		res := Analyze(td3Line1 + "\n" + line)

		s.Require().Nil(res.Error)
		doc := s.field(res, "Document Number")
		s.Equal("L898902C<", doc.RawValue)
		s.Equal("?", doc.ActualCheckDigit)
		s.Equal("3", doc.ExpectedCheckDigit)
		s.False(doc.IsValid)
		s.Equal(td3Line2, res.CorrectedMRZ[1])
		_, bad := invalidUTF8(res)
		s.False(bad)
	})
}

func (s *AnalyzerSuite) TestValidPassport() {
	res := Analyze(td3Line1 + "\n" + td3Line2)

	s.Nil(res.Error)
	s.Equal(models.KindPassport, res.DocumentKind)
	s.True(res.IsFullyValid)
	s.Equal([]string{td3Line1, td3Line2}, res.CorrectedMRZ)
	s.Len(res.Fields, 10)

	for _, f := range res.Fields {
		s.True(f.IsValid, f.Name)
		s.Empty(f.Error, f.Name)
	}

	doc := s.field(res, "Document Number")
	s.Equal("L898902C<", doc.RawValue)
	s.True(doc.HasCheckDigit)
	s.Equal("3", doc.ActualCheckDigit)
	s.Equal("L2, 1-9", doc.Position())

	overall := s.field(res, "Overall Check Digit")
	s.Equal("6", overall.ExpectedCheckDigit)
	s.Equal("L2, 44", overall.Position())
	s.Len(overall.RawValue, 40)

	gender := s.field(res, "Gender")
	s.False(gender.HasCheckDigit)
	s.Equal("M", gender.RawValue)
	s.Equal("L2, 21", gender.Position())
}

func (s *AnalyzerSuite) TestValidIDCard() {
	res := Analyze(strings.Join([]string{td1Line1, td1Line2, td1Line3}, "\n"))

	s.Nil(res.Error)
	s.Equal(models.KindIDCard, res.DocumentKind)
	s.True(res.IsFullyValid)
	s.Len(res.Fields, 11)
	s.Equal("D23145890", s.field(res, "Document Number").RawValue)
	s.Equal("L1, 6-14", s.field(res, "Document Number").Position())
	s.Equal("6", s.field(res, "Overall Check Digit").ExpectedCheckDigit)
}

func (s *AnalyzerSuite) TestCorruptedCheckDigitCascades() {
	corrupted := td3Line2[:9] + "4" + td3Line2[10:]
	res := Analyze(td3Line1 + "\n" + corrupted)

	s.Nil(res.Error)
	s.False(res.IsFullyValid)

	doc := s.field(res, "Document Number")
	s.False(doc.IsValid)
	s.Equal("4", doc.ActualCheckDigit)
	s.Equal("3", doc.ExpectedCheckDigit)
	s.Equal("Invalid check digit. Expected 3, found 4.", doc.Error)

	overall := s.field(res, "Overall Check Digit")
	s.False(overall.IsValid)
	s.Equal(overall.ExpectedCheckDigit, overall.ActualCheckDigit, "invalid despite matching digits")
	s.Equal("6", overall.ActualCheckDigit)
	s.Contains(overall.Error, "does not verify against the check digits found in the input")

	s.Equal([]string{td3Line1, td3Line2}, res.CorrectedMRZ)
	s.Equal(corrupted, res.OriginalMRZ[1])
	s.ElementsMatch([]string{"Document Number", "Overall Check Digit"}, res.InvalidFields())
}

func (s *AnalyzerSuite) TestCorruptedDataCharacterRecomputesComposite() {
	// Date of birth 800101 becomes 900101: its own digit and the composite both change.
	corrupted := td3Line2[:13] + "9" + td3Line2[14:]
	res := Analyze(td3Line1 + "\n" + corrupted)

	dob := s.field(res, "Date of Birth")
	s.False(dob.IsValid)
	s.Equal("1", dob.ExpectedCheckDigit)

	overall := s.field(res, "Overall Check Digit")
	s.False(overall.IsValid)
	s.Equal("0", overall.ExpectedCheckDigit)

	fixed := Analyze(strings.Join(res.CorrectedMRZ, "\n"))
	s.True(fixed.IsFullyValid)
}

func (s *AnalyzerSuite) TestCorruptedCompositeOnly() {
	corrupted := td3Line2[:43] + "7"
	res := Analyze(td3Line1 + "\n" + corrupted)

	s.Equal([]string{"Overall Check Digit"}, res.InvalidFields())
	s.Equal(td3Line2, res.CorrectedMRZ[1])
}

func (s *AnalyzerSuite) TestCorruptedIDCardCascades() {
	corrupted := td1Line1[:14] + "1" + td1Line1[15:]
	res := Analyze(strings.Join([]string{corrupted, td1Line2, td1Line3}, "\n"))

	s.ElementsMatch([]string{"Document Number", "Overall Check Digit"}, res.InvalidFields())
	s.Equal([]string{td1Line1, td1Line2, td1Line3}, res.CorrectedMRZ)
}

func (s *AnalyzerSuite) TestNameLinePassesThrough() {
	line1 := "P<USAD0E<<J#HN<<<<<<<<<<<<<<<<<<<<<<<<<<<<<<"
	res := Analyze(line1 + "\n" + td3Line2)
	s.True(res.IsFullyValid)
	s.Equal(line1, res.CorrectedMRZ[0])
}

func (s *AnalyzerSuite) TestFormatErrors() {
	s.Run("short line is never a td3 attempt", func() {
		res := Analyze(td3Line1[:43] + "\n" + td3Line2[:43])
		s.Require().NotNil(res.Error)
		s.Equal(models.KindUnknown, res.DocumentKind)
		s.Empty(res.Fields)
		s.False(res.IsFullyValid)
		s.Equal(res.OriginalMRZ, res.CorrectedMRZ)
		s.Contains(res.Error.Error(), "Found 2 line(s) with lengths: 43, 43.")
	})

	s.Run("empty input", func() {
		res := Analyze("   \n\n")
		s.Require().NotNil(res.Error)
		s.Equal(0, res.Error.LineCount)
		s.Empty(res.OriginalMRZ)
	})

	s.Run("mixed widths", func() {
		res := Analyze(td1Line1 + "\n" + td1Line2 + "\n" + td3Line2)
		s.Require().NotNil(res.Error)
		s.Equal([]int{30, 30, 44}, res.Error.LineLengths)
	})
}

func (s *AnalyzerSuite) TestLowercaseInput() {
	res := Analyze(strings.ToLower(td3Line1 + "\r\n" + td3Line2 + "\r\n"))
	s.True(res.IsFullyValid)
	s.Equal(td3Line2, res.OriginalMRZ[1])
}

func TestAnalyzeDocument_RejectsStructurallyInvalidDocument(t *testing.T) {
	res := AnalyzeDocument(nil)
	require.NotNil(t, res.Error)
	assert.Empty(t, res.Fields)
}

// TestRoundTrip encodes pseudo-random ASCII records and checks every one
// analyzes as fully valid.
func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(9303))
	alnum := "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	letters := "abcdefghijklmnopqrstuvwxyz -'"
	randString := func(alphabet string, maxLen int) string {
		n := rng.Intn(maxLen + 1)
		b := make([]byte, n)
		for i := range b {
			b[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(b)
	}
	randDate := func() time.Time {
		if rng.Intn(10) == 0 {
			return time.Time{}
		}
		return time.Date(1930+rng.Intn(120), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
	}
	genders := []models.Gender{models.GenderMale, models.GenderFemale, models.GenderUnspecified}
	types := []models.DocumentType{models.DocumentTypeIDCard, models.DocumentTypePassport}

	for i := 0; i < 500; i++ {
		rec := models.IdentityRecord{
			DocumentType:               types[rng.Intn(len(types))],
			IssuingCountry:             randString(alnum, 3),
			Nationality:                randString(alnum, 3),
			DocumentNumber:             randString(alnum, 9),
			PersonalNumber:             randString(alnum+"-", 15),
			IncludePersonalNumberInMRZ: rng.Intn(2) == 0,
			FirstName:                  randString(letters, 20),
			LastName:                   randString(letters, 20),
			DateOfBirth:                randDate(),
			ExpiryDate:                 randDate(),
			Gender:                     genders[rng.Intn(len(genders))],
		}

		lines := models.LinesToStrings(encoder.Encode(rec))
		res := Analyze(strings.Join(lines, "\n"))
		require.Nil(t, res.Error, "record %d: %+v", i, rec)
		assert.True(t, res.IsFullyValid, "record %d: %v invalid fields %v", i, lines, res.InvalidFields())
		assert.Equal(t, rec.DocumentType.Kind(), res.DocumentKind)
		assert.Equal(t, lines, res.CorrectedMRZ)
	}
}

// FuzzAnalyze checks that analysis never panics and honours the result invariants.
func FuzzAnalyze(f *testing.F) {
	f.Add(td3Line1 + "\n" + td3Line2)
	f.Add(strings.Join([]string{td1Line1, td1Line2, td1Line3}, "\n"))
	f.Add("")
	f.Add(strings.Repeat("é", 44) + "\n" + strings.Repeat("<", 44))

	f.Add("L898902C\xffUTO" + strings.Repeat("<", 32))

	f.Fuzz(func(t *testing.T, input string) {
		res := Analyze(input)
		if v, bad := invalidUTF8(res); bad {
			t.Fatalf("output %q is not valid UTF-8", v)
		}
		if res.Error != nil {
			if len(res.Fields) != 0 {
				t.Fatalf("format error with %d fields", len(res.Fields))
			}
			if strings.Join(res.OriginalMRZ, "\n") != strings.Join(res.CorrectedMRZ, "\n") {
				t.Fatalf("format error must echo the original lines")
			}
			return
		}
		for i, l := range res.CorrectedMRZ {
			if len(l) != len(res.OriginalMRZ[i]) {
				t.Fatalf("corrected line %d changed width", i)
			}
		}
		again := Analyze(strings.Join(res.CorrectedMRZ, "\n"))
		for _, f := range again.Fields {
			if f.HasCheckDigit && f.ActualCheckDigit != f.ExpectedCheckDigit {
				t.Fatalf("corrected output still mismatches on %s", f.Name)
			}
		}
	})
}
