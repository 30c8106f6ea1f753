package models

import (
	"strings"
	"time"

	dErrors "mrzgate/pkg/domain-errors"
)

// DocumentType selects the MRZ layout a record is encoded into.
type DocumentType string

const (
	DocumentTypeIDCard   DocumentType = "ID_CARD"  // TD1, 3x30
	DocumentTypePassport DocumentType = "PASSPORT" // TD3, 2x44
)

// ParseDocumentType accepts the canonical names as well as the ICAO size
// classes ("TD1", "TD3"), case-insensitively.
func ParseDocumentType(s string) (DocumentType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ID_CARD", "IDCARD", "ID", "TD1":
		return DocumentTypeIDCard, nil
	case "PASSPORT", "TD3":
		return DocumentTypePassport, nil
	case "":
		return "", dErrors.New(dErrors.CodeInvalidInput, "document_type cannot be empty")
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported document_type")
	}
}

// Kind returns the document kind an encoder produces for this type.
// Anything other than an ID card is encoded as a passport.
func (d DocumentType) Kind() DocumentKind {
	if d == DocumentTypeIDCard {
		return KindIDCard
	}
	return KindPassport
}

func (d DocumentType) String() string {
	return string(d)
}

// Gender of the holder as printed in the MRZ.
type Gender string

const (
	GenderMale        Gender = "MALE"
	GenderFemale      Gender = "FEMALE"
	GenderUnspecified Gender = "UNSPECIFIED"
)

// ParseGender is lenient: unknown values resolve to GenderUnspecified.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return GenderMale
	case "F", "FEMALE":
		return GenderFemale
	default:
		return GenderUnspecified
	}
}

// Code is the single MRZ character for the gender.
func (g Gender) Code() string {
	switch g {
	case GenderMale:
		return "M"
	case GenderFemale:
		return "F"
	default:
		return "<"
	}
}

// IdentityRecord is the human-entered data a document is encoded from.
// None of its fields are MRZ-legal until passed through the field formatter;
// the zero value of any field encodes as filler.
type IdentityRecord struct {
	DocumentType   DocumentType
	IssuingCountry string
	Nationality    string
	DocumentNumber string
	PersonalNumber string
	FirstName      string
	LastName       string
	DateOfBirth    time.Time
	ExpiryDate     time.Time
	Gender         Gender

	// IncludePersonalNumberInMRZ gates whether PersonalNumber is encoded at all.
	IncludePersonalNumberInMRZ bool
}

// DateLayout is the calendar date format records are entered in.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date. Empty or malformed input yields the
// zero time, which the formatter renders as filler.
func ParseDate(s string) time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

// ISODate renders t as YYYY-MM-DD, empty for the zero time.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
