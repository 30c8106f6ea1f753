package handler

import (
	"fmt"
	"strings"
	"time"

	"mrzgate/internal/mrz/models"
	dErrors "mrzgate/pkg/domain-errors"
)

const maxFieldLength = 64

// GenerateRequest is the identity record submitted for encoding.
type GenerateRequest struct {
	DocumentType               string `json:"document_type"`
	IssuingCountry             string `json:"issuing_country"`
	Nationality                string `json:"nationality"`
	DocumentNumber             string `json:"document_number"`
	PersonalNumber             string `json:"personal_number"`
	FirstName                  string `json:"first_name"`
	LastName                   string `json:"last_name"`
	DateOfBirth                string `json:"date_of_birth"`
	ExpiryDate                 string `json:"expiry_date"`
	Gender                     string `json:"gender"`
	IncludePersonalNumberInMRZ bool   `json:"include_personal_number_in_mrz"`

	record models.IdentityRecord
}

// Validate checks field sizes and parses the document type and dates.
// Empty dates are allowed and encode as filler.
func (r *GenerateRequest) Validate() error {
	docType, err := models.ParseDocumentType(r.DocumentType)
	if err != nil {
		return err
	}

	for _, f := range []struct{ name, value string }{
		{"issuing_country", r.IssuingCountry},
		{"nationality", r.Nationality},
		{"document_number", r.DocumentNumber},
		{"personal_number", r.PersonalNumber},
		{"first_name", r.FirstName},
		{"last_name", r.LastName},
	} {
		if len(f.value) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("%s exceeds %d characters", f.name, maxFieldLength))
		}
	}

	dob, err := parseOptionalDate("date_of_birth", r.DateOfBirth)
	if err != nil {
		return err
	}
	expiry, err := parseOptionalDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return err
	}

	r.record = models.IdentityRecord{
		DocumentType:               docType,
		IssuingCountry:             r.IssuingCountry,
		Nationality:                r.Nationality,
		DocumentNumber:             r.DocumentNumber,
		PersonalNumber:             r.PersonalNumber,
		FirstName:                  r.FirstName,
		LastName:                   r.LastName,
		DateOfBirth:                dob,
		ExpiryDate:                 expiry,
		Gender:                     models.ParseGender(r.Gender),
		IncludePersonalNumberInMRZ: r.IncludePersonalNumberInMRZ,
	}
	return nil
}

// Record returns the parsed record. Only meaningful after Validate.
func (r *GenerateRequest) Record() models.IdentityRecord {
	return r.record
}

func parseOptionalDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s must be formatted as YYYY-MM-DD", field))
	}
	return t, nil
}

// ValidateRequest carries MRZ text as scanned, lines separated by newlines.
type ValidateRequest struct {
	MRZ string `json:"mrz"`
}

func (r *ValidateRequest) Validate() error {
	if strings.TrimSpace(r.MRZ) == "" {
		return dErrors.New(dErrors.CodeValidation, "mrz is required")
	}
	return nil
}

// ValidateBatchRequest carries several MRZ texts.
type ValidateBatchRequest struct {
	Items []string `json:"items"`
}

func (r *ValidateBatchRequest) Validate() error {
	if len(r.Items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "items must not be empty")
	}
	return nil
}
