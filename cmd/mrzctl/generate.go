package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mrzgate/internal/mrz"
	"mrzgate/internal/mrz/models"
)

// GenerateCmd encodes one record.
type GenerateCmd struct {
	Type                  string `name:"type" short:"t" default:"passport" help:"Document type: passport (TD3) or id_card (TD1)"`
	Country               string `name:"country" help:"Issuing country code"`
	Nationality           string `name:"nationality" help:"Nationality code"`
	DocNumber             string `name:"doc-number" help:"Document number"`
	PersonalNumber        string `name:"personal-number" help:"Personal number / optional data"`
	IncludePersonalNumber bool   `name:"include-personal-number" help:"Encode the personal number"`
	FirstName             string `name:"first-name" help:"Given names"`
	LastName              string `name:"last-name" help:"Surname"`
	DOB                   string `name:"dob" help:"Date of birth, YYYY-MM-DD"`
	Expiry                string `name:"expiry" help:"Expiry date, YYYY-MM-DD"`
	Gender                string `name:"gender" help:"M, F or empty"`
	JSON                  bool   `name:"json" help:"Emit JSON"`
}

func (c *GenerateCmd) Run(s *streams) error {
	docType, err := models.ParseDocumentType(c.Type)
	if err != nil {
		return err
	}
	dob, err := parseDateFlag("dob", c.DOB)
	if err != nil {
		return err
	}
	expiry, err := parseDateFlag("expiry", c.Expiry)
	if err != nil {
		return err
	}

	encoded := mrz.Encode(models.IdentityRecord{
		DocumentType:               docType,
		IssuingCountry:             c.Country,
		Nationality:                c.Nationality,
		DocumentNumber:             c.DocNumber,
		PersonalNumber:             c.PersonalNumber,
		FirstName:                  c.FirstName,
		LastName:                   c.LastName,
		DateOfBirth:                dob,
		ExpiryDate:                 expiry,
		Gender:                     models.ParseGender(c.Gender),
		IncludePersonalNumberInMRZ: c.IncludePersonalNumber,
	})
	lines := models.LinesToStrings(encoded)

	if c.JSON {
		kind := docType.Kind()
		report := generateReport{
			DocumentType: string(kind),
			Format:       kind.Format(),
			Lines:        lines,
		}
		for _, calc := range mrz.Calculations(kind, encoded) {
			report.Calculations = append(report.Calculations, calculationRow(calc))
		}
		enc := json.NewEncoder(s.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprintln(s.out, strings.Join(lines, "\n"))
	return err
}

type generateReport struct {
	DocumentType string           `json:"document_type"`
	Format       string           `json:"format"`
	Lines        []string         `json:"lines"`
	Calculations []calculationRow `json:"calculations"`
}

type calculationRow struct {
	Field      string `json:"field"`
	Data       string `json:"data"`
	CheckDigit string `json:"check_digit"`
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}
