package handler

import (
	"strings"
	"time"

	"mrzgate/internal/mrz/models"
	"mrzgate/internal/mrz/service"
	"mrzgate/pkg/platform/audit"
)

// GenerateResponse is the body of POST /mrz/generate. MRZ is Lines joined
// with newlines.
type GenerateResponse struct {
	DocumentType string                `json:"document_type"`
	Format       string                `json:"format"`
	Lines        []string              `json:"lines"`
	MRZ          string                `json:"mrz"`
	Calculations []CalculationResponse `json:"calculations"`
}

// CalculationResponse shows the data one check digit was computed over.
type CalculationResponse struct {
	Field      string `json:"field"`
	Data       string `json:"data"`
	CheckDigit string `json:"check_digit"`
}

func generateResponseFromResult(res *service.GenerateResult) GenerateResponse {
	lines := models.LinesToStrings(res.Lines)
	resp := GenerateResponse{
		DocumentType: string(res.DocumentKind),
		Format:       res.DocumentKind.Format(),
		Lines:        lines,
		MRZ:          strings.Join(lines, "\n"),
		Calculations: make([]CalculationResponse, 0, len(res.Calculations)),
	}
	for _, c := range res.Calculations {
		resp.Calculations = append(resp.Calculations, CalculationResponse{
			Field:      c.Field,
			Data:       c.Data,
			CheckDigit: c.CheckDigit,
		})
	}
	return resp
}

// FieldResponse is one analyzed subfield. Line, Start and End are 0-indexed
// with End exclusive; Position is the 1-indexed label.
type FieldResponse struct {
	Name               string `json:"name"`
	RawValue           string `json:"raw_value"`
	Position           string `json:"position"`
	Line               int    `json:"line"`
	Start              int    `json:"start"`
	End                int    `json:"end"`
	HasCheckDigit      bool   `json:"has_check_digit"`
	ActualCheckDigit   string `json:"actual_check_digit,omitempty"`
	ExpectedCheckDigit string `json:"expected_check_digit,omitempty"`
	IsValid            bool   `json:"is_valid"`
	Error              string `json:"error,omitempty"`
}

// ValidateResponse is the analysis of one MRZ and the report stored for it.
// FormatError is set, and Fields is empty, when the layout was not recognized.
type ValidateResponse struct {
	ReportID      string          `json:"report_id"`
	DocumentType  string          `json:"document_type"`
	Format        string          `json:"format,omitempty"`
	IsFullyValid  bool            `json:"is_fully_valid"`
	OriginalMRZ   []string        `json:"original_mrz"`
	CorrectedMRZ  []string        `json:"corrected_mrz"`
	Fields        []FieldResponse `json:"fields"`
	InvalidFields []string        `json:"invalid_fields"`
	FormatError   string          `json:"format_error,omitempty"`
}

func validateResponseFromResult(res *service.ValidateResult) ValidateResponse {
	a := res.Analysis
	resp := ValidateResponse{
		ReportID:      res.ReportID.String(),
		DocumentType:  string(a.DocumentKind),
		Format:        a.DocumentKind.Format(),
		IsFullyValid:  a.IsFullyValid,
		OriginalMRZ:   nonNil(a.OriginalMRZ),
		CorrectedMRZ:  nonNil(a.CorrectedMRZ),
		Fields:        make([]FieldResponse, 0, len(a.Fields)),
		InvalidFields: nonNil(a.InvalidFields()),
	}
	for _, f := range a.Fields {
		resp.Fields = append(resp.Fields, FieldResponse{
			Name:               f.Name,
			RawValue:           f.RawValue,
			Position:           f.Position(),
			Line:               f.Span.Line,
			Start:              f.Span.Start,
			End:                f.Span.End,
			HasCheckDigit:      f.HasCheckDigit,
			ActualCheckDigit:   f.ActualCheckDigit,
			ExpectedCheckDigit: f.ExpectedCheckDigit,
			IsValid:            f.IsValid,
			Error:              f.Error,
		})
	}
	if a.Error != nil {
		resp.FormatError = a.Error.Error()
	}
	return resp
}

// ValidateBatchResponse holds per-item results in request order.
type ValidateBatchResponse struct {
	Total   int                `json:"total"`
	Valid   int                `json:"valid"`
	Results []ValidateResponse `json:"results"`
}

func batchResponseFromResults(results []*service.ValidateResult) ValidateBatchResponse {
	resp := ValidateBatchResponse{
		Total:   len(results),
		Results: make([]ValidateResponse, 0, len(results)),
	}
	for _, r := range results {
		if r.Analysis.IsFullyValid {
			resp.Valid++
		}
		resp.Results = append(resp.Results, validateResponseFromResult(r))
	}
	return resp
}

// ReportResponse is a stored validation report.
type ReportResponse struct {
	ID            string    `json:"id"`
	Fingerprint   string    `json:"fingerprint"`
	DocumentType  string    `json:"document_type"`
	IsFullyValid  bool      `json:"is_fully_valid"`
	InvalidFields []string  `json:"invalid_fields"`
	CorrectedMRZ  []string  `json:"corrected_mrz"`
	FormatError   string    `json:"format_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func reportResponseFromModel(r *models.Report) ReportResponse {
	return ReportResponse{
		ID:            r.ID.String(),
		Fingerprint:   r.Fingerprint,
		DocumentType:  string(r.DocumentKind),
		IsFullyValid:  r.FullyValid,
		InvalidFields: nonNil(r.InvalidFields),
		CorrectedMRZ:  nonNil(r.CorrectedMRZ),
		FormatError:   r.Error,
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
	}
}

// ReportAuditResponse is the audit trail of one report.
type ReportAuditResponse struct {
	ReportID string        `json:"report_id"`
	Events   []audit.Event `json:"events"`
}

func reportAuditResponseFromEvents(id models.ReportID, events []audit.Event) ReportAuditResponse {
	if events == nil {
		events = []audit.Event{}
	}
	return ReportAuditResponse{ReportID: id.String(), Events: events}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
