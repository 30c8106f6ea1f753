package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportID identifies a stored validation report.
type ReportID = uuid.UUID

// Report is the persisted summary of one validation. It keeps the corrected
// zone and the names of failing rows, never the submitted text.
type Report struct {
	ID            ReportID     `json:"id"`
	Fingerprint   string       `json:"fingerprint"`
	DocumentKind  DocumentKind `json:"document_kind"`
	FullyValid    bool         `json:"fully_valid"`
	InvalidFields []string     `json:"invalid_fields"`
	CorrectedMRZ  []string     `json:"corrected_mrz"`
	Error         string       `json:"error,omitempty"`
	RequestID     string       `json:"request_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	ExpiresAt     time.Time    `json:"expires_at"`
}

// NewReport summarises result. Format failures store no corrected zone.
func NewReport(fingerprint string, result *AnalysisResult, requestID string, now time.Time, ttl time.Duration) *Report {
	r := &Report{
		ID:            uuid.New(),
		Fingerprint:   fingerprint,
		DocumentKind:  result.DocumentKind,
		FullyValid:    result.IsFullyValid,
		InvalidFields: result.InvalidFields(),
		CorrectedMRZ:  []string{},
		RequestID:     requestID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if r.InvalidFields == nil {
		r.InvalidFields = []string{}
	}
	if result.Error != nil {
		r.Error = result.Error.Error()
	} else {
		r.CorrectedMRZ = append(r.CorrectedMRZ, result.CorrectedMRZ...)
	}
	return r
}

// IsExpired reports whether the report outlived its retention at now.
func (r *Report) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}
