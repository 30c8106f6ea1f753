package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events that expose or retain document data.
	// Examples: an operator reading back a stored validation report.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: rejected admin tokens.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	// Examples: MRZ generation and validation.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Subject is always a fingerprint or report ID, never raw MRZ text.
type Event struct {
	Category     EventCategory `json:"category"`
	Timestamp    time.Time     `json:"timestamp"`
	Action       string        `json:"action"`
	Subject      string        `json:"subject"`
	DocumentKind string        `json:"document_kind,omitempty"`
	Outcome      string        `json:"outcome,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	RequestID    string        `json:"request_id,omitempty"`
	ActorID      string        `json:"actor_id,omitempty"`
}

type AuditEvent string

const (
	EventMRZGenerated      AuditEvent = "mrz_generated"
	EventMRZValidated      AuditEvent = "mrz_validated"
	EventMRZBatchValidated AuditEvent = "mrz_batch_validated"
	EventReportViewed      AuditEvent = "report_viewed"
	EventAdminAuthFailed   AuditEvent = "admin_auth_failed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventReportViewed: CategoryCompliance,

	EventAdminAuthFailed: CategorySecurity,

	EventMRZGenerated:      CategoryOperations,
	EventMRZValidated:      CategoryOperations,
	EventMRZBatchValidated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Lister is implemented by stores that can read events back.
type Lister interface {
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
