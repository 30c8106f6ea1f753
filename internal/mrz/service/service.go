package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ReportStore,AuditPublisher,AuditTrail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"mrzgate/internal/mrz"
	"mrzgate/internal/mrz/fingerprint"
	"mrzgate/internal/mrz/metrics"
	"mrzgate/internal/mrz/models"
	dErrors "mrzgate/pkg/domain-errors"
	"mrzgate/pkg/platform/audit"
	"mrzgate/pkg/platform/audit/publisher"
	"mrzgate/pkg/platform/sentinel"
	"mrzgate/pkg/requestcontext"
)

const tracerName = "mrzgate/mrz"

// ReportStore persists validation reports.
type ReportStore interface {
	Save(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id models.ReportID) (*models.Report, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.Report, error)
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditTrail reads back the events recorded for a subject.
type AuditTrail interface {
	List(ctx context.Context, subject string) ([]audit.Event, error)
}

// Config bounds request sizes and report retention.
type Config struct {
	ReportTTL        time.Duration
	MaxInputBytes    int
	BatchMaxItems    int
	BatchConcurrency int
}

func DefaultConfig() Config {
	return Config{
		ReportTTL:        24 * time.Hour,
		MaxInputBytes:    512,
		BatchMaxItems:    100,
		BatchConcurrency: 8,
	}
}

// Service wraps the codec with persistence, audit and metrics. The codec
// stays pure; everything with side effects happens here.
type Service struct {
	reports        ReportStore
	auditPublisher AuditPublisher
	auditTrail     AuditTrail
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
	cfg            Config
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithAuditTrail enables ReportAudit.
func WithAuditTrail(trail AuditTrail) Option {
	return func(s *Service) {
		s.auditTrail = trail
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithConfig overrides limits; zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.ReportTTL > 0 {
			s.cfg.ReportTTL = cfg.ReportTTL
		}
		if cfg.MaxInputBytes > 0 {
			s.cfg.MaxInputBytes = cfg.MaxInputBytes
		}
		if cfg.BatchMaxItems > 0 {
			s.cfg.BatchMaxItems = cfg.BatchMaxItems
		}
		if cfg.BatchConcurrency > 0 {
			s.cfg.BatchConcurrency = cfg.BatchConcurrency
		}
	}
}

func New(reports ReportStore, opts ...Option) (*Service, error) {
	if reports == nil {
		return nil, errors.New("report store is required")
	}
	s := &Service{
		reports: reports,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		cfg:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GenerateResult is the encoded zone for one identity record.
type GenerateResult struct {
	DocumentKind models.DocumentKind
	Lines        []models.Line
	Calculations []models.Calculation
	Fingerprint  string
}

// ValidateResult pairs the analysis with the report it was stored under.
// Reused is set when an unexpired report with the same fingerprint already existed.
type ValidateResult struct {
	ReportID    models.ReportID
	Fingerprint string
	Analysis    *models.AnalysisResult
	Reused      bool
}

// Generate encodes record into MRZ lines.
func (s *Service) Generate(ctx context.Context, record models.IdentityRecord) (*GenerateResult, error) {
	ctx, span := s.tracer.Start(ctx, "mrz.Generate")
	defer span.End()

	lines := mrz.Encode(record)
	kind := record.DocumentType.Kind()
	for i, l := range lines {
		if !l.Valid() {
			err := dErrors.New(dErrors.CodeInternal, "encoded MRZ line is malformed")
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid encoder output")
			s.logger.ErrorContext(ctx, "encoder produced invalid line",
				"request_id", requestcontext.RequestID(ctx),
				"line", i+1,
			)
			return nil, err
		}
	}
	fp := fingerprint.Of(models.LinesToStrings(lines))
	span.SetAttributes(attribute.String("mrz.document_kind", string(kind)))

	s.metrics.IncrementGenerated(string(kind))
	s.emitOps(ctx, audit.Event{
		Action:       string(audit.EventMRZGenerated),
		Subject:      fp,
		DocumentKind: string(kind),
		Outcome:      "generated",
	})
	s.logger.InfoContext(ctx, "mrz generated",
		"request_id", requestcontext.RequestID(ctx),
		"document_kind", kind,
		"fingerprint", fingerprint.Short(fp),
	)

	return &GenerateResult{
		DocumentKind: kind,
		Lines:        lines,
		Calculations: mrz.Calculations(kind, lines),
		Fingerprint:  fp,
	}, nil
}

// Validate analyzes text and stores a report of the outcome.
func (s *Service) Validate(ctx context.Context, text string) (*ValidateResult, error) {
	if err := s.checkInput(text); err != nil {
		return nil, err
	}
	return s.validate(ctx, text)
}

func (s *Service) validate(ctx context.Context, text string) (*ValidateResult, error) {
	ctx, span := s.tracer.Start(ctx, "mrz.Validate")
	defer span.End()

	start := time.Now()
	result := mrz.Analyze(text)
	analysis := &result
	fp := fingerprint.Of(analysis.OriginalMRZ)
	outcome := outcomeOf(analysis)

	span.SetAttributes(
		attribute.String("mrz.document_kind", string(analysis.DocumentKind)),
		attribute.String("mrz.outcome", outcome),
		attribute.Int("mrz.invalid_fields", len(analysis.InvalidFields())),
	)

	reportID, reused, err := s.storeReport(ctx, fp, analysis)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report persistence failed")
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.ObserveValidateLatency(elapsed)
	s.metrics.IncrementValidation(string(analysis.DocumentKind), outcome)
	for _, name := range analysis.InvalidFields() {
		s.metrics.IncrementFieldMismatch(name)
	}

	s.emitOps(ctx, audit.Event{
		Action:       string(audit.EventMRZValidated),
		Subject:      fp,
		DocumentKind: string(analysis.DocumentKind),
		Outcome:      outcome,
		Reason:       strings.Join(analysis.InvalidFields(), ","),
	})
	s.logger.InfoContext(ctx, "mrz validated",
		"request_id", requestcontext.RequestID(ctx),
		"document_kind", analysis.DocumentKind,
		"outcome", outcome,
		"fingerprint", fingerprint.Short(fp),
		"report_id", reportID,
		"duration_ms", elapsed.Milliseconds(),
	)

	return &ValidateResult{
		ReportID:    reportID,
		Fingerprint: fp,
		Analysis:    analysis,
		Reused:      reused,
	}, nil
}

// ValidateBatch validates texts concurrently. Results keep input order. The
// whole batch is rejected up front if any item fails the input guards.
func (s *Service) ValidateBatch(ctx context.Context, texts []string) ([]*ValidateResult, error) {
	if len(texts) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "items must not be empty")
	}
	if len(texts) > s.cfg.BatchMaxItems {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("batch exceeds %d items", s.cfg.BatchMaxItems))
	}
	for i, text := range texts {
		if err := s.checkInput(text); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("items[%d]: %s", i, dErrors.MessageOf(err)))
		}
	}

	ctx, span := s.tracer.Start(ctx, "mrz.ValidateBatch",
		trace.WithAttributes(attribute.Int("mrz.batch_size", len(texts))))
	defer span.End()

	s.metrics.ObserveBatchSize(len(texts))

	results := make([]*ValidateResult, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			res, err := s.validate(gctx, text)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch validation failed")
		return nil, err
	}

	valid := 0
	fps := make([]string, len(results))
	for i, r := range results {
		fps[i] = r.Fingerprint
		if r.Analysis.IsFullyValid {
			valid++
		}
	}
	s.emitOps(ctx, audit.Event{
		Action:  string(audit.EventMRZBatchValidated),
		Subject: fingerprint.Of(fps),
		Outcome: fmt.Sprintf("%d/%d valid", valid, len(results)),
	})

	return results, nil
}

// Report returns a stored report. Reading a report exposes document data, so
// the access is audited and fails closed when the audit write fails.
func (s *Service) Report(ctx context.Context, id models.ReportID) (*models.Report, error) {
	ctx, span := s.tracer.Start(ctx, "mrz.Report")
	defer span.End()

	report, err := s.findReport(ctx, span, id)
	if err != nil {
		return nil, err
	}

	if s.auditPublisher != nil {
		err := s.auditPublisher.Emit(ctx, audit.Event{
			Category:     audit.CategoryCompliance,
			Action:       string(audit.EventReportViewed),
			Subject:      report.Fingerprint,
			DocumentKind: string(report.DocumentKind),
			RequestID:    requestcontext.RequestID(ctx),
			ActorID:      "admin",
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to audit report access",
				"request_id", requestcontext.RequestID(ctx),
				"report_id", id,
				"error", err,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to audit report access")
		}
	}
	return report, nil
}

// ReportAudit lists the audit events recorded against a report's fingerprint
// in the sink's order. It needs an audit trail and a sink that can be read back.
func (s *Service) ReportAudit(ctx context.Context, id models.ReportID) ([]audit.Event, error) {
	ctx, span := s.tracer.Start(ctx, "mrz.ReportAudit")
	defer span.End()

	if s.auditTrail == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "audit trail is not configured")
	}
	report, err := s.findReport(ctx, span, id)
	if err != nil {
		return nil, err
	}

	events, err := s.auditTrail.List(ctx, report.Fingerprint)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, publisher.ErrListUnsupported) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit sink cannot be read back")
		}
		s.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"report_id", id,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	span.SetAttributes(attribute.Int("mrz.audit_events", len(events)))
	return events, nil
}

func (s *Service) findReport(ctx context.Context, span trace.Span, id models.ReportID) (*models.Report, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "report not found")
		}
		span.RecordError(err)
		return nil, storeError(err, "failed to load report")
	}
	return report, nil
}

func (s *Service) checkInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return dErrors.New(dErrors.CodeValidation, "mrz is required")
	}
	if len(text) > s.cfg.MaxInputBytes {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("mrz exceeds %d bytes", s.cfg.MaxInputBytes))
	}
	return nil
}

func (s *Service) storeReport(ctx context.Context, fp string, analysis *models.AnalysisResult) (models.ReportID, bool, error) {
	existing, err := s.reports.FindByFingerprint(ctx, fp)
	switch {
	case err == nil:
		return existing.ID, true, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		s.logger.WarnContext(ctx, "report lookup failed, storing a new report",
			"request_id", requestcontext.RequestID(ctx),
			"fingerprint", fingerprint.Short(fp),
			"error", err,
		)
	}

	report := models.NewReport(fp, analysis, requestcontext.RequestID(ctx), requestcontext.Now(ctx), s.cfg.ReportTTL)
	if err := s.reports.Save(ctx, report); err != nil {
		return models.ReportID{}, false, storeError(err, "failed to store report")
	}
	return report.ID, false, nil
}

func (s *Service) emitOps(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}

func storeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func outcomeOf(result *models.AnalysisResult) string {
	switch {
	case result.Error != nil:
		return "format_error"
	case result.IsFullyValid:
		return "valid"
	default:
		return "invalid"
	}
}
