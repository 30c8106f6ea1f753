// Package store persists validation reports. All backends return
// sentinel.ErrNotFound for missing or expired reports.
package store

import (
	"context"
	"sync"

	"mrzgate/internal/mrz/models"
	"mrzgate/pkg/platform/sentinel"
	"mrzgate/pkg/requestcontext"
)

// InMemoryReportStore keeps reports in process memory.
type InMemoryReportStore struct {
	mu            sync.RWMutex
	reports       map[models.ReportID]*models.Report
	byFingerprint map[string]models.ReportID
}

func NewInMemory() *InMemoryReportStore {
	return &InMemoryReportStore{
		reports:       make(map[models.ReportID]*models.Report),
		byFingerprint: make(map[string]models.ReportID),
	}
}

func (s *InMemoryReportStore) Save(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneReport(report)
	s.reports[report.ID] = stored
	if latestID, ok := s.byFingerprint[report.Fingerprint]; ok {
		if latest := s.reports[latestID]; latest != nil && latest.CreatedAt.After(report.CreatedAt) {
			return nil
		}
	}
	s.byFingerprint[report.Fingerprint] = report.ID
	return nil
}

func (s *InMemoryReportStore) FindByID(ctx context.Context, id models.ReportID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok || report.IsExpired(requestcontext.Now(ctx)) {
		return nil, sentinel.ErrNotFound
	}
	return cloneReport(report), nil
}

func (s *InMemoryReportStore) FindByFingerprint(ctx context.Context, fingerprint string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byFingerprint[fingerprint]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	report, ok := s.reports[id]
	if !ok || report.IsExpired(requestcontext.Now(ctx)) {
		return nil, sentinel.ErrNotFound
	}
	return cloneReport(report), nil
}

// DeleteExpired drops reports past their retention and returns how many were removed.
func (s *InMemoryReportStore) DeleteExpired(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, report := range s.reports {
		if !report.IsExpired(now) {
			continue
		}
		delete(s.reports, id)
		if s.byFingerprint[report.Fingerprint] == id {
			delete(s.byFingerprint, report.Fingerprint)
		}
		removed++
	}
	return removed, nil
}

func cloneReport(r *models.Report) *models.Report {
	c := *r
	c.InvalidFields = append([]string{}, r.InvalidFields...)
	c.CorrectedMRZ = append([]string{}, r.CorrectedMRZ...)
	return &c
}
