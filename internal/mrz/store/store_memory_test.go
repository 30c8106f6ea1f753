package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"mrzgate/internal/mrz/models"
	"mrzgate/pkg/platform/sentinel"
	"mrzgate/pkg/requestcontext"
)

type InMemoryReportStoreSuite struct {
	suite.Suite
	store *InMemoryReportStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryReportStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryReportStoreSuite))
}

func (s *InMemoryReportStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *InMemoryReportStoreSuite) newReport(fingerprint string, createdAt time.Time) *models.Report {
	return &models.Report{
		ID:            uuid.New(),
		Fingerprint:   fingerprint,
		DocumentKind:  models.KindPassport,
		FullyValid:    false,
		InvalidFields: []string{"Document Number", "Overall"},
		CorrectedMRZ:  []string{"P<USADOE<<JOHN", "L898902C<3"},
		CreatedAt:     createdAt,
		ExpiresAt:     createdAt.Add(time.Hour),
	}
}

func (s *InMemoryReportStoreSuite) TestLookupBehavior() {
	s.Run("returns report by ID", func() {
		report := s.newReport("fp-a", s.now)
		s.Require().NoError(s.store.Save(s.ctx, report))

		found, err := s.store.FindByID(s.ctx, report.ID)
		s.Require().NoError(err)
		s.Equal(report, found)
	})

	s.Run("returns latest report by fingerprint", func() {
		older := s.newReport("fp-b", s.now.Add(-time.Minute))
		newer := s.newReport("fp-b", s.now)
		s.Require().NoError(s.store.Save(s.ctx, newer))
		s.Require().NoError(s.store.Save(s.ctx, older))

		found, err := s.store.FindByFingerprint(s.ctx, "fp-b")
		s.Require().NoError(err)
		s.Equal(newer.ID, found.ID)
	})

	s.Run("missing report is not found", func() {
		_, err := s.store.FindByID(s.ctx, uuid.New())
		s.ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByFingerprint(s.ctx, "nope")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryReportStoreSuite) TestExpiry() {
	report := s.newReport("fp-exp", s.now)
	s.Require().NoError(s.store.Save(s.ctx, report))

	later := requestcontext.WithTime(context.Background(), s.now.Add(2*time.Hour))

	_, err := s.store.FindByID(later, report.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByFingerprint(later, "fp-exp")
	s.ErrorIs(err, sentinel.ErrNotFound)

	removed, err := s.store.DeleteExpired(later)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.FindByID(s.ctx, report.ID)
	s.ErrorIs(err, sentinel.ErrNotFound, "deleted reports stay gone")
}

func (s *InMemoryReportStoreSuite) TestReturnedReportsAreCopies() {
	report := s.newReport("fp-copy", s.now)
	s.Require().NoError(s.store.Save(s.ctx, report))

	report.InvalidFields[0] = "mutated"

	found, err := s.store.FindByID(s.ctx, report.ID)
	s.Require().NoError(err)
	s.Equal("Document Number", found.InvalidFields[0])

	found.CorrectedMRZ[0] = "mutated"
	again, err := s.store.FindByID(s.ctx, report.ID)
	s.Require().NoError(err)
	s.Equal("P<USADOE<<JOHN", again.CorrectedMRZ[0])
}
