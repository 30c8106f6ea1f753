//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"mrzgate/internal/mrz/store"
	"mrzgate/pkg/platform/sentinel"
	"mrzgate/pkg/requestcontext"
	"mrzgate/pkg/testutil/containers"
)

type RedisReportStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisReportStore
}

func TestRedisReportStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisReportStoreSuite))
}

func (s *RedisReportStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisReportStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisReportStoreSuite) TestSaveAndFind() {
	now := time.Now()
	ctx := requestcontext.WithTime(context.Background(), now)
	report := newReport("fp-redis", now)

	s.Require().NoError(s.store.Save(ctx, report))

	byID, err := s.store.FindByID(ctx, report.ID)
	s.Require().NoError(err)
	s.Equal(report.CorrectedMRZ, byID.CorrectedMRZ)
	s.Equal(report.DocumentKind, byID.DocumentKind)

	byFingerprint, err := s.store.FindByFingerprint(ctx, "fp-redis")
	s.Require().NoError(err)
	s.Equal(report.ID, byFingerprint.ID)

	for _, key := range []string{"mrz:report:" + report.ID.String(), "mrz:fp:fp-redis"} {
		ttl, err := s.redis.Client.TTL(ctx, key).Result()
		s.Require().NoError(err)
		s.InDelta(time.Hour.Seconds(), ttl.Seconds(), 5, key)
	}
}

func (s *RedisReportStoreSuite) TestExpiredReportIsNotWritten() {
	now := time.Now()
	report := newReport("fp-stale", now.Add(-2*time.Hour))

	s.Require().NoError(s.store.Save(requestcontext.WithTime(context.Background(), now), report))

	_, err := s.store.FindByID(context.Background(), report.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisReportStoreSuite) TestMissing() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByFingerprint(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
