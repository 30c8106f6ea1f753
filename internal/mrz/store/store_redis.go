package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"mrzgate/internal/mrz/models"
	"mrzgate/pkg/platform/sentinel"
	"mrzgate/pkg/requestcontext"
)

const (
	reportKeyPrefix      = "mrz:report:"
	fingerprintKeyPrefix = "mrz:fp:"
)

// RedisReportStore keeps reports as JSON values that expire with the report.
type RedisReportStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisReportStore {
	return &RedisReportStore{client: client}
}

// Save writes the report and the fingerprint index in one pipeline.
func (s *RedisReportStore) Save(ctx context.Context, report *models.Report) error {
	ttl := report.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, reportKeyPrefix+report.ID.String(), payload, ttl)
	pipe.Set(ctx, fingerprintKeyPrefix+report.Fingerprint, report.ID.String(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *RedisReportStore) FindByID(ctx context.Context, id models.ReportID) (*models.Report, error) {
	return s.get(ctx, reportKeyPrefix+id.String())
}

func (s *RedisReportStore) FindByFingerprint(ctx context.Context, fingerprint string) (*models.Report, error) {
	id, err := s.client.Get(ctx, fingerprintKeyPrefix+fingerprint).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find report by fingerprint: %w", err)
	}
	return s.get(ctx, reportKeyPrefix+id)
}

func (s *RedisReportStore) get(ctx context.Context, key string) (*models.Report, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	var report models.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}
