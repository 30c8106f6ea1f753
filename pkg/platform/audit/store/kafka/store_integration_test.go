//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "mrzgate/pkg/platform/audit"
	"mrzgate/pkg/platform/audit/store/kafka"
	"mrzgate/pkg/testutil/containers"
)

type KafkaStoreSuite struct {
	suite.Suite
	brokers []string
}

func TestKafkaStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaStoreSuite))
}

func (s *KafkaStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.brokers = []string{mgr.GetRedpanda(s.T()).Broker}
}

func (s *KafkaStoreSuite) TestAppendProducesKeyedRecord() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "mrzgate.audit.test"
	store, err := kafka.New(ctx, kafka.Config{Brokers: s.brokers, Topic: topic})
	s.Require().NoError(err)
	defer store.Close()

	// Creating twice must tolerate the existing topic.
	again, err := kafka.New(ctx, kafka.Config{Brokers: s.brokers, Topic: topic})
	s.Require().NoError(err)
	again.Close()

	event := audit.Event{
		Category:     audit.CategoryOperations,
		Timestamp:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Action:       string(audit.EventMRZValidated),
		Subject:      "fp-1234",
		DocumentKind: "PASSPORT",
		Outcome:      "valid",
	}
	s.Require().NoError(store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())

	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal("fp-1234", string(records[0].Key))

	got, err := kafka.Decode(records[0].Value)
	s.Require().NoError(err)
	s.Equal(event, got)
}
