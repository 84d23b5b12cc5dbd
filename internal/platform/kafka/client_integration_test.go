//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"bondbook/internal/audit"
	"bondbook/internal/platform/config"
	"bondbook/internal/platform/kafka"
	"bondbook/pkg/testutil/containers"
)

type KafkaSuite struct {
	suite.Suite
	kafka *containers.KafkaContainer
}

func TestKafkaSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSuite))
}

func (s *KafkaSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
}

func (s *KafkaSuite) TestAuditEventRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "bondbook.audit.test"
	client, err := kafka.New(ctx, config.KafkaConfig{Brokers: s.kafka.Brokers, Topic: topic})
	s.Require().NoError(err)
	defer client.Close()

	s.Require().NoError(kafka.EnsureTopic(ctx, client, topic))
	s.Require().NoError(kafka.EnsureTopic(ctx, client, topic), "second call is a no-op")

	pub := audit.NewKafkaPublisher(client, topic)
	s.Require().NoError(pub.Emit(ctx, audit.Event{
		Type:    audit.EventBondCreated,
		OwnerID: "owner-1",
		ISIN:    "123451232513",
	}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.kafka.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())

	var got audit.Event
	fetches.EachRecord(func(r *kgo.Record) {
		_ = json.Unmarshal(r.Value, &got)
	})
	s.Equal(audit.EventBondCreated, got.Type)
	s.Equal("123451232513", got.ISIN)
}
