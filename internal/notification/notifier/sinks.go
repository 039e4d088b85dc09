package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	donormodels "helpinghands/internal/donor/models"
	"helpinghands/internal/notification/models"
)

// Message is the wire form published to external gateways.
type Message struct {
	Notification *models.Notification `json:"notification"`
	DonorName    string               `json:"donorName"`
	Phone        string               `json:"phone"`
	Email        string               `json:"email"`
}

func encode(n *models.Notification, donor *donormodels.Donor) ([]byte, error) {
	b, err := json.Marshal(Message{Notification: n, DonorName: donor.Name, Phone: donor.Phone, Email: donor.Email})
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return b, nil
}

// RedisSink publishes notifications on a pub/sub channel.
type RedisSink struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisSink(client redis.UniversalClient, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, n *models.Notification, donor *donormodels.Donor) error {
	payload, err := encode(n, donor)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.channel, err)
	}
	return nil
}

// Publisher writes keyed records to a topic.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
}

// KafkaSink produces notifications keyed by donor id so one donor's messages
// stay ordered within a partition.
type KafkaSink struct {
	producer Publisher
}

func NewKafkaSink(producer Publisher) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Deliver(ctx context.Context, n *models.Notification, donor *donormodels.Donor) error {
	payload, err := encode(n, donor)
	if err != nil {
		return err
	}
	return s.producer.Publish(ctx, []byte(n.DonorID.String()), payload)
}
