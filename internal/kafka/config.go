package kafka

import (
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Topic names for all kafka topics used in the application
const (
	TopicConfirmationReceived = "c2b.webhook.confirmation"

	TopicDLQ = "c2b.dlq"
)

// Event types for outbox
const (
	EventConfirmationReceived = "c2b.payment.confirmation.received"
)

// ConsumerGroup names for different Kafka consumers
const (
	GroupConfirmationWorker = "c2b.confirmation.worker"
)

type Config struct {
	Brokers           []string
	ProducerTimeout   time.Duration
	RequiredAcks      kgo.Acks
	SessionTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxPollRecords    int
	MaxRetries        int
	RetryBackoff      time.Duration
}

func DefaultConfig(brokers []string) *Config {
	return &Config{
		Brokers:           brokers,
		ProducerTimeout:   10 * time.Second,
		RequiredAcks:      kgo.AllISRAcks(),
		SessionTimeout:    10 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		MaxPollRecords:    100,
		MaxRetries:        5,
		RetryBackoff:      1 * time.Second,
	}
}
