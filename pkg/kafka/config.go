package kafka

import (
	"time"
)

// Config holds Kafka producer configuration
type Config struct {
	Brokers  []string
	ClientID string

	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: none, 1: leader, -1: all in-sync replicas
	WriteTimeout time.Duration

	// CreateTopics provisions DefaultTopicConfigs on startup
	CreateTopics      bool
	ReplicationFactor int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "production-scheduler",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 10 * time.Second,

		ReplicationFactor: 1,
	}
}

// Topics contains the production Kafka topic names
var Topics = struct {
	ProductionEvents string
}{
	ProductionEvents: "production.orders.events",
}

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopicConfigs returns default configurations for the production topics
func DefaultTopicConfigs(replicationFactor int) []TopicConfig {
	if replicationFactor < 1 {
		replicationFactor = 1
	}
	return []TopicConfig{
		// keyed by order id, so per-order ordering holds within a partition
		{Name: Topics.ProductionEvents, Partitions: 6, ReplicationFactor: replicationFactor, RetentionMs: 14 * 24 * 60 * 60 * 1000},
	}
}
