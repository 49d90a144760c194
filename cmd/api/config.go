package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rakishiii/production-scheduler/pkg/kafka"
	"github.com/Rakishiii/production-scheduler/pkg/mongodb"
)

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config

	// ShopFloorFile overrides the built-in routing and resource catalog
	ShopFloorFile     string
	AllowDateOverride bool
	StagePrecedence   bool
	SkipCompleted     bool
	OutboxInterval    time.Duration
	RequestTimeout    time.Duration
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "production_db"),
			AppName:        serviceName,
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    uint64(getEnvInt("MONGODB_MAX_POOL_SIZE", 0)),
			ReplicaSet:     getEnv("MONGODB_REPLICA_SET", ""),
		},
		Kafka: &kafka.Config{
			Brokers:      strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			ClientID:     serviceName,
			BatchSize:    100,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: -1,
			WriteTimeout: 10 * time.Second,

			CreateTopics:      getEnvBool("KAFKA_CREATE_TOPICS", false),
			ReplicationFactor: getEnvInt("KAFKA_REPLICATION_FACTOR", 1),
		},
		ShopFloorFile:     getEnv("SHOPFLOOR_CONFIG", ""),
		AllowDateOverride: getEnvBool("ALLOW_DATE_OVERRIDE", true),
		StagePrecedence:   getEnvBool("SCHEDULE_STAGE_PRECEDENCE", false),
		SkipCompleted:     getEnvBool("SCHEDULE_SKIP_COMPLETED", false),
		OutboxInterval:    getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
