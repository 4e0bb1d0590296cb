package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

// TopicConn is the part of kafka.Conn used to manage topics
type TopicConn interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

// ensureTopic creates topicName unless its partitions can be read. Partition
// reads are retried because a broker that just started may not answer yet.
func ensureTopic(conn TopicConn, topicName string, numPartitions int, replicationFactor int, log *slog.Logger) error {
	return ensureTopicWithBackoff(conn, topicName, numPartitions, replicationFactor, topicReadBackoff, log)
}

func ensureTopicWithBackoff(conn TopicConn, topicName string, numPartitions, replicationFactor int, backoff time.Duration, log *slog.Logger) error {
	var partitions []kafka.Partition
	var err error

	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		partitions, err = conn.ReadPartitions(topicName)
		if err == nil {
			break
		}
		log.Warn("Failed to read partitions, retrying...", "attempt", attempt, "error", err)
		time.Sleep(backoff)
	}

	if len(partitions) > 0 {
		log.Debug("Kafka topic already exists", "partitions", len(partitions))
		return nil
	}

	topicConfig := kafka.TopicConfig{
		Topic:             topicName,
		NumPartitions:     max(numPartitions, 1),
		ReplicationFactor: max(replicationFactor, 1),
	}
	log.Info("Creating Kafka topic",
		"partitions", topicConfig.NumPartitions,
		"replication_factor", topicConfig.ReplicationFactor,
		"last_read_error", err,
	)
	if err := conn.CreateTopics(topicConfig); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topicName, err)
	}
	return nil
}
