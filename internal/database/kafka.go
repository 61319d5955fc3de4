package database

import (
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriter builds a writer for submission events. Topics are set per message.
func NewKafkaWriter(brokers []string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers must not be empty")
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}, nil
}
