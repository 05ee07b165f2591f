// Package stream publishes governance events to Kafka for the external
// notification and analytics pipelines. Delivery is fire-and-forget: a
// broker outage never blocks or rolls back a governance mutation.
package stream

import (
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

type KafkaStream struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

func New(kafkaServers string, logger *slog.Logger) (*KafkaStream, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": kafkaServers})
	if err != nil {
		return nil, err
	}

	st := &KafkaStream{
		producer: producer,
		logger:   logger,
	}

	// drain delivery reports so the producer's event channel never fills
	go func() {
		for e := range producer.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				st.logger.Error("kafka delivery failed",
					"topic", *m.TopicPartition.Topic,
					"error", m.TopicPartition.Error,
				)
			}
		}
	}()

	return st, nil
}

func (st *KafkaStream) Publish(topic, message string) error {
	return st.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          []byte(message),
	}, nil)
}

func (st *KafkaStream) Close() {
	st.producer.Flush(5000)
	st.producer.Close()
}
