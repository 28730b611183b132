package log

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

type KafkaAppenderOpt struct {
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic" yaml:"topic"`
}

// AddKafkaAppender ships log lines to a Kafka topic. Writes are asynchronous
// so logging never blocks on the broker.
func (m *MultiWriter) AddKafkaAppender(options KafkaAppenderOpt) error {
	if len(options.Brokers) == 0 {
		return fmt.Errorf("kafka appender requires brokers")
	}
	if options.Topic == "" {
		return fmt.Errorf("kafka appender requires a topic")
	}
	m.writers = append(m.writers, &kafkaWriterAdapter{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(options.Brokers...),
			Topic:                  options.Topic,
			Balancer:               &kafka.LeastBytes{},
			Async:                  true,
			AllowAutoTopicCreation: true,
		},
	})
	return nil
}

type kafkaWriterAdapter struct {
	writer *kafka.Writer
}

func (k *kafkaWriterAdapter) Write(p []byte) (int, error) {
	// logrus reuses the line buffer across entries
	value := append([]byte(nil), p...)
	if err := k.writer.WriteMessages(context.Background(), kafka.Message{Value: value}); err != nil {
		return 0, err
	}
	return len(p), nil
}
