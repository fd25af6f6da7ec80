package kafka

import (
	"bin-option/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type Producer interface {
	SendForecastEvent(ctx context.Context, event models.ForecastEvent) error
	Close() error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

func NewKafkaProducer(brokers []string, topic string, log *slog.Logger) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("kafka producer создан", slog.String("topic", topic), slog.Any("brokers", brokers))

	return newKafkaProducer(producer, topic, log), nil
}

func newKafkaProducer(producer sarama.SyncProducer, topic string, log *slog.Logger) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

func (p *KafkaProducer) SendForecastEvent(ctx context.Context, event models.ForecastEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Key()),
		Value: sarama.ByteEncoder(eventData),
	}

	type result struct {
		partition int32
		offset    int64
		err       error
	}

	resultCh := make(chan result, 1)

	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		resultCh <- result{partition, offset, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			p.log.Error("kafka send failed",
				slog.String("rate_id", event.RateID.String()),
				slog.Int("model_no", event.ModelNo),
				slog.String("error", res.err.Error()))
			return res.err
		}
		p.log.Debug("kafka send success",
			slog.String("rate_id", event.RateID.String()),
			slog.String("status", string(event.Status)),
			slog.Int("partition", int(res.partition)),
			slog.Int64("offset", res.offset))
		return nil

	case <-ctx.Done():
		p.log.Warn("kafka send cancelled",
			slog.String("rate_id", event.RateID.String()))
		return ctx.Err()
	}
}

func (p *KafkaProducer) Close() error {
	if p.producer == nil {
		return nil
	}
	p.log.Info("закрытие kafka producer")
	return p.producer.Close()
}

type NoOpProducer struct {
	log *slog.Logger
}

func NewNoOpProducer(log *slog.Logger) Producer {
	return &NoOpProducer{log: log}
}

func (p *NoOpProducer) SendForecastEvent(ctx context.Context, event models.ForecastEvent) error {
	p.log.Debug("kafka отключен, событие не отправлено",
		slog.String("rate_id", event.RateID.String()),
		slog.String("status", string(event.Status)))
	return nil
}

func (p *NoOpProducer) Close() error {
	return nil
}
