package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Producer interface defines the contract for publishing booking notifications
type Producer interface {
	PublishBookingConfirmed(ctx context.Context, msg *BookingConfirmed) error
	Close() error
}

// KafkaProducerConfig contains configuration for the Kafka producer
type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          []string{"localhost:9092"},
		Topic:            "booking-confirmations",
		RetryMax:         3,
		TimeoutMs:        10000,             // 10 seconds
		RequiredAcks:     sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaProducer publishes booking confirmations to Kafka
type KafkaProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
}

// NewKafkaProducer creates a new Kafka producer
func NewKafkaProducer(config *KafkaProducerConfig) (Producer, error) {
	saramaConfig := sarama.NewConfig()

	// Producer configuration
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites

	// Enable idempotent producer
	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Use hash partitioner for consistent routing based on booking id
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("📤 Kafka booking producer created successfully")
	return &KafkaProducer{
		producer: producer,
		config:   config,
	}, nil
}

// PublishBookingConfirmed publishes a single booking confirmation to Kafka
func (kp *KafkaProducer) PublishBookingConfirmed(ctx context.Context, msg *BookingConfirmed) error {
	messageBytes, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal booking confirmation: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: kp.config.Topic,
		Key:   sarama.StringEncoder(msg.PartitionKey()),
		Value: sarama.ByteEncoder(messageBytes),
		Headers: []sarama.RecordHeader{
			{Key: []byte("booking_id"), Value: []byte(fmt.Sprintf("%d", msg.BookingID))},
			{Key: []byte("order_code"), Value: []byte(fmt.Sprintf("%d", msg.OrderCode))},
			{Key: []byte("recipient_email"), Value: []byte(msg.BuyerEmail)},
			{Key: []byte("producer"), Value: []byte("thticket-payments")},
		},
		Timestamp: msg.ConfirmedAt,
	}

	partition, offset, err := kp.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send booking confirmation to Kafka: %w", err)
	}

	log.Printf("📤 Booking confirmation published - Topic: %s, Partition: %d, Offset: %d, Booking: %d",
		kp.config.Topic, partition, offset, msg.BookingID)

	return nil
}

// Close closes the Kafka producer
func (kp *KafkaProducer) Close() error {
	if kp.producer != nil {
		if err := kp.producer.Close(); err != nil {
			return fmt.Errorf("failed to close Kafka producer: %w", err)
		}
		log.Printf("📤 Kafka booking producer closed")
	}
	return nil
}

// NoopProducer is used when Kafka is disabled. Publishing succeeds without
// doing anything so settlement never depends on the broker being up.
type NoopProducer struct{}

func NewNoopProducer() Producer {
	return &NoopProducer{}
}

func (np *NoopProducer) PublishBookingConfirmed(ctx context.Context, msg *BookingConfirmed) error {
	return nil
}

func (np *NoopProducer) Close() error {
	return nil
}
