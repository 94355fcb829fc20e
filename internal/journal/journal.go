// Package journal keeps a replayable history of batch summaries on a
// RabbitMQ stream.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/amqp"
	"github.com/rabbitmq/rabbitmq-stream-go-client/pkg/stream"

	"github.com/vatsal3003/imgderive/pkg/models"
)

// storeEvery is how many replayed summaries pass between offset commits.
const storeEvery = 10

type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Stream   string
}

type Journal struct {
	env      *stream.Environment
	producer *stream.Producer
	stream   string
	logger   *slog.Logger
}

// Open connects to the stream broker and declares the journal stream.
func Open(opts Options, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	env, err := stream.NewEnvironment(
		stream.NewEnvironmentOptions().
			SetHost(opts.Host).
			SetPort(opts.Port).
			SetUser(opts.User).
			SetPassword(opts.Password))
	if err != nil {
		return nil, fmt.Errorf("failed to create stream environment: %w", err)
	}

	err = env.DeclareStream(opts.Stream,
		&stream.StreamOptions{
			MaxLengthBytes: stream.ByteCapacity{}.GB(2),
		},
	)
	if err != nil && !errors.Is(err, stream.StreamAlreadyExists) {
		env.Close()
		return nil, fmt.Errorf("failed to declare stream: %w", err)
	}

	return &Journal{env: env, stream: opts.Stream, logger: logger}, nil
}

func (j *Journal) Close() error {
	if j.producer != nil {
		if err := j.producer.Close(); err != nil {
			j.logger.Warn("failed to close journal producer", "error", err)
		}
	}
	return j.env.Close()
}

// Append records s at the tail of the journal.
func (j *Journal) Append(s models.BatchSummary) error {
	if j.producer == nil {
		producer, err := j.env.NewProducer(j.stream, stream.NewProducerOptions())
		if err != nil {
			return fmt.Errorf("failed to create producer: %w", err)
		}
		j.producer = producer
	}

	body, err := encode(s)
	if err != nil {
		return err
	}
	if err := j.producer.Send(amqp.NewMessage(body)); err != nil {
		return fmt.Errorf("failed to append summary %s: %w", s.JobID, err)
	}
	return nil
}

// Follow hands every summary after the last one consumerName saw to fn,
// then keeps delivering new ones until ctx is cancelled. fn runs on the
// client's delivery goroutine.
func (j *Journal) Follow(ctx context.Context, consumerName string, fn func(models.BatchSummary)) error {
	stored, err := j.env.QueryOffset(consumerName, j.stream)
	offset, err := startOffset(stored, err)
	if err != nil {
		return fmt.Errorf("failed to query offset: %w", err)
	}

	var seen atomic.Int64
	handler := func(consumerContext stream.ConsumerContext, message *amqp.Message) {
		s, err := decode(message.GetData())
		if err != nil {
			j.logger.Warn("skipping malformed journal entry", "offset", consumerContext.Consumer.GetOffset(), "error", err)
		} else {
			fn(s)
		}
		if seen.Add(1)%storeEvery == 0 {
			_ = consumerContext.Consumer.StoreOffset()
		}
	}

	consumer, err := j.env.NewConsumer(j.stream, handler,
		stream.NewConsumerOptions().
			SetManualCommit().
			SetConsumerName(consumerName).
			SetOffset(offset))
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	<-ctx.Done()
	if seen.Load() > 0 {
		if err := consumer.StoreOffset(); err != nil {
			j.logger.Warn("failed to store journal offset", "error", err)
		}
	}
	return consumer.Close()
}

// startOffset resumes after a stored offset, or from the first entry when
// the consumer has never committed one.
func startOffset(stored int64, err error) (stream.OffsetSpecification, error) {
	if errors.Is(err, stream.OffsetNotFoundError) {
		return stream.OffsetSpecification{}.First(), nil
	}
	if err != nil {
		return stream.OffsetSpecification{}, err
	}
	return stream.OffsetSpecification{}.Offset(stored + 1), nil
}

func encode(s models.BatchSummary) ([]byte, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	return body, nil
}

func decode(body []byte) (models.BatchSummary, error) {
	var s models.BatchSummary
	if err := json.Unmarshal(body, &s); err != nil {
		return models.BatchSummary{}, err
	}
	if s.JobID == "" {
		return models.BatchSummary{}, errors.New("summary has no job id")
	}
	return s, nil
}
