package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vatsal3003/imgderive/pkg/models"
)

const publishTimeout = 5 * time.Second

// JobHandler runs one batch job and returns the summary sent back to the publisher.
type JobHandler func(ctx context.Context, job models.BatchJob) models.BatchSummary

type RabbitMQClient struct {
	conn             *amqp.Connection
	channel          *amqp.Channel
	queueName        string
	progressExchange string
	logger           *slog.Logger
}

func NewRabbitMQClient(url, queueName, progressExchange string, logger *slog.Logger) (*RabbitMQClient, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	err = ch.ExchangeDeclare(
		progressExchange, // name
		"fanout",         // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare an exchange: %w", err)
	}

	return &RabbitMQClient{
		conn:             conn,
		channel:          ch,
		queueName:        queueName,
		progressExchange: progressExchange,
		logger:           logger,
	}, nil
}

func (c *RabbitMQClient) Close() {
	if c.channel != nil {
		c.channel.Close()
	}

	if c.conn != nil {
		c.conn.Close()
	}
}

// PublishJob enqueues job. A non-empty replyTo asks the worker to send the
// batch summary to that queue.
func (c *RabbitMQClient) PublishJob(ctx context.Context, job models.BatchJob, replyTo string) error {
	msg, err := jobMessage(job, replyTo)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		"",          // exchange
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	return nil
}

// PublishProgress broadcasts one progress tick on the fanout exchange.
func (c *RabbitMQClient) PublishProgress(ctx context.Context, p models.Progress) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.progressExchange, // exchange
		"",                 // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish progress: %w", err)
	}
	return nil
}

// SubscribeProgress binds a private queue to the progress exchange. The
// returned channel closes when the connection does.
func (c *RabbitMQClient) SubscribeProgress() (<-chan models.Progress, error) {
	q, err := c.channel.QueueDeclare(
		"",    // name, generated by the broker
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}

	err = c.channel.QueueBind(
		q.Name,             // queue name
		"",                 // routing key
		c.progressExchange, // exchange
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to bind a queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		q.Name, // queue
		"",     // consumer
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	out := make(chan models.Progress)
	go func() {
		defer close(out)
		for d := range msgs {
			var p models.Progress
			if err := json.Unmarshal(d.Body, &p); err != nil {
				c.logger.Warn("dropping malformed progress message", "error", err)
				continue
			}
			out <- p
		}
	}()
	return out, nil
}

// DeclareReplyQueue creates a private queue for batch summaries.
func (c *RabbitMQClient) DeclareReplyQueue() (string, error) {
	q, err := c.channel.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return "", fmt.Errorf("failed to declare reply queue: %w", err)
	}
	return q.Name, nil
}

// AwaitSummary waits on replyTo for the summary of jobID.
func (c *RabbitMQClient) AwaitSummary(ctx context.Context, replyTo, jobID string) (models.BatchSummary, error) {
	msgs, err := c.channel.Consume(
		replyTo, // queue
		"",      // consumer
		true,    // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return models.BatchSummary{}, fmt.Errorf("failed to register a consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return models.BatchSummary{}, ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return models.BatchSummary{}, errors.New("reply channel closed")
			}
			if d.CorrelationId != jobID {
				continue
			}
			var s models.BatchSummary
			if err := json.Unmarshal(d.Body, &s); err != nil {
				return models.BatchSummary{}, fmt.Errorf("failed to unmarshal summary: %w", err)
			}
			return s, nil
		}
	}
}

// ConsumeJobs runs handle for each queued job, one at a time, until ctx is
// cancelled or the broker closes the channel.
func (c *RabbitMQClient) ConsumeJobs(ctx context.Context, handle JobHandler) error {
	err := c.channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("worker started, waiting for jobs", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("worker shutting down")
			return nil
		case d, ok := <-msgs:
			if !ok {
				c.logger.Info("channel closed")
				return nil
			}

			job, err := decodeJob(d.Body)
			if err != nil {
				c.logger.Error("failed to unmarshal job", "error", err)
				d.Ack(false)
				continue
			}

			summary := handle(ctx, job)
			if summary.Error != "" {
				c.logger.Error("failed to process job", "job_id", job.JobID, "error", summary.Error)
			} else {
				c.logger.Info("successfully processed job", "job_id", job.JobID, "batch_id", summary.BatchID)
			}

			if d.ReplyTo != "" {
				if err := c.reply(ctx, d, summary); err != nil {
					c.logger.Error("failed to reply", "job_id", job.JobID, "error", err)
				}
			}
			d.Ack(false)
		}
	}
}

func (c *RabbitMQClient) reply(ctx context.Context, d amqp.Delivery, summary models.BatchSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return c.channel.PublishWithContext(
		ctx,
		"",        // exchange
		d.ReplyTo, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: d.CorrelationId,
			Body:          body,
		})
}

func jobMessage(job models.BatchJob, replyTo string) (amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal job: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		CorrelationId: job.JobID,
		ReplyTo:       replyTo,
		Body:          body,
	}, nil
}

func decodeJob(body []byte) (models.BatchJob, error) {
	var job models.BatchJob
	if err := json.Unmarshal(body, &job); err != nil {
		return models.BatchJob{}, err
	}
	if job.JobID == "" {
		return models.BatchJob{}, errors.New("job has no id")
	}
	if len(job.ImagePaths) == 0 {
		return models.BatchJob{}, fmt.Errorf("job %s has no images", job.JobID)
	}
	return job, nil
}
