package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/go-playground/validator/v10"
	"github.com/nats-io/nats.go"
)

// Subscriber is the part of messagebroker.NatsClient the consumer needs.
type Subscriber interface {
	Subscribe(ctx context.Context, subject, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// Executor runs a batch of input items.
type Executor interface {
	Execute(ctx context.Context, creds domain.Credentials, items []domain.InputItem, continueOnFail bool) (*Execution, error)
}

// JobConsumer accepts execute requests over NATS and replies with the execute response.
type JobConsumer struct {
	subscriber Subscriber
	executor   Executor
	defaults   domain.Credentials
	validate   *validator.Validate
	jobTimeout time.Duration
	logger     *slog.Logger
	sub        *nats.Subscription
}

func NewJobConsumer(subscriber Subscriber, executor Executor, defaults domain.Credentials, validate *validator.Validate, jobTimeout time.Duration, logger *slog.Logger) *JobConsumer {
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}
	return &JobConsumer{
		subscriber: subscriber,
		executor:   executor,
		defaults:   defaults,
		validate:   validate,
		jobTimeout: jobTimeout,
		logger:     logger.With("service", "alive5_job_consumer"),
	}
}

// Start subscribes to subject within queueGroup.
func (c *JobConsumer) Start(ctx context.Context, subject, queueGroup string) error {
	if c.subscriber == nil {
		return errors.New("NATS client not initialized in JobConsumer")
	}
	c.logger.Info("Starting NATS execute consumer", "subject", subject, "queue_group", queueGroup)

	sub, err := c.subscriber.Subscribe(ctx, subject, queueGroup, c.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to NATS subject '%s': %w", subject, err)
	}
	c.sub = sub
	return nil
}

// Stop unsubscribes from the execute subject.
func (c *JobConsumer) Stop() {
	if c.sub == nil {
		return
	}
	if err := c.sub.Unsubscribe(); err != nil {
		c.logger.Warn("Failed to unsubscribe NATS consumer", "error", err)
	}
	c.sub = nil
}

func (c *JobConsumer) handleMessage(msg *nats.Msg) {
	natsJobsReceivedCounter.WithLabelValues(msg.Subject).Inc()
	c.logger.Info("Received NATS execute job", "subject", msg.Subject, "data_len", len(msg.Data))

	ctx, cancel := context.WithTimeout(context.Background(), c.jobTimeout)
	defer cancel()

	resp := c.process(ctx, msg.Data)
	if msg.Reply == "" {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("Failed to marshal execute response", "error", err)
		return
	}
	if err := msg.Respond(payload); err != nil {
		c.logger.Error("Failed to reply to NATS execute job", "error", err, "reply", msg.Reply)
	}
}

func (c *JobConsumer) process(ctx context.Context, data []byte) ExecuteResponse {
	var req ExecuteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.logger.ErrorContext(ctx, "Failed to unmarshal NATS execute job", "error", err)
		return ExecuteResponse{Error: "invalid job payload: " + err.Error(), ErrorKind: "invalid_request"}
	}
	if err := c.validate.Struct(req); err != nil {
		c.logger.WarnContext(ctx, "NATS execute job failed validation", "error", err)
		return ExecuteResponse{Error: "invalid job payload: " + err.Error(), ErrorKind: "invalid_request"}
	}

	creds, err := domain.Credentials{APIKey: req.APIKey, BaseURL: req.BaseURL}.Resolve(c.defaults)
	if err != nil {
		c.logger.WarnContext(ctx, "NATS execute job rejected", "node_id", req.NodeID, "error", err)
		return ExecuteResponse{Error: "invalid job payload: " + err.Error(), ErrorKind: domain.ErrorKind(err)}
	}
	exec, err := c.executor.Execute(ctx, creds, req.InputItems(), req.ContinueOnFail)
	if err != nil {
		c.logger.WarnContext(ctx, "NATS execute job aborted", "node_id", req.NodeID, "error", err)
	}
	return NewExecuteResponse(exec, err)
}
