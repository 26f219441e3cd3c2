package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/aradsms/alive5_connector/internal/alive5_connector/domain"
	"github.com/google/uuid"
)

// SMSSender posts one send request to the provider.
type SMSSender interface {
	SendSMS(ctx context.Context, creds domain.Credentials, req domain.SendRequest) (*domain.SendResult, error)
}

// Execution is the ordered outcome of one batch of input items.
type Execution struct {
	ID      string
	Results []domain.ItemResult
}

func (e *Execution) Succeeded() int {
	n := 0
	for _, r := range e.Results {
		if r.Succeeded() {
			n++
		}
	}
	return n
}

func (e *Execution) Failed() int {
	return len(e.Results) - e.Succeeded()
}

// Dispatcher sends one SMS per input item, resolving the sender number from the channel directory.
type Dispatcher struct {
	fetcher DirectoryFetcher
	sender  SMSSender
	logger  *slog.Logger
}

func NewDispatcher(fetcher DirectoryFetcher, sender SMSSender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		fetcher: fetcher,
		sender:  sender,
		logger:  logger.With("service", "alive5_dispatcher"),
	}
}

// Execute processes items strictly in order. With continueOnFail, failed items are recorded
// in place and processing goes on; otherwise the first failure is returned as a *domain.ItemError
// together with the results produced so far.
func (d *Dispatcher) Execute(ctx context.Context, creds domain.Credentials, items []domain.InputItem, continueOnFail bool) (*Execution, error) {
	exec := &Execution{ID: uuid.NewString(), Results: make([]domain.ItemResult, 0, len(items))}
	logger := d.logger.With("execution_id", exec.ID)
	logger.InfoContext(ctx, "Starting execution", "items", len(items), "continue_on_fail", continueOnFail)

	start := time.Now()
	dir := &lazyDirectory{fetcher: d.fetcher, creds: creds}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			executionDurationHist.WithLabelValues("aborted").Observe(time.Since(start).Seconds())
			return exec, &domain.ItemError{ItemIndex: i, Err: err}
		}

		result := d.processItem(ctx, logger, dir, creds, i, item)
		itemsProcessedCounter.WithLabelValues(string(result.Status), domain.ErrorKind(result.Err)).Inc()

		if result.Err != nil && !continueOnFail {
			logger.ErrorContext(ctx, "Aborting execution on item failure", "item_index", i, "error", result.Err)
			executionDurationHist.WithLabelValues("aborted").Observe(time.Since(start).Seconds())
			return exec, &domain.ItemError{ItemIndex: i, Err: result.Err}
		}
		exec.Results = append(exec.Results, result)
	}

	executionDurationHist.WithLabelValues("completed").Observe(time.Since(start).Seconds())
	logger.InfoContext(ctx, "Execution finished", "succeeded", exec.Succeeded(), "failed", exec.Failed())
	return exec, nil
}

func (d *Dispatcher) processItem(ctx context.Context, logger *slog.Logger, dir *lazyDirectory, creds domain.Credentials, index int, item domain.InputItem) domain.ItemResult {
	result := domain.ItemResult{ItemIndex: index, Status: domain.ItemStatusPending}
	fail := func(err error) domain.ItemResult {
		logger.WarnContext(ctx, "Item failed", "item_index", index, "stage", result.Status, "error_kind", domain.ErrorKind(err), "error", err)
		result.Status = domain.ItemStatusFailed
		result.Err = err
		result.Input = item.JSON
		return result
	}

	result.Status = domain.ItemStatusValidating
	if err := domain.ValidateE164(domain.PhoneFieldTo, item.PhoneNumberTo); err != nil {
		return fail(err)
	}

	result.Status = domain.ItemStatusResolvingChannel
	if item.ChannelID == "" {
		return fail(&domain.ChannelNotFoundError{ChannelID: item.ChannelID})
	}
	directory, err := dir.get(ctx)
	if err != nil {
		return fail(err)
	}
	channel, ok := directory.Find(item.ChannelID)
	if !ok {
		return fail(&domain.ChannelNotFoundError{ChannelID: item.ChannelID})
	}

	result.Status = domain.ItemStatusValidating
	if err := domain.ValidateE164(domain.PhoneFieldFrom, channel.PhoneNumber); err != nil {
		return fail(err)
	}

	result.Status = domain.ItemStatusSending
	sendStart := time.Now()
	res, err := d.sender.SendSMS(ctx, creds, domain.SendRequest{
		PhoneNumberFrom: channel.PhoneNumber,
		PhoneNumberTo:   item.PhoneNumberTo,
		Message:         item.Message,
		ChannelID:       item.ChannelID,
		UserID:          item.UserID,
	})
	elapsed := time.Since(sendStart)
	if err != nil {
		return fail(err)
	}

	logger.InfoContext(ctx, "Item sent", "item_index", index, "channel_id", item.ChannelID, "duration", elapsed)
	result.Status = domain.ItemStatusCompleted
	result.Response = res.Response
	return result
}

// lazyDirectory fetches the directory at most once per execution. A failed fetch is retried
// by the next item that needs it.
type lazyDirectory struct {
	fetcher DirectoryFetcher
	creds   domain.Credentials
	dir     domain.Directory
	loaded  bool
}

func (l *lazyDirectory) get(ctx context.Context) (domain.Directory, error) {
	if l.loaded {
		return l.dir, nil
	}
	dir, err := l.fetcher.FetchDirectory(ctx, l.creds)
	if err != nil {
		return nil, err
	}
	l.dir, l.loaded = dir, true
	return dir, nil
}
