// internal/app/poll_service.go
package app

import (
	"context"
	"errors"
	"fmt"

	"homework_status_bot/internal/domain/homework"
	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StatusFetcher retrieves the raw review-status payload for the window starting at fromDate.
type StatusFetcher interface {
	FetchStatuses(ctx context.Context, fromDate int64) (any, error)
}

// CycleWaiter blocks until the next poll cycle is due or ctx is done.
type CycleWaiter interface {
	Wait(ctx context.Context) error
}

// Outcome is the closed set of results of one poll cycle.
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeNoNewItems
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeNoNewItems:
		return "no_new_items"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CycleResult describes what a single poll cycle did.
type CycleResult struct {
	Outcome Outcome
	Sent    int           // status messages handed to the messaging client
	Err     error         // set when Outcome is OutcomeFailed
	Kind    homework.Kind // classification of Err
	// Notified is true when a failure summary was sent for Err.
	Notified bool
}

// PollConfig carries the per-instance settings of the poll loop.
type PollConfig struct {
	RecipientChatID int64
	StartCursor     int64
	Catalog         homework.Catalog
}

// PollService owns the poll cursor and the failure record and runs the
// poll-validate-notify loop. It is not safe for concurrent use; one goroutine drives it.
type PollService struct {
	fetcher        StatusFetcher
	telegramClient domainTelegram.Client
	waiter         CycleWaiter
	logger         *logrus.Entry
	recipientID    int64
	catalog        homework.Catalog
	heartbeat      func(CycleResult)

	cursor int64
	dedup  *Deduplicator
}

func NewPollService(
	fetcher StatusFetcher,
	tc domainTelegram.Client,
	waiter CycleWaiter,
	logger *logrus.Entry,
	cfg PollConfig,
) *PollService {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = homework.DefaultCatalog()
	}
	return &PollService{
		fetcher:        fetcher,
		telegramClient: tc,
		waiter:         waiter,
		logger:         logger,
		recipientID:    cfg.RecipientChatID,
		catalog:        catalog,
		cursor:         cfg.StartCursor,
		dedup:          NewDeduplicator(),
	}
}

// OnCycle registers a callback invoked after every completed cycle.
func (s *PollService) OnCycle(fn func(CycleResult)) {
	s.heartbeat = fn
}

// Cursor returns the lower bound of the next poll window.
func (s *PollService) Cursor() int64 {
	return s.cursor
}

// LastFailure returns the kind of the most recently surfaced failure.
func (s *PollService) LastFailure() homework.Kind {
	return s.dedup.Last()
}

// Run polls until ctx is cancelled. It always returns a non-nil error: ctx.Err()
// on shutdown, or the waiter's error.
func (s *PollService) Run(ctx context.Context) error {
	s.logger.WithField("from_date", s.cursor).Info("Poll loop started")
	for {
		result := s.RunCycle(ctx)
		if s.heartbeat != nil {
			s.heartbeat(result)
		}
		if err := ctx.Err(); err != nil {
			s.logger.Info("Poll loop stopped")
			return err
		}
		if err := s.waiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Poll loop stopped")
			} else {
				s.logger.WithError(err).Error("Cycle scheduler failed, stopping poll loop")
			}
			return err
		}
	}
}

// RunCycle performs one fetch-validate-notify pass.
func (s *PollService) RunCycle(ctx context.Context) CycleResult {
	logCtx := s.logger.WithFields(logrus.Fields{
		"cycle_id":  uuid.NewString(),
		"from_date": s.cursor,
	})
	logCtx.Debug("Polling review statuses")

	raw, err := s.fetcher.FetchStatuses(ctx, s.cursor)
	if err != nil {
		if !errors.Is(err, homework.ErrEndpoint) {
			err = fmt.Errorf("%w: %w", homework.ErrEndpoint, err)
		}
		return s.handleFailure(ctx, logCtx, err, 0)
	}

	batch, err := homework.ValidateResponse(raw)
	if err != nil {
		return s.handleFailure(ctx, logCtx, err, 0)
	}
	if batch.NoNewItems {
		logCtx.Debug("Нет новых статусов")
		return CycleResult{Outcome: OutcomeNoNewItems}
	}

	sent := 0
	for i, item := range batch.Items {
		message, err := homework.ParseStatus(item, s.catalog)
		if err != nil {
			return s.handleFailure(ctx, logCtx.WithField("item_index", i), err, sent)
		}
		s.send(ctx, logCtx, message)
		sent++
	}

	s.advanceCursor(logCtx, batch.CurrentDate)
	s.dedup.Reset()
	logCtx.WithField("sent", sent).Info("Poll cycle completed")
	return CycleResult{Outcome: OutcomeDelivered, Sent: sent}
}

// handleFailure logs the failure and sends a summary unless the same kind was already surfaced.
// The cursor is left untouched so the window is retried.
func (s *PollService) handleFailure(ctx context.Context, logCtx *logrus.Entry, err error, sent int) CycleResult {
	kind := homework.Classify(err)
	result := CycleResult{Outcome: OutcomeFailed, Sent: sent, Err: err, Kind: kind}

	if ctx.Err() != nil {
		// Shutting down; an interrupted request is not an outage.
		logCtx.WithError(err).Info("Poll cycle interrupted")
		return result
	}

	logCtx = logCtx.WithFields(logrus.Fields{"kind": kind, "sent": sent}).WithError(err)
	logCtx.Error("Сбой в работе программы")

	if !s.dedup.ShouldNotify(kind) {
		logCtx.Debug("Failure of this kind already reported, notification suppressed")
		return result
	}
	s.send(ctx, logCtx, fmt.Sprintf("Сбой в работе программы: %v", err))
	result.Notified = true
	return result
}

// send is fire-and-forget: failures are logged, never retried.
func (s *PollService) send(ctx context.Context, logCtx *logrus.Entry, text string) {
	if err := s.telegramClient.SendMessage(ctx, s.recipientID, text); err != nil {
		logCtx.WithError(err).WithField("chat_id", s.recipientID).Error("Сбой при отправке сообщения")
		return
	}
	logCtx.WithField("chat_id", s.recipientID).Info("Успешная отправка сообщения")
}

func (s *PollService) advanceCursor(logCtx *logrus.Entry, currentDate int64) {
	if currentDate <= s.cursor {
		logCtx.WithFields(logrus.Fields{"cursor": s.cursor, "current_date": currentDate}).
			Debug("current_date does not move the cursor forward, keeping it")
		return
	}
	s.cursor = currentDate
	logCtx.WithField("cursor", s.cursor).Debug("Poll cursor advanced")
}
