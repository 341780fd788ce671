package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeFetcher returns the queued responses in order, repeating the last one.
type fakeFetcher struct {
	responses []fetchResponse
	calls     []int64
}

type fetchResponse struct {
	body string
	err  error
}

func (f *fakeFetcher) FetchStatuses(_ context.Context, fromDate int64) (any, error) {
	f.calls = append(f.calls, fromDate)
	idx := len(f.calls) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	r := f.responses[idx]
	if r.err != nil {
		return nil, r.err
	}
	dec := json.NewDecoder(strings.NewReader(r.body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	sent []sentMessage
	err  error
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

// countingWaiter cancels the loop after limit waits.
type countingWaiter struct {
	waits  int
	limit  int
	cancel context.CancelFunc
}

func (w *countingWaiter) Wait(ctx context.Context) error {
	w.waits++
	if w.waits >= w.limit {
		w.cancel()
		return ctx.Err()
	}
	return nil
}

const testChatID int64 = 4242

func newTestService(fetcher StatusFetcher, tg *fakeTelegram, start int64) (*PollService, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	svc := NewPollService(fetcher, tg, nil, logrus.NewEntry(logger), PollConfig{
		RecipientChatID: testChatID,
		StartCursor:     start,
	})
	return svc, hook
}

func TestRunCycle_DeliversApprovedHomework(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{body: `{"homeworks": [{"name": "hw1", "status": "approved"}], "current_date": 1000}`},
	}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, 500)

	result := svc.RunCycle(context.Background())

	if result.Outcome != OutcomeDelivered {
		t.Fatalf("expected delivered, got %s (err=%v)", result.Outcome, result.Err)
	}
	if len(tg.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(tg.sent))
	}
	msg := tg.sent[0]
	if msg.chatID != testChatID {
		t.Errorf("expected chat %d, got %d", testChatID, msg.chatID)
	}
	if !strings.Contains(msg.text, "hw1") || !strings.Contains(msg.text, "Ура!") {
		t.Errorf("unexpected message text %q", msg.text)
	}
	if svc.Cursor() != 1000 {
		t.Errorf("expected cursor 1000, got %d", svc.Cursor())
	}
	if fetcher.calls[0] != 500 {
		t.Errorf("expected first poll from 500, got %d", fetcher.calls[0])
	}
}

func TestRunCycle_EmptyHomeworksSendsNothing(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{body: `{"homeworks": [], "current_date": 1000}`},
	}}
	tg := &fakeTelegram{}
	svc, hook := newTestService(fetcher, tg, 500)

	result := svc.RunCycle(context.Background())

	if result.Outcome != OutcomeNoNewItems {
		t.Fatalf("expected no_new_items, got %s", result.Outcome)
	}
	if len(tg.sent) != 0 {
		t.Errorf("expected no messages, got %d", len(tg.sent))
	}
	if svc.Cursor() != 500 {
		t.Errorf("expected cursor to stay at 500, got %d", svc.Cursor())
	}
	for _, entry := range hook.AllEntries() {
		if entry.Level < logrus.DebugLevel {
			t.Errorf("expected debug logs only, got %s: %s", entry.Level, entry.Message)
		}
	}
}

func TestRunCycle_EmptyHomeworksDoesNotTouchFailureRecord(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{err: errors.New("connection refused")},
		{body: `{"homeworks": [], "current_date": 1000}`},
		{err: errors.New("connection refused")},
	}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, 0)

	for i := 0; i < 3; i++ {
		svc.RunCycle(context.Background())
	}

	if len(tg.sent) != 1 {
		t.Fatalf("expected a single failure notification, got %d", len(tg.sent))
	}
	if svc.LastFailure() != homework.KindEndpoint {
		t.Errorf("expected endpoint failure on record, got %s", svc.LastFailure())
	}
}

func TestRunCycle_EndpointErrorsAreDeduplicated(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{err: errors.New("status 503")},
	}}
	tg := &fakeTelegram{}
	svc, hook := newTestService(fetcher, tg, 500)

	var results []CycleResult
	for i := 0; i < 3; i++ {
		results = append(results, svc.RunCycle(context.Background()))
	}

	if len(tg.sent) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(tg.sent))
	}
	if !strings.HasPrefix(tg.sent[0].text, "Сбой в работе программы: ") {
		t.Errorf("unexpected failure text %q", tg.sent[0].text)
	}
	for i, r := range results {
		if r.Outcome != OutcomeFailed || r.Kind != homework.KindEndpoint {
			t.Errorf("cycle %d: unexpected result %+v", i, r)
		}
		if r.Notified != (i == 0) {
			t.Errorf("cycle %d: notified=%v", i, r.Notified)
		}
	}
	if svc.Cursor() != 500 {
		t.Errorf("cursor must not move on failure, got %d", svc.Cursor())
	}

	errorLogs := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			errorLogs++
		}
	}
	if errorLogs != 3 {
		t.Errorf("expected every failure to be logged at error level, got %d error entries", errorLogs)
	}
}

func TestRunCycle_DifferentKindsEachNotify(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{err: errors.New("timeout")},
		{body: `{"items": []}`},
	}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, 0)

	first := svc.RunCycle(context.Background())
	second := svc.RunCycle(context.Background())

	if first.Kind != homework.KindEndpoint || second.Kind != homework.KindMalformedResponse {
		t.Fatalf("unexpected kinds %s, %s", first.Kind, second.Kind)
	}
	if len(tg.sent) != 2 {
		t.Errorf("expected 2 notifications, got %d", len(tg.sent))
	}
}

func TestRunCycle_SuccessResetsFailureRecord(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{err: errors.New("timeout")},
		{body: `{"homeworks": [{"homework_name": "hw1", "status": "reviewing"}], "current_date": 1000}`},
		{err: errors.New("timeout")},
	}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, 0)

	for i := 0; i < 3; i++ {
		svc.RunCycle(context.Background())
	}

	var failures int
	for _, m := range tg.sent {
		if strings.HasPrefix(m.text, "Сбой в работе программы") {
			failures++
		}
	}
	if failures != 2 {
		t.Errorf("expected 2 failure notifications, got %d", failures)
	}
	if len(tg.sent) != 3 {
		t.Errorf("expected 3 messages in total, got %d", len(tg.sent))
	}
	if fetcher.calls[2] != 1000 {
		t.Errorf("expected third poll from 1000, got %d", fetcher.calls[2])
	}
}

func TestRunCycle_ParseFailureAbortsBatchWithoutRollback(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{body: `{"homeworks": [
			{"homework_name": "hw1", "status": "approved"},
			{"homework_name": "hw2", "status": "lost"},
			{"homework_name": "hw3", "status": "rejected"}
		], "current_date": 2000}`},
	}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, 1000)

	result := svc.RunCycle(context.Background())

	if result.Outcome != OutcomeFailed || result.Kind != homework.KindVerdictLookup {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Sent != 1 {
		t.Errorf("expected 1 status message before the failure, got %d", result.Sent)
	}
	if len(tg.sent) != 2 {
		t.Fatalf("expected status message plus failure summary, got %d", len(tg.sent))
	}
	if !strings.Contains(tg.sent[0].text, "hw1") {
		t.Errorf("first message should be about hw1, got %q", tg.sent[0].text)
	}
	for _, m := range tg.sent {
		if strings.Contains(m.text, "hw3") {
			t.Errorf("items after the failure must not be sent, got %q", m.text)
		}
	}
	if svc.Cursor() != 1000 {
		t.Errorf("cursor must not move after a partial batch, got %d", svc.Cursor())
	}
}

func TestRunCycle_MalformedItem(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{body: `{"homeworks": [{"status": "approved"}], "current_date": 2000}`},
	}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, 1000)

	result := svc.RunCycle(context.Background())

	if result.Kind != homework.KindMalformedItem || !result.Notified {
		t.Fatalf("unexpected result %+v", result)
	}
	if svc.Cursor() != 1000 {
		t.Errorf("cursor must not move, got %d", svc.Cursor())
	}
}

func TestRunCycle_SendFailureDoesNotAbortCycle(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{body: `{"homeworks": [{"homework_name": "hw1", "status": "approved"}, {"homework_name": "hw2", "status": "rejected"}], "current_date": 3000}`},
	}}
	tg := &fakeTelegram{err: errors.New("telegram: bad gateway")}
	svc, hook := newTestService(fetcher, tg, 1000)

	result := svc.RunCycle(context.Background())

	if result.Outcome != OutcomeDelivered || result.Sent != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if svc.Cursor() != 3000 {
		t.Errorf("expected cursor 3000, got %d", svc.Cursor())
	}
	var sendErrors int
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Message == "Сбой при отправке сообщения" {
			sendErrors++
		}
	}
	if sendErrors != 2 {
		t.Errorf("expected 2 logged send failures, got %d", sendErrors)
	}
}

func TestRunCycle_CursorNeverDecreases(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{
		{body: `{"homeworks": [{"homework_name": "hw1", "status": "approved"}], "current_date": 100}`},
	}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, 1000)

	result := svc.RunCycle(context.Background())

	if result.Outcome != OutcomeDelivered {
		t.Fatalf("unexpected result %+v", result)
	}
	if svc.Cursor() != 1000 {
		t.Errorf("cursor moved backwards to %d", svc.Cursor())
	}
}

func TestRunCycle_CancelledContextIsNotReported(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fetcher := &fakeFetcher{responses: []fetchResponse{{err: context.Canceled}}}
	tg := &fakeTelegram{}
	svc, _ := newTestService(fetcher, tg, 0)

	result := svc.RunCycle(ctx)

	if result.Outcome != OutcomeFailed || result.Notified {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(tg.sent) != 0 {
		t.Errorf("expected no messages during shutdown, got %d", len(tg.sent))
	}
	if svc.LastFailure() != homework.KindNone {
		t.Errorf("failure record must stay untouched, got %s", svc.LastFailure())
	}
}

func TestRun_LoopsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := &fakeFetcher{responses: []fetchResponse{
		{body: `{"homeworks": [{"homework_name": "hw1", "status": "reviewing"}], "current_date": 10}`},
		{body: `{"homeworks": [], "current_date": 20}`},
		{body: `{"homeworks": [{"homework_name": "hw1", "status": "approved"}], "current_date": 30}`},
	}}
	tg := &fakeTelegram{}
	logger, _ := test.NewNullLogger()
	waiter := &countingWaiter{limit: 3, cancel: cancel}
	svc := NewPollService(fetcher, tg, waiter, logrus.NewEntry(logger), PollConfig{RecipientChatID: testChatID})

	var outcomes []Outcome
	svc.OnCycle(func(r CycleResult) { outcomes = append(outcomes, r.Outcome) })

	err := svc.Run(ctx)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	want := []Outcome{OutcomeDelivered, OutcomeNoNewItems, OutcomeDelivered}
	if len(outcomes) != len(want) {
		t.Fatalf("expected %d cycles, got %d", len(want), len(outcomes))
	}
	for i := range want {
		if outcomes[i] != want[i] {
			t.Errorf("cycle %d: got %s, want %s", i, outcomes[i], want[i])
		}
	}
	if got := []int64{fetcher.calls[0], fetcher.calls[1], fetcher.calls[2]}; got[0] != 0 || got[1] != 10 || got[2] != 10 {
		t.Errorf("unexpected poll windows %v", got)
	}
	if svc.Cursor() != 30 {
		t.Errorf("expected cursor 30, got %d", svc.Cursor())
	}
	if len(tg.sent) != 2 {
		t.Errorf("expected 2 status messages, got %d", len(tg.sent))
	}
}

func TestRun_StopsOnWaiterError(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fetchResponse{{body: `{"homeworks": []}`}}}
	logger, _ := test.NewNullLogger()
	waitErr := errors.New("schedule exhausted")
	svc := NewPollService(fetcher, &fakeTelegram{}, waiterFunc(func(context.Context) error { return waitErr }),
		logrus.NewEntry(logger), PollConfig{})

	if err := svc.Run(context.Background()); !errors.Is(err, waitErr) {
		t.Fatalf("expected waiter error, got %v", err)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("expected a single cycle, got %d", len(fetcher.calls))
	}
}

type waiterFunc func(ctx context.Context) error

func (f waiterFunc) Wait(ctx context.Context) error { return f(ctx) }

func TestOutcome_String(t *testing.T) {
	if OutcomeNoNewItems.String() != "no_new_items" {
		t.Errorf("unexpected %q", OutcomeNoNewItems.String())
	}
	if Outcome(99).String() != "outcome(99)" {
		t.Errorf("unexpected %q", Outcome(99).String())
	}
}
