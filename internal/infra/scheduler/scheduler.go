package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultSpec matches the ten-minute pause between polls.
const DefaultSpec = "@every 10m"

// CycleScheduler decides when the next poll cycle starts. It accepts any
// standard cron expression or descriptor ("@every 10m", "*/5 * * * *", "@hourly").
type CycleScheduler struct {
	schedule cron.Schedule
	spec     string
	logger   *logrus.Entry
	now      func() time.Time
}

func NewCycleScheduler(spec string, logger *logrus.Entry) (*CycleScheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cycle schedule %q: %w", spec, err)
	}
	return &CycleScheduler{
		schedule: schedule,
		spec:     spec,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Next returns the start time of the cycle following t.
func (s *CycleScheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Wait blocks until the next scheduled cycle or until ctx is done.
func (s *CycleScheduler) Wait(ctx context.Context) error {
	now := s.now()
	next := s.schedule.Next(now)
	if next.IsZero() {
		return fmt.Errorf("cycle schedule %q has no future activation", s.spec)
	}
	delay := next.Sub(now)
	s.logger.WithFields(logrus.Fields{
		"next_cycle": next.Format(time.RFC3339),
		"delay":      delay.String(),
	}).Debug("Waiting for next poll cycle")

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
