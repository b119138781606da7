// Package scheduler sends the daily digest on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"kebbi/internal/application"
)

const DefaultSpec = "0 21 * * *"

type Scheduler struct {
	cron     *cron.Cron
	service  *application.Service
	notifier application.Notifier
	spec     string
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(service *application.Service, notifier application.Notifier, spec string, loc *time.Location, logger *slog.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		service:  service,
		notifier: notifier,
		spec:     spec,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if err := s.SendDigest(s.ctx); err != nil {
			s.logger.Error("daily digest failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduling digest %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("digest scheduler started", "spec", s.spec)
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.logger.Info("digest scheduler stopped")
}

// SendDigest builds today's digest and delivers it. Days with nothing logged
// are skipped.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	d := s.service.BuildDigest(ctx, s.now())
	if d.Empty() {
		s.logger.Info("nothing logged today, skipping digest", "date", d.Date)
		return nil
	}

	if err := s.notifier.Notify(ctx, d.Summary()); err != nil {
		return fmt.Errorf("sending digest: %w", err)
	}
	s.logger.Info("digest sent", "date", d.Date, "items", len(d.Items), "schedules", len(d.Schedules), "chats", d.Chats)
	return nil
}
