package directory

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler refreshes the directory once at start and then every 24 hours.
// Refresh failures are logged and swallowed; the schedule keeps running.
type Scheduler struct {
	directory *Directory
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewScheduler(directory *Directory, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		directory: directory,
		cron:      cron.New(),
		logger:    logger,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 24h", s.runRefresh); err != nil {
		return err
	}
	go s.runRefresh()
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runRefresh() {
	count, err := s.directory.Refresh(context.Background())
	if err != nil {
		s.logger.Error("identity refresh failed", "error", err)
		return
	}
	s.logger.Info("identity directory refreshed", "count", count)
}
