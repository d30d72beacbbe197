// Package scheduler запускает периодические фоновые задачи диспетчерской.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StaleSweeper переводит в offline экипажи без свежего пинга
type StaleSweeper interface {
	SweepStale(ctx context.Context, maxAge time.Duration) (int, error)
}

type Scheduler struct {
	cron     *cron.Cron
	sweeper  StaleSweeper
	staleAge time.Duration
	logger   *logrus.Logger
}

func NewScheduler(sweeper StaleSweeper, staleAge time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		sweeper:  sweeper,
		staleAge: staleAge,
		logger:   logger,
	}
}

// Start регистрирует задачи и запускает планировщик. spec - выражение cron
// или дескриптор вида "@every 1m".
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.sweepStaleResponders); err != nil {
		return fmt.Errorf("failed to register responder sweep job: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("spec", spec).Info("Scheduler started")
	return nil
}

// Stop останавливает планировщик и ждет завершения выполняющихся задач
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) sweepStaleResponders() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	swept, err := s.sweeper.SweepStale(ctx, s.staleAge)
	if err != nil {
		s.logger.WithError(err).Error("Responder sweep failed")
		return
	}
	if swept > 0 {
		s.logger.WithField("count", swept).Info("Marked stale responders offline")
	}
}
