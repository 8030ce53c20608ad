// Package scheduler runs the periodic maintenance jobs: for now, purging
// expired sign-in tokens.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TokenPurger deletes verification tokens past their expiry.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// Scheduler wraps robfig/cron.
type Scheduler struct {
	cron   *cron.Cron
	purger TokenPurger
	log    *zap.Logger
	spec   string // cron spec, e.g. "@every 1h"
}

func New(purger TokenPurger, spec string, log *zap.Logger) *Scheduler {
	logger := cronLogger{log.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		purger: purger,
		log:    log,
		spec:   spec,
	}
}

// Start registers the purge job and starts the scheduler. One purge runs
// right away so a restart does not leave stale tokens until the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.Purge(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", zap.String("spec", s.spec))

	go s.Purge(ctx)
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) Purge(ctx context.Context) {
	n, err := s.purger.PurgeExpiredTokens(ctx)
	if err != nil {
		s.log.Error("token purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("expired tokens purged", zap.Int64("count", n))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
