package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type sessionSweeper interface {
	CleanExpired(ctx context.Context, retention time.Duration) int64
}

// SessionCleanupService prunes session rows older than the retention
// window. It runs hourly on the scheduler and can be triggered on demand.
type SessionCleanupService struct {
	sessions  sessionSweeper
	logger    *zap.Logger
	metrics   *MetricsService
	retention time.Duration
}

// NewSessionCleanupService constructs the cleanup service.
func NewSessionCleanupService(sessions sessionSweeper, logger *zap.Logger, metrics *MetricsService, retention time.Duration) *SessionCleanupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &SessionCleanupService{sessions: sessions, logger: logger, metrics: metrics, retention: retention}
}

// CleanupNow removes expired sessions immediately and returns the count.
// It never returns an error: repository failures surface as a zero count.
func (s *SessionCleanupService) CleanupNow(ctx context.Context) int64 {
	count := s.sessions.CleanExpired(ctx, s.retention)
	if count > 0 {
		s.logger.Info("expired sessions cleaned", zap.Int64("count", count))
	} else {
		s.logger.Debug("no expired sessions found")
	}
	if s.metrics != nil {
		s.metrics.AddSessionsSwept(count)
	}
	return count
}

// Run adapts CleanupNow to the scheduler's task signature.
func (s *SessionCleanupService) Run(ctx context.Context) error {
	s.CleanupNow(ctx)
	return nil
}
