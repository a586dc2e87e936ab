package job

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/repository"
)

// InviteCleanupJob purges invites that expired longer than the grace
// period ago. Recently expired rows are kept so that a rejected join
// can still be diagnosed.
type InviteCleanupJob struct {
	inviteRepo repository.InviteRepository
	grace      time.Duration
	logger     *zap.Logger
}

func NewInviteCleanupJob(inviteRepo repository.InviteRepository, grace time.Duration, logger *zap.Logger) *InviteCleanupJob {
	return &InviteCleanupJob{
		inviteRepo: inviteRepo,
		grace:      grace,
		logger:     logger,
	}
}

// Schedule registers the job with the cron runner.
func (j *InviteCleanupJob) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, j.Run)
	return err
}

// Run executes one cleanup pass.
func (j *InviteCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.grace)
	deleted, err := j.inviteRepo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("Invite cleanup failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		j.logger.Info("Invite cleanup completed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
