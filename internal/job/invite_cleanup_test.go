package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/database"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/repository"
)

func setupJobTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createInvite(t *testing.T, repo repository.InviteRepository, expiresAt time.Time) *model.Invite {
	t.Helper()
	invite := &model.Invite{
		SessionID: uuid.New(),
		Code:      uuid.NewString(),
		ExpiresAt: expiresAt,
	}
	require.NoError(t, repo.Create(context.Background(), invite))
	return invite
}

func TestInviteCleanupJob_Run(t *testing.T) {
	db := setupJobTestDB(t)
	repo := repository.NewInviteRepository(db)
	now := time.Now().UTC()

	longExpired := createInvite(t, repo, now.Add(-48*time.Hour))
	recentlyExpired := createInvite(t, repo, now.Add(-time.Hour))
	live := createInvite(t, repo, now.Add(time.Hour))

	job := NewInviteCleanupJob(repo, 24*time.Hour, zap.NewNop())
	job.Run()

	var remaining []model.Invite
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2, "only invites past the grace window are purged")

	ids := []uuid.UUID{remaining[0].ID, remaining[1].ID}
	assert.Contains(t, ids, recentlyExpired.ID)
	assert.Contains(t, ids, live.ID)
	assert.NotContains(t, ids, longExpired.ID)
}

func TestInviteCleanupJob_Run_NothingToDelete(t *testing.T) {
	db := setupJobTestDB(t)
	repo := repository.NewInviteRepository(db)

	createInvite(t, repo, time.Now().UTC().Add(time.Hour))

	job := NewInviteCleanupJob(repo, 24*time.Hour, zap.NewNop())
	job.Run()

	var count int64
	require.NoError(t, db.Model(&model.Invite{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
