package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
)

func TestParticipantService_Join(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)

	invite, err := env.invites.Issue(ctx, session.ID)
	require.NoError(t, err)

	joined, err := env.participants.Join(ctx, "conn-1", session.ID, invite.Code, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", joined.Participant.Name)
	assert.Equal(t, "conn-1", joined.Participant.ConnectionID)
	assert.Len(t, joined.SecretKey, 64)

	// The connection lands in the session room and everyone hears it.
	assert.Contains(t, env.notifier.roomsOf("conn-1"), session.ID.String())
	assert.Len(t, env.notifier.broadcastsFor(EventParticipantJoined), 1)
}

func TestParticipantService_Join_InvalidInvite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)

	_, err := env.participants.Join(ctx, "conn-1", session.ID, "bogus-code", "alice")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInviteCode))
}

func TestParticipantService_Join_UnknownSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.participants.Join(context.Background(), "conn-1", uuid.New(), "code", "alice")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestParticipantService_Join_EmptyName(t *testing.T) {
	env := newTestEnv(t)
	session := env.createSession(t, false)

	_, err := env.participants.Join(context.Background(), "conn-1", session.ID, "code", "")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidInput))
}

func TestParticipantService_ResolveCurrent_LatestWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)

	older := env.joinParticipant(t, session.ID, "conn-shared", "alice")
	newer := env.joinParticipant(t, session.ID, "conn-shared", "bob")

	// Make the ordering unambiguous; sqlite timestamps have coarse
	// resolution.
	base := time.Now().UTC()
	require.NoError(t, env.db.Model(&older.Participant).Update("updated_at", base.Add(-time.Hour)).Error)
	require.NoError(t, env.db.Model(&newer.Participant).Update("updated_at", base).Error)

	resolved, err := env.participants.ResolveCurrent(ctx, "conn-shared")
	require.NoError(t, err)
	assert.Equal(t, newer.Participant.ID, resolved.ID)
}

func TestParticipantService_ResolveCurrent_Unknown(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.participants.ResolveCurrent(context.Background(), "conn-ghost")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestParticipantService_Reauthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)
	joined := env.joinParticipant(t, session.ID, "conn-old", "alice")

	rebound, err := env.participants.Reauthenticate(ctx, "conn-new", joined.Participant.ID, joined.SecretKey)
	require.NoError(t, err)
	assert.Equal(t, "conn-new", rebound.ConnectionID)

	// The new connection resolves to the same durable identity.
	resolved, err := env.participants.ResolveCurrent(ctx, "conn-new")
	require.NoError(t, err)
	assert.Equal(t, joined.Participant.ID, resolved.ID)

	assert.Contains(t, env.notifier.roomsOf("conn-new"), session.ID.String())
	assert.Len(t, env.notifier.broadcastsFor(EventParticipantRejoined), 1)
}

func TestParticipantService_Reauthenticate_WrongKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)
	joined := env.joinParticipant(t, session.ID, "conn-old", "alice")

	_, err := env.participants.Reauthenticate(ctx, "conn-new", joined.Participant.ID, "not-the-key")
	assert.True(t, apperror.IsKind(err, apperror.KindNotAllowed))

	// A failed proof must not move the binding.
	stored, err := env.participantRepo.GetByID(ctx, joined.Participant.ID)
	require.NoError(t, err)
	assert.Equal(t, "conn-old", stored.ConnectionID)
}

func TestParticipantService_Reauthenticate_UnknownParticipant(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.participants.Reauthenticate(context.Background(), "conn-new", uuid.New(), "key")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestParticipantService_SecretKeyNeverSerialized(t *testing.T) {
	env := newTestEnv(t)
	session := env.createSession(t, false)
	joined := env.joinParticipant(t, session.ID, "conn-1", "alice")
	require.NotEmpty(t, joined.SecretKey)

	payload, err := json.Marshal(joined.Participant)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "secretKey")
	assert.NotContains(t, string(payload), joined.SecretKey)
}
