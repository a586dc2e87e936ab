package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpokerapp/devpoker-services/internal/model"
)

func TestInviteService_IssueValidateRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)

	invite, err := env.invites.Issue(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, invite.Code, 48)
	assert.True(t, invite.ExpiresAt.After(time.Now()))

	ok, err := env.invites.Validate(ctx, invite.Code, session.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInviteService_Validate_MissIsFalseNotError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)

	ok, err := env.invites.Validate(ctx, "no-such-code", session.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInviteService_Validate_WrongSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)
	other := env.createSession(t, false)

	invite, err := env.invites.Issue(ctx, session.ID)
	require.NoError(t, err)

	ok, err := env.invites.Validate(ctx, invite.Code, other.ID)
	require.NoError(t, err)
	assert.False(t, ok, "a code only admits into its own session")
}

func TestInviteService_Validate_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)

	code, err := generateInviteCode()
	require.NoError(t, err)
	expired := &model.Invite{
		SessionID: session.ID,
		Code:      code,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, env.inviteRepo.Create(ctx, expired))

	ok, err := env.invites.Validate(ctx, code, session.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInviteService_IssuedCodesAccumulate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.createSession(t, false)

	first, err := env.invites.Issue(ctx, session.ID)
	require.NoError(t, err)
	second, err := env.invites.Issue(ctx, session.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	for _, code := range []string{first.Code, second.Code} {
		ok, err := env.invites.Validate(ctx, code, session.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestGenerateInviteCode_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("codes are 48 chars of the unambiguous alphabet", prop.ForAll(
		func(_ int) bool {
			code, err := generateInviteCode()
			if err != nil || len(code) != 48 {
				return false
			}
			for _, r := range code {
				if !strings.ContainsRune(inviteCodeAlphabet, r) {
					return false
				}
			}
			return !strings.ContainsAny(code, "0O1lIoiL")
		},
		gen.Int(),
	))

	properties.Property("codes never collide", prop.ForAll(
		func(_ int) bool {
			a, err1 := generateInviteCode()
			b, err2 := generateInviteCode()
			return err1 == nil && err2 == nil && a != b
		},
		gen.Int(),
	))

	properties.TestingRun(t)
}

func TestInviteService_Validate_UnknownSessionIsFalse(t *testing.T) {
	env := newTestEnv(t)

	ok, err := env.invites.Validate(context.Background(), "whatever", uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
