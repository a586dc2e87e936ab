package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/devpokerapp/devpoker-services/internal/bus"
	"github.com/devpokerapp/devpoker-services/internal/database"
	"github.com/devpokerapp/devpoker-services/internal/metrics"
	"github.com/devpokerapp/devpoker-services/internal/model"
	"github.com/devpokerapp/devpoker-services/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "Failed to open test database")

	err = database.AutoMigrate(db)
	require.NoError(t, err, "Failed to migrate test database")

	return db
}

func newTestMetrics() *metrics.Metrics {
	return metrics.NewWithRegistry(prometheus.NewRegistry())
}

// notification is one recorded fanout call.
type notification struct {
	Room  string
	Event string
	Data  any
}

// fakeNotifier records every fanout call instead of pushing frames.
type fakeNotifier struct {
	mu            sync.Mutex
	subscriptions map[string][]string
	broadcasts    []notification
	unicasts      []notification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		subscriptions: make(map[string][]string),
	}
}

func (f *fakeNotifier) Subscribe(connectionID, room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions[connectionID] = append(f.subscriptions[connectionID], room)
}

func (f *fakeNotifier) Unsubscribe(connectionID, room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rooms := f.subscriptions[connectionID]
	for i, r := range rooms {
		if r == room {
			f.subscriptions[connectionID] = append(rooms[:i], rooms[i+1:]...)
			return
		}
	}
}

func (f *fakeNotifier) Unicast(connectionID, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unicasts = append(f.unicasts, notification{Room: connectionID, Event: event, Data: data})
}

func (f *fakeNotifier) Broadcast(room, event string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, notification{Room: room, Event: event, Data: data})
}

func (f *fakeNotifier) broadcastsFor(event string) []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notification
	for _, n := range f.broadcasts {
		if n.Event == event {
			out = append(out, n)
		}
	}
	return out
}

func (f *fakeNotifier) roomsOf(connectionID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subscriptions[connectionID]...)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// testEnv wires the full service stack over one in-memory database.
type testEnv struct {
	db       *gorm.DB
	notifier *fakeNotifier
	metrics  *metrics.Metrics
	bus      *bus.Bus

	sessions     SessionService
	items        ItemService
	rounds       RoundService
	events       EventService
	participants ParticipantService
	invites      InviteService

	sessionRepo     repository.SessionRepository
	itemRepo        repository.ItemRepository
	roundRepo       repository.RoundRepository
	voteRepo        repository.VoteRepository
	participantRepo repository.ParticipantRepository
	eventRepo       repository.EventRepository
	inviteRepo      repository.InviteRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	notifier := newFakeNotifier()
	m := newTestMetrics()
	logger := testLogger()
	eventBus := bus.New(logger)

	env := &testEnv{
		db:              db,
		notifier:        notifier,
		metrics:         m,
		bus:             eventBus,
		sessionRepo:     repository.NewSessionRepository(db),
		itemRepo:        repository.NewItemRepository(db),
		roundRepo:       repository.NewRoundRepository(db),
		voteRepo:        repository.NewVoteRepository(db),
		participantRepo: repository.NewParticipantRepository(db),
		eventRepo:       repository.NewEventRepository(db),
		inviteRepo:      repository.NewInviteRepository(db),
	}

	env.invites = NewInviteService(env.inviteRepo, time.Hour, m, logger)
	env.participants = NewParticipantService(env.participantRepo, env.sessionRepo, env.invites, notifier, logger)
	env.rounds = NewRoundService(db, env.roundRepo, env.voteRepo, env.itemRepo, env.sessionRepo, env.participantRepo, notifier, m, logger)
	env.events = NewEventService(env.eventRepo, env.itemRepo, env.participantRepo, notifier, m, logger)
	env.sessions = NewSessionService(env.sessionRepo, env.itemRepo, env.invites, notifier, logger)
	env.items = NewItemService(env.itemRepo, eventBus, notifier, logger)

	return env
}

func (env *testEnv) createSession(t *testing.T, anonymous bool) *model.Session {
	t.Helper()
	session, err := env.sessions.Create(context.Background(), "facilitator", "", anonymous)
	require.NoError(t, err)
	return session
}

func (env *testEnv) createItem(t *testing.T, sessionID uuid.UUID, name string) *model.Item {
	t.Helper()
	item, err := env.items.Create(context.Background(), sessionID, name, "")
	require.NoError(t, err)
	return item
}

// joinParticipant issues an invite and joins through the real flow.
func (env *testEnv) joinParticipant(t *testing.T, sessionID uuid.UUID, connectionID, name string) *JoinResult {
	t.Helper()
	ctx := context.Background()
	invite, err := env.invites.Issue(ctx, sessionID)
	require.NoError(t, err)
	joined, err := env.participants.Join(ctx, connectionID, sessionID, invite.Code, name)
	require.NoError(t, err)
	return joined
}
