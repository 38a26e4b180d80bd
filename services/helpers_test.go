package services

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"lexchat/domain"
	"lexchat/moderation"
	"lexchat/repositories"
	"lexchat/runtime"
)

// recordSink captures every pushed event for assertions.
type recordSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *recordSink) Push(e domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return true
}

func (s *recordSink) named(name string) []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Event
	for _, e := range s.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

type testEnv struct {
	registry *runtime.Registry
	calls    *runtime.CallRegistry
	repo     repositories.MessageRepository
	chat     *ChatService
	callSvc  *CallService
	signals  *SignalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	registry := runtime.NewRegistry()
	calls := runtime.NewCallRegistry(log)
	repo := repositories.NewMessageRepository(db, log)

	moderator, err := moderation.NewModerator([]string{"swearword"}, '*')
	req.NoError(err)

	return &testEnv{
		registry: registry,
		calls:    calls,
		repo:     repo,
		chat:     NewChatService(log, registry, repo, moderator),
		callSvc:  NewCallService(log, registry, calls),
		signals:  NewSignalService(log, registry),
	}
}

// connect registers a user with a recording sink.
func (env *testEnv) connect(id, username string) *recordSink {
	sink := &recordSink{}
	env.registry.Register(domain.Identity{ID: id, Username: username}, sink)
	return sink
}

var (
	alice = domain.Identity{ID: "alice", Username: "Alice"}
	bob   = domain.Identity{ID: "bob", Username: "Bob"}
)
