package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/emberchat/ember/domain/model"
	domainrepo "github.com/emberchat/ember/domain/repository"
	"github.com/emberchat/ember/infrastructure/config"
	"github.com/emberchat/ember/infrastructure/events"
	"github.com/emberchat/ember/infrastructure/logger"
	"github.com/emberchat/ember/infrastructure/persistence/repository"
)

type testEnv struct {
	mr         *miniredis.Miniredis
	client     *goredis.Client
	rooms      domainrepo.RoomRepository
	membership domainrepo.MembershipRepository
	uc         MembershipUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracer := otel.Tracer("membership-usecase-test")
	log := logger.NewNop()

	rooms := repository.NewRoomRepository(client, tracer)
	membership := repository.NewMembershipRepository(client, tracer)
	notifier := events.NewNotifier(client, log)

	cfg := config.RoomConfig{
		DefaultTTL:      10 * time.Minute,
		MaxSessionAge:   7 * 24 * time.Hour,
		LeaveGrace:      30 * time.Second,
		ExtendIncrement: 10 * time.Minute,
		AllowedTTLs:     []time.Duration{10 * time.Minute},
		PrivateMaxUsers: 2,
		GroupMaxUsers:   10,
	}

	return &testEnv{
		mr:         mr,
		client:     client,
		rooms:      rooms,
		membership: membership,
		uc:         NewMembershipUseCase(rooms, membership, notifier, cfg, log),
	}
}

func (e *testEnv) createRoom(t *testing.T, id string, maxUsers int) {
	t.Helper()
	room := &model.Room{
		ID:        id,
		Type:      model.RoomTypePrivate,
		MaxUsers:  maxUsers,
		E2EE:      true,
		CreatedAt: time.Now(),
	}
	if err := e.rooms.Create(context.Background(), room, 10*time.Minute); err != nil {
		t.Fatalf("Create room: %v", err)
	}
}

func TestAdmitIssuesToken(t *testing.T) {
	env := newTestEnv(t)
	env.createRoom(t, "room1", 2)
	ctx := context.Background()

	token, outcome, err := env.uc.Admit(ctx, "room1", "", "alice")
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if outcome != model.Admitted {
		t.Fatalf("outcome: got %v, want Admitted", outcome)
	}
	if token == "" {
		t.Fatal("token: got empty, want fresh token")
	}

	member, err := env.uc.IsMember(ctx, "room1", token)
	if err != nil {
		t.Fatalf("IsMember: %v", err)
	}
	if !member {
		t.Error("IsMember: got false, want true")
	}

	// The connected set must not outlive the room meta key.
	ttl := env.mr.TTL("connected:room1")
	if ttl <= 0 || ttl > 10*time.Minute {
		t.Errorf("connected TTL: got %v, want within (0, 10m]", ttl)
	}
}

func TestAdmitMissingRoom(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.uc.Admit(context.Background(), "missing", "", "")
	if !errors.Is(err, model.ErrRoomNotFound) {
		t.Errorf("Admit on missing room: got %v, want ErrRoomNotFound", err)
	}
}

func TestAdmitExistingMemberKeepsToken(t *testing.T) {
	env := newTestEnv(t)
	env.createRoom(t, "room1", 1)
	ctx := context.Background()

	token, _, err := env.uc.Admit(ctx, "room1", "", "")
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}

	// A reload presents the same cookie; the room is full but the holder
	// passes straight through.
	again, outcome, err := env.uc.Admit(ctx, "room1", token, "")
	if err != nil {
		t.Fatalf("Admit again: %v", err)
	}
	if outcome != model.Admitted {
		t.Fatalf("outcome: got %v, want Admitted", outcome)
	}
	if again != token {
		t.Errorf("token: got %q, want the original %q", again, token)
	}
}

func TestAdmitFullRoom(t *testing.T) {
	env := newTestEnv(t)
	env.createRoom(t, "room1", 1)
	ctx := context.Background()

	if _, _, err := env.uc.Admit(ctx, "room1", "", ""); err != nil {
		t.Fatalf("Admit first: %v", err)
	}

	token, outcome, err := env.uc.Admit(ctx, "room1", "", "")
	if err != nil {
		t.Fatalf("Admit second: %v", err)
	}
	if outcome != model.Full {
		t.Fatalf("outcome: got %v, want Full", outcome)
	}
	if token != "" {
		t.Errorf("token on full room: got %q, want empty", token)
	}
}

// A/B/C on a private room: A and B hold the two slots, C bounces, A leaves
// and frees a slot, C takes it. A's grace then lets it reclaim membership
// past the capacity gate.
func TestAdmitPrivateRoomScenario(t *testing.T) {
	env := newTestEnv(t)
	env.createRoom(t, "room1", 2)
	ctx := context.Background()

	tokenA, outcome, err := env.uc.Admit(ctx, "room1", "", "alice")
	if err != nil || outcome != model.Admitted {
		t.Fatalf("Admit A: outcome %v, err %v", outcome, err)
	}
	_, outcome, err = env.uc.Admit(ctx, "room1", "", "bob")
	if err != nil || outcome != model.Admitted {
		t.Fatalf("Admit B: outcome %v, err %v", outcome, err)
	}

	_, outcome, err = env.uc.Admit(ctx, "room1", "", "carol")
	if err != nil {
		t.Fatalf("Admit C: %v", err)
	}
	if outcome != model.Full {
		t.Fatalf("Admit C: got %v, want Full", outcome)
	}

	if err := env.uc.Leave(ctx, "room1", tokenA, "alice"); err != nil {
		t.Fatalf("Leave A: %v", err)
	}

	// A's departure frees the slot for C straight away.
	_, outcome, err = env.uc.Admit(ctx, "room1", "", "carol")
	if err != nil {
		t.Fatalf("Admit C after leave: %v", err)
	}
	if outcome != model.Admitted {
		t.Fatalf("Admit C after leave: got %v, want Admitted", outcome)
	}

	// A is still in grace; the rejoin reclaims its slot even though the
	// capacity gate would now refuse a newcomer.
	again, outcome, err := env.uc.Admit(ctx, "room1", tokenA, "alice")
	if err != nil {
		t.Fatalf("Admit A rejoin: %v", err)
	}
	if outcome != model.Admitted {
		t.Fatalf("Admit A rejoin: got %v, want Admitted", outcome)
	}
	if again != tokenA {
		t.Errorf("rejoin token: got %q, want original %q", again, tokenA)
	}
}

// Once grace lapses the slot is genuinely free and the departed token holds
// no claim anymore.
func TestAdmitAfterGraceExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.createRoom(t, "room1", 1)
	ctx := context.Background()

	tokenA, _, err := env.uc.Admit(ctx, "room1", "", "")
	if err != nil {
		t.Fatalf("Admit A: %v", err)
	}
	if err := env.uc.Leave(ctx, "room1", tokenA, ""); err != nil {
		t.Fatalf("Leave A: %v", err)
	}

	env.mr.FastForward(31 * time.Second)

	tokenB, outcome, err := env.uc.Admit(ctx, "room1", "", "")
	if err != nil {
		t.Fatalf("Admit B: %v", err)
	}
	if outcome != model.Admitted {
		t.Fatalf("Admit B: got %v, want Admitted", outcome)
	}

	// A's stale cookie now races like a newcomer and finds the room full.
	_, outcome, err = env.uc.Admit(ctx, "room1", tokenA, "")
	if err != nil {
		t.Fatalf("Admit A with stale token: %v", err)
	}
	if outcome != model.Full {
		t.Errorf("Admit A with stale token: got %v, want Full", outcome)
	}

	_ = tokenB
}

func TestLeaveUnknownTokenSucceeds(t *testing.T) {
	env := newTestEnv(t)
	env.createRoom(t, "room1", 2)

	if err := env.uc.Leave(context.Background(), "room1", "ghost", ""); err != nil {
		t.Errorf("Leave unknown token: %v", err)
	}
}

func TestNotifyTypingRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	env.createRoom(t, "room1", 2)
	ctx := context.Background()

	err := env.uc.NotifyTyping(ctx, "room1", "stranger", "mallory", true)
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("NotifyTyping with foreign token: got %v, want ErrUnauthorized", err)
	}

	token, _, err := env.uc.Admit(ctx, "room1", "", "")
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if err := env.uc.NotifyTyping(ctx, "room1", token, "alice", true); err != nil {
		t.Errorf("NotifyTyping as member: %v", err)
	}
}

func TestAdmitPublishesJoinEvent(t *testing.T) {
	env := newTestEnv(t)
	env.createRoom(t, "room1", 2)
	ctx := context.Background()

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	notifier := events.NewNotifier(env.client, logger.NewNop())
	ch, err := notifier.Subscribe(subCtx, "room1")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if _, _, err := env.uc.Admit(ctx, "room1", "", "alice"); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	select {
	case event := <-ch:
		join, ok := event.(events.Join)
		if !ok {
			t.Fatalf("event: got %T, want events.Join", event)
		}
		if join.Username != "alice" {
			t.Errorf("Username: got %q, want alice", join.Username)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no join event received")
	}
}
