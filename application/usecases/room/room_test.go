package room

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
	"github.com/emberchat/ember/infrastructure/keystore"
	"github.com/emberchat/ember/infrastructure/logger"
	"github.com/emberchat/ember/infrastructure/persistence/repository"
)

type testEnv struct {
	mr         *miniredis.Miniredis
	client     *goredis.Client
	rooms      domainrepo.RoomRepository
	membership domainrepo.MembershipRepository
	keys       *keystore.Store
	uc         RoomUseCase
}

func testRoomConfig() config.RoomConfig {
	return config.RoomConfig{
		DefaultTTL:      10 * time.Minute,
		MaxSessionAge:   7 * 24 * time.Hour,
		LeaveGrace:      30 * time.Second,
		ExtendIncrement: 10 * time.Minute,
		AllowedTTLs:     []time.Duration{10 * time.Minute, 24 * time.Hour, 7 * 24 * time.Hour},
		PrivateMaxUsers: 2,
		GroupMaxUsers:   10,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracer := otel.Tracer("room-usecase-test")
	log := logger.NewNop()

	rooms := repository.NewRoomRepository(client, tracer)
	membership := repository.NewMembershipRepository(client, tracer)
	notifier := events.NewNotifier(client, log)
	keys := keystore.New()

	return &testEnv{
		mr:         mr,
		client:     client,
		rooms:      rooms,
		membership: membership,
		keys:       keys,
		uc:         NewRoomUseCase(rooms, membership, notifier, keys, testRoomConfig(), log),
	}
}

// join puts a token directly into the connected set so use case tests do not
// depend on the admission path.
func (e *testEnv) join(t *testing.T, roomID, token string) {
	t.Helper()
	admitted, err := e.membership.Join(context.Background(), roomID, token, 10)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !admitted {
		t.Fatal("Join: got full, want admitted")
	}
}

func TestCreatePrivateRoomDefaults(t *testing.T) {
	env := newTestEnv(t)

	room, err := env.uc.Create(context.Background(), "", "pubkey-creator", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if room.Type != model.RoomTypePrivate {
		t.Errorf("Type: got %q, want private", room.Type)
	}
	if !room.E2EE {
		t.Error("E2EE: got false, want true for private room")
	}
	if room.MaxUsers != 2 {
		t.Errorf("MaxUsers: got %d, want 2", room.MaxUsers)
	}
	if room.CreatorPublicKey != "pubkey-creator" {
		t.Errorf("CreatorPublicKey: got %q, want %q", room.CreatorPublicKey, "pubkey-creator")
	}
	if len(room.ID) != 21 {
		t.Errorf("room ID length: got %d, want 21", len(room.ID))
	}

	stored, err := env.rooms.Get(context.Background(), room.ID)
	if err != nil {
		t.Fatalf("Get after create: %v", err)
	}
	if stored.TTL <= 0 || stored.TTL > 10*time.Minute {
		t.Errorf("stored TTL: got %v, want within (0, 10m]", stored.TTL)
	}
}

func TestCreateGroupRoomHasNoE2EE(t *testing.T) {
	env := newTestEnv(t)

	room, err := env.uc.Create(context.Background(), model.RoomTypeGroup, "ignored", 24*time.Hour)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if room.E2EE {
		t.Error("E2EE: got true, want false for group room")
	}
	if room.MaxUsers != 10 {
		t.Errorf("MaxUsers: got %d, want 10", room.MaxUsers)
	}
	if room.CreatorPublicKey != "" {
		t.Errorf("CreatorPublicKey: got %q, want empty for group room", room.CreatorPublicKey)
	}
}

func TestCreateRejectsUnknownTTL(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.Create(context.Background(), model.RoomTypePrivate, "", 42*time.Second)
	if !errors.Is(err, model.ErrInvalidTTL) {
		t.Errorf("Create with off-menu TTL: got %v, want ErrInvalidTTL", err)
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.Create(context.Background(), "broadcast", "", 0)
	if !errors.Is(err, model.ErrInvalidType) {
		t.Errorf("Create with unknown type: got %v, want ErrInvalidType", err)
	}
}

func TestGetInfoRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.uc.Create(ctx, model.RoomTypePrivate, "", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = env.uc.GetInfo(ctx, room.ID, "stranger")
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("GetInfo with foreign token: got %v, want ErrUnauthorized", err)
	}

	env.join(t, room.ID, "tokenA")

	info, err := env.uc.GetInfo(ctx, room.ID, "tokenA")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.ConnectedCount != 1 {
		t.Errorf("ConnectedCount: got %d, want 1", info.ConnectedCount)
	}
}

func TestGetInfoMissingRoomWinsOverBadToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.uc.GetInfo(context.Background(), "missing", "")
	if !errors.Is(err, model.ErrRoomNotFound) {
		t.Errorf("GetInfo on missing room: got %v, want ErrRoomNotFound", err)
	}
}

func TestExtendAddsIncrement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.uc.Create(ctx, model.RoomTypePrivate, "", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.join(t, room.ID, "tokenA")

	result, err := env.uc.Extend(ctx, room.ID, "tokenA")
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if !result.Success {
		t.Fatalf("Extend: got %+v, want success", result)
	}

	want := int64((20 * time.Minute).Seconds())
	if result.TTL != want {
		t.Errorf("TTL: got %d, want %d", result.TTL, want)
	}

	ttl, err := env.rooms.TTL(ctx, room.ID)
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 10*time.Minute {
		t.Errorf("stored TTL after extend: got %v, want > 10m", ttl)
	}

	// The info view reflects the new deadline right away.
	info, err := env.uc.GetInfo(ctx, room.ID, "tokenA")
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if info.TTL <= int64((10 * time.Minute).Seconds()) {
		t.Errorf("info TTL after extend: got %d, want > 600", info.TTL)
	}
}

// A room created long ago cannot be pushed past the max session age; the
// refusal is data, not an error, and leaves the TTL untouched.
func TestExtendRefusedAtMaxSessionAge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	old := &model.Room{
		ID:        "oldroom",
		Type:      model.RoomTypePrivate,
		MaxUsers:  2,
		E2EE:      true,
		CreatedAt: time.Now().Add(-7 * 24 * time.Hour),
	}
	if err := env.rooms.Create(ctx, old, 10*time.Minute); err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.join(t, "oldroom", "tokenA")

	result, err := env.uc.Extend(ctx, "oldroom", "tokenA")
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if result.Success {
		t.Fatal("Extend past max session age: got success, want refusal")
	}
	if result.Err != model.ExtendResultMaxReached {
		t.Errorf("Err: got %q, want %q", result.Err, model.ExtendResultMaxReached)
	}

	ttl, err := env.rooms.TTL(ctx, "oldroom")
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl > 10*time.Minute {
		t.Errorf("TTL after refused extend: got %v, want unchanged (<= 10m)", ttl)
	}
}

func TestDestroyRemovesRoomAndKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.uc.Create(ctx, model.RoomTypePrivate, "", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.join(t, room.ID, "tokenA")
	env.keys.Insert(room.ID, keystore.Entry{PrivateKey: []byte("secret"), IsCreator: true})

	if err := env.uc.Destroy(ctx, room.ID, "tokenA"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	if _, err := env.rooms.Get(ctx, room.ID); !errors.Is(err, model.ErrRoomNotFound) {
		t.Errorf("Get after destroy: got %v, want ErrRoomNotFound", err)
	}
	if _, ok := env.keys.Lookup(room.ID); ok {
		t.Error("keystore entry survived destroy")
	}
}

func TestDestroyUnauthorizedLeavesRoomIntact(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.uc.Create(ctx, model.RoomTypePrivate, "", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.join(t, room.ID, "tokenA")

	err = env.uc.Destroy(ctx, room.ID, "stranger")
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("Destroy with foreign token: got %v, want ErrUnauthorized", err)
	}

	if _, err := env.rooms.Get(ctx, room.ID); err != nil {
		t.Errorf("room vanished after unauthorized destroy: %v", err)
	}
}

func TestDestroyPublishesEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.uc.Create(ctx, model.RoomTypePrivate, "", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.join(t, room.ID, "tokenA")

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	notifier := events.NewNotifier(env.client, logger.NewNop())
	ch, err := notifier.Subscribe(subCtx, room.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := env.uc.Destroy(ctx, room.ID, "tokenA"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	select {
	case event := <-ch:
		if event.Kind() != events.KindDestroy {
			t.Errorf("event kind: got %q, want %q", event.Kind(), events.KindDestroy)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no destroy event received")
	}
}

func TestSubmitKeyFillsSlotsInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.uc.Create(ctx, model.RoomTypePrivate, "", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.join(t, room.ID, "tokenA")
	env.join(t, room.ID, "tokenB")

	if err := env.uc.SubmitKey(ctx, room.ID, "tokenA", "key-one", "alice"); err != nil {
		t.Fatalf("SubmitKey first: %v", err)
	}
	if err := env.uc.SubmitKey(ctx, room.ID, "tokenB", "key-two", "bob"); err != nil {
		t.Fatalf("SubmitKey second: %v", err)
	}

	keys, err := env.uc.Keys(ctx, room.ID, "tokenA")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if keys.CreatorPublicKey != "key-one" {
		t.Errorf("CreatorPublicKey: got %q, want %q", keys.CreatorPublicKey, "key-one")
	}
	if keys.JoinerPublicKey != "key-two" {
		t.Errorf("JoinerPublicKey: got %q, want %q", keys.JoinerPublicKey, "key-two")
	}
}

func TestSubmitKeyOnGroupRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.uc.Create(ctx, model.RoomTypeGroup, "", 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	env.join(t, room.ID, "tokenA")

	err = env.uc.SubmitKey(ctx, room.ID, "tokenA", "key-one", "alice")
	if !errors.Is(err, model.ErrNotPrivate) {
		t.Errorf("SubmitKey on group room: got %v, want ErrNotPrivate", err)
	}
}
