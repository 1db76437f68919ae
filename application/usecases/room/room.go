package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emberchat/ember/domain/model"
	"github.com/emberchat/ember/domain/repository"
	"github.com/emberchat/ember/infrastructure/config"
	"github.com/emberchat/ember/infrastructure/events"
	"github.com/emberchat/ember/infrastructure/keystore"
	"github.com/emberchat/ember/infrastructure/logger"
	"github.com/emberchat/ember/infrastructure/metrics"
	"go.uber.org/zap"
)

type RoomUseCase interface {
	Create(ctx context.Context, roomType model.RoomType, publicKey string, requestedTTL time.Duration) (*model.Room, error)
	GetInfo(ctx context.Context, roomID, token string) (*model.RoomInfo, error)
	Extend(ctx context.Context, roomID, token string) (*model.ExtendResult, error)
	Destroy(ctx context.Context, roomID, token string) error
	Keys(ctx context.Context, roomID, token string) (*model.RoomKeys, error)
	SubmitKey(ctx context.Context, roomID, token, publicKey, username string) error
}

type roomUseCase struct {
	rooms      repository.RoomRepository
	membership repository.MembershipRepository
	notifier   *events.Notifier
	keys       *keystore.Store
	cfg        config.RoomConfig
	logger     *logger.Logger
}

func NewRoomUseCase(
	rooms repository.RoomRepository,
	membership repository.MembershipRepository,
	notifier *events.Notifier,
	keys *keystore.Store,
	cfg config.RoomConfig,
	logger *logger.Logger,
) RoomUseCase {
	return &roomUseCase{
		rooms:      rooms,
		membership: membership,
		notifier:   notifier,
		keys:       keys,
		cfg:        cfg,
		logger:     logger,
	}
}

func (uc *roomUseCase) Create(ctx context.Context, roomType model.RoomType, publicKey string, requestedTTL time.Duration) (*model.Room, error) {
	if roomType == "" {
		roomType = model.RoomTypePrivate
	}
	if !roomType.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidType, roomType)
	}

	ttl := uc.cfg.DefaultTTL
	if requestedTTL != 0 {
		if !uc.cfg.IsAllowedTTL(requestedTTL) {
			return nil, model.ErrInvalidTTL
		}
		ttl = requestedTTL
	}

	room := &model.Room{
		ID:        newRoomID(),
		Type:      roomType,
		MaxUsers:  uc.cfg.MaxUsersFor(roomType),
		E2EE:      roomType == model.RoomTypePrivate,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	if room.E2EE {
		room.CreatorPublicKey = publicKey
	}

	if err := uc.rooms.Create(ctx, room, ttl); err != nil {
		uc.logger.Error("failed to create room", zap.Error(err), zap.String("roomID", room.ID))
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	metrics.RoomsCreated.WithLabelValues(string(room.Type)).Inc()
	uc.logger.Info("room created",
		zap.String("roomID", room.ID),
		zap.String("type", string(room.Type)),
		zap.Duration("ttl", ttl),
	)
	return room, nil
}

func (uc *roomUseCase) GetInfo(ctx context.Context, roomID, token string) (*model.RoomInfo, error) {
	room, err := uc.authorized(ctx, roomID, token)
	if err != nil {
		return nil, err
	}

	count, err := uc.membership.ConnectedCount(ctx, roomID)
	if err != nil {
		uc.logger.Error("failed to count connected members", zap.Error(err), zap.String("roomID", roomID))
		return nil, fmt.Errorf("failed to read room membership: %w", err)
	}

	return &model.RoomInfo{
		Type:           room.Type,
		MaxUsers:       room.MaxUsers,
		E2EE:           room.E2EE,
		ConnectedCount: count,
		TTL:            int64(room.TTL.Seconds()),
	}, nil
}

// Extend pushes the room's remaining TTL up by the configured increment.
// Hitting the max session age is a soft cap reported as data, so clients can
// tell the 7-day ceiling apart from a transport failure.
func (uc *roomUseCase) Extend(ctx context.Context, roomID, token string) (*model.ExtendResult, error) {
	room, err := uc.authorized(ctx, roomID, token)
	if err != nil {
		return nil, err
	}

	newTTL := room.TTL + uc.cfg.ExtendIncrement
	age := room.Age(time.Now())
	if age+newTTL > uc.cfg.MaxSessionAge {
		metrics.Extends.WithLabelValues(model.ExtendResultMaxReached).Inc()
		uc.logger.Info("extension refused, max session age reached",
			zap.String("roomID", roomID),
			zap.Duration("age", age),
		)
		return &model.ExtendResult{
			Success: false,
			TTL:     int64(room.TTL.Seconds()),
			Err:     model.ExtendResultMaxReached,
			Message: "maximum session age reached",
		}, nil
	}

	if err := uc.rooms.Extend(ctx, roomID, newTTL); err != nil {
		var partial *repository.PartialExtendError
		if !errors.As(err, &partial) {
			uc.logger.Error("failed to extend room", zap.Error(err), zap.String("roomID", roomID))
			return nil, fmt.Errorf("failed to extend room: %w", err)
		}
		// Metadata extended; membership keys catch up on the next refresh.
		uc.logger.Warn("membership ttl refresh incomplete", zap.Error(partial), zap.String("roomID", roomID))
	}

	metrics.Extends.WithLabelValues("extended").Inc()
	uc.logger.Info("room extended", zap.String("roomID", roomID), zap.Duration("ttl", newTTL))
	return &model.ExtendResult{
		Success: true,
		TTL:     int64(newTTL.Seconds()),
		Message: "room extended",
	}, nil
}

func (uc *roomUseCase) Destroy(ctx context.Context, roomID, token string) error {
	if _, err := uc.authorized(ctx, roomID, token); err != nil {
		return err
	}

	// Best-effort broadcast before the keys go away; a publish failure must
	// not keep the room alive.
	if err := uc.notifier.Publish(ctx, roomID, events.Destroy{IsDestroyed: true}); err != nil {
		uc.logger.Warn("destroy event publish failed", zap.Error(err), zap.String("roomID", roomID))
	} else {
		metrics.EventsPublished.WithLabelValues(string(events.KindDestroy)).Inc()
	}

	if err := uc.rooms.Delete(ctx, roomID); err != nil {
		uc.logger.Error("failed to delete room", zap.Error(err), zap.String("roomID", roomID))
		return fmt.Errorf("failed to destroy room: %w", err)
	}

	uc.keys.Delete(roomID)

	metrics.RoomsDestroyed.Inc()
	uc.logger.Info("room destroyed", zap.String("roomID", roomID))
	return nil
}

func (uc *roomUseCase) Keys(ctx context.Context, roomID, token string) (*model.RoomKeys, error) {
	room, err := uc.authorized(ctx, roomID, token)
	if err != nil {
		return nil, err
	}

	return &model.RoomKeys{
		CreatorPublicKey: room.CreatorPublicKey,
		JoinerPublicKey:  room.JoinerPublicKey,
	}, nil
}

func (uc *roomUseCase) SubmitKey(ctx context.Context, roomID, token, publicKey, username string) error {
	room, err := uc.authorized(ctx, roomID, token)
	if err != nil {
		return err
	}
	if !room.E2EE {
		return model.ErrNotPrivate
	}

	slot := repository.KeySlotJoiner
	if room.CreatorPublicKey == "" {
		slot = repository.KeySlotCreator
	}

	if err := uc.rooms.StorePublicKey(ctx, roomID, slot, publicKey); err != nil {
		uc.logger.Error("failed to store public key", zap.Error(err), zap.String("roomID", roomID))
		return fmt.Errorf("failed to store public key: %w", err)
	}

	uc.notifier.PublishAsync(roomID, events.KeyExchange{
		PublicKey: publicKey,
		Username:  username,
	})
	metrics.EventsPublished.WithLabelValues(string(events.KindKeyExchange)).Inc()

	uc.logger.Info("public key stored",
		zap.String("roomID", roomID),
		zap.String("slot", string(slot)),
	)
	return nil
}

// authorized loads the room and verifies the token holds a connected slot in
// it. Absence of the room wins over a bad token so callers can map the two
// failures to distinct statuses.
func (uc *roomUseCase) authorized(ctx context.Context, roomID, token string) (*model.Room, error) {
	room, err := uc.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return nil, err
		}
		uc.logger.Error("failed to get room", zap.Error(err), zap.String("roomID", roomID))
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if token == "" {
		return nil, model.ErrUnauthorized
	}
	member, err := uc.membership.IsMember(ctx, roomID, token)
	if err != nil {
		uc.logger.Error("failed to check membership", zap.Error(err), zap.String("roomID", roomID))
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return nil, model.ErrUnauthorized
	}
	return room, nil
}
