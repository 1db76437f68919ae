package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/emberchat/ember/domain/model"
	"github.com/emberchat/ember/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	fieldCreatedAt = "createdAt"
	fieldType      = "type"
	fieldMaxUsers  = "maxUsers"
	fieldE2EE      = "e2ee"
	fieldTTL       = "ttl"
)

type roomRepository struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewRoomRepository(client *redis.Client, tracer trace.Tracer) repository.RoomRepository {
	return &roomRepository{
		client: client,
		tracer: tracer,
	}
}

func (r *roomRepository) Create(ctx context.Context, room *model.Room, ttl time.Duration) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", room.ID),
		attribute.String("room.type", string(room.Type)),
		attribute.Int64("room.ttl_seconds", int64(ttl.Seconds())),
	)

	fields := map[string]any{
		fieldCreatedAt: room.CreatedAt.UnixMilli(),
		fieldType:      string(room.Type),
		fieldMaxUsers:  room.MaxUsers,
		fieldE2EE:      boolField(room.E2EE),
		fieldTTL:       int64(ttl.Seconds()),
	}
	if room.CreatorPublicKey != "" {
		fields[string(repository.KeySlotCreator)] = room.CreatorPublicKey
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, metaKey(room.ID), fields)
	pipe.Expire(ctx, metaKey(room.ID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist room metadata")
		return err
	}

	span.SetStatus(codes.Ok, "room created")
	return nil
}

func (r *roomRepository) Get(ctx context.Context, roomID string) (*model.Room, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Get")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	fields, err := r.client.HGetAll(ctx, metaKey(roomID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read room metadata")
		return nil, err
	}
	if len(fields) == 0 {
		span.SetAttributes(attribute.Bool("room.found", false))
		return nil, model.ErrRoomNotFound
	}

	ttl, err := r.client.TTL(ctx, metaKey(roomID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read room ttl")
		return nil, err
	}
	if ttl < 0 {
		// Key vanished between the two reads.
		return nil, model.ErrRoomNotFound
	}

	room, err := roomFromFields(roomID, fields, ttl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt room metadata")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("room.found", true))
	span.SetStatus(codes.Ok, "room retrieved")
	return room, nil
}

func (r *roomRepository) TTL(ctx context.Context, roomID string) (time.Duration, error) {
	ctx, span := r.tracer.Start(ctx, "roomRepository.TTL")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	ttl, err := r.client.TTL(ctx, metaKey(roomID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read room ttl")
		return 0, err
	}
	if ttl < 0 {
		return 0, model.ErrRoomNotFound
	}
	return ttl, nil
}

func (r *roomRepository) Extend(ctx context.Context, roomID string, ttl time.Duration) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Extend")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", roomID),
		attribute.Int64("room.ttl_seconds", int64(ttl.Seconds())),
	)

	ok, err := r.client.Expire(ctx, metaKey(roomID), ttl).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extend room metadata ttl")
		return err
	}
	if !ok {
		return model.ErrRoomNotFound
	}

	if err := r.client.HSet(ctx, metaKey(roomID), fieldTTL, int64(ttl.Seconds())).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record new ttl")
		return err
	}

	// Membership keys are refreshed best-effort: a miss here is self-healing,
	// bounded by the shorter surviving TTL.
	var partial []error
	for _, key := range []string{connectedKey(roomID), leavingKey(roomID)} {
		if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
			partial = append(partial, err)
		}
	}
	if len(partial) > 0 {
		err := &repository.PartialExtendError{RoomID: roomID, Underlying: errors.Join(partial...)}
		span.RecordError(err)
		span.SetStatus(codes.Ok, "metadata extended, membership refresh incomplete")
		return err
	}

	span.SetStatus(codes.Ok, "room extended")
	return nil
}

func (r *roomRepository) Delete(ctx context.Context, roomID string) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	err := r.client.Del(ctx, metaKey(roomID), connectedKey(roomID), leavingKey(roomID)).Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete room keys")
		return err
	}

	span.SetStatus(codes.Ok, "room deleted")
	return nil
}

func (r *roomRepository) StorePublicKey(ctx context.Context, roomID string, slot repository.KeySlot, publicKey string) error {
	ctx, span := r.tracer.Start(ctx, "roomRepository.StorePublicKey")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", roomID),
		attribute.String("room.key_slot", string(slot)),
	)

	res, err := r.client.Eval(ctx, storeKeyScript, []string{metaKey(roomID)}, string(slot), publicKey).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store public key")
		return err
	}
	if stored, ok := res.(int64); !ok || stored != 1 {
		return model.ErrRoomNotFound
	}

	span.SetStatus(codes.Ok, "public key stored")
	return nil
}

func roomFromFields(roomID string, fields map[string]string, ttl time.Duration) (*model.Room, error) {
	createdMs, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, errors.New("room metadata missing createdAt")
	}
	maxUsers, err := strconv.Atoi(fields[fieldMaxUsers])
	if err != nil {
		return nil, errors.New("room metadata missing maxUsers")
	}

	return &model.Room{
		ID:               roomID,
		Type:             model.RoomType(fields[fieldType]),
		MaxUsers:         maxUsers,
		E2EE:             fields[fieldE2EE] == "1",
		CreatedAt:        time.UnixMilli(createdMs),
		TTL:              ttl,
		CreatorPublicKey: fields[string(repository.KeySlotCreator)],
		JoinerPublicKey:  fields[string(repository.KeySlotJoiner)],
	}, nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
