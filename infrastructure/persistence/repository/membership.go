package repository

import (
	"context"
	"time"

	"github.com/emberchat/ember/domain/model"
	"github.com/emberchat/ember/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type membershipRepository struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewMembershipRepository(client *redis.Client, tracer trace.Tracer) repository.MembershipRepository {
	return &membershipRepository{
		client: client,
		tracer: tracer,
	}
}

func (r *membershipRepository) Join(ctx context.Context, roomID, token string, maxUsers int) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "membershipRepository.Join")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", roomID),
		attribute.Int("room.max_users", maxUsers),
	)

	res, err := r.client.Eval(ctx, joinScript, []string{connectedKey(roomID)}, token, maxUsers).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "join script failed")
		return false, err
	}

	admitted := res.(int64) == 1
	span.SetAttributes(attribute.Bool("room.admitted", admitted))
	span.SetStatus(codes.Ok, "join script executed")
	return admitted, nil
}

func (r *membershipRepository) Leave(ctx context.Context, roomID, token string, grace time.Duration) error {
	ctx, span := r.tracer.Start(ctx, "membershipRepository.Leave")
	defer span.End()

	span.SetAttributes(
		attribute.String("room.id", roomID),
		attribute.Int64("room.grace_seconds", int64(grace.Seconds())),
	)

	err := r.client.Eval(ctx, leaveScript,
		[]string{connectedKey(roomID), leavingKey(roomID)},
		token, int(grace.Seconds()),
	).Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "leave script failed")
		return err
	}

	span.SetStatus(codes.Ok, "token moved to leaving set")
	return nil
}

func (r *membershipRepository) Rejoin(ctx context.Context, roomID, token string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "membershipRepository.Rejoin")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	moved, err := r.client.SMove(ctx, leavingKey(roomID), connectedKey(roomID), token).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "smove failed")
		return false, err
	}

	span.SetAttributes(attribute.Bool("room.rejoined", moved))
	span.SetStatus(codes.Ok, "rejoin executed")
	return moved, nil
}

func (r *membershipRepository) IsMember(ctx context.Context, roomID, token string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "membershipRepository.IsMember")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	member, err := r.client.SIsMember(ctx, connectedKey(roomID), token).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sismember failed")
		return false, err
	}
	return member, nil
}

func (r *membershipRepository) IsInGrace(ctx context.Context, roomID, token string) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "membershipRepository.IsInGrace")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	inGrace, err := r.client.SIsMember(ctx, leavingKey(roomID), token).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sismember failed")
		return false, err
	}
	return inGrace, nil
}

func (r *membershipRepository) ConnectedCount(ctx context.Context, roomID string) (int, error) {
	ctx, span := r.tracer.Start(ctx, "membershipRepository.ConnectedCount")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	count, err := r.client.SCard(ctx, connectedKey(roomID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scard failed")
		return 0, err
	}

	span.SetAttributes(attribute.Int64("room.connected_count", count))
	return int(count), nil
}

func (r *membershipRepository) AlignTTL(ctx context.Context, roomID string) error {
	ctx, span := r.tracer.Start(ctx, "membershipRepository.AlignTTL")
	defer span.End()

	span.SetAttributes(attribute.String("room.id", roomID))

	ttl, err := r.client.TTL(ctx, metaKey(roomID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read room ttl")
		return err
	}
	if ttl < 0 {
		return model.ErrRoomNotFound
	}

	if err := r.client.Expire(ctx, connectedKey(roomID), ttl).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to align connected ttl")
		return err
	}

	span.SetStatus(codes.Ok, "connected ttl aligned with room ttl")
	return nil
}
