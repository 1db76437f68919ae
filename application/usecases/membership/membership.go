package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emberchat/ember/domain/model"
	"github.com/emberchat/ember/domain/repository"
	"github.com/emberchat/ember/infrastructure/config"
	"github.com/emberchat/ember/infrastructure/events"
	"github.com/emberchat/ember/infrastructure/logger"
	"github.com/emberchat/ember/infrastructure/metrics"
	"go.uber.org/zap"
)

// MembershipUseCase arbitrates who holds a connected slot. All capacity
// decisions happen inside single atomic store operations; nothing is cached
// in process, so any number of workers can call this concurrently.
type MembershipUseCase interface {
	// Admit resolves an admission attempt: an existing member passes
	// through, a token in grace reclaims its slot, anyone else races for a
	// free slot. On Full no state is mutated and the returned token is
	// empty.
	Admit(ctx context.Context, roomID, existingToken, username string) (string, model.JoinOutcome, error)
	// Leave moves the token into the grace set. It succeeds even when the
	// token was never connected, so unload beacons can fire blindly.
	Leave(ctx context.Context, roomID, token, username string) error
	IsMember(ctx context.Context, roomID, token string) (bool, error)
	IsInGrace(ctx context.Context, roomID, token string) (bool, error)
	// NotifyTyping relays a typing signal from a connected member.
	NotifyTyping(ctx context.Context, roomID, token, sender string, isTyping bool) error
}

type membershipUseCase struct {
	rooms      repository.RoomRepository
	membership repository.MembershipRepository
	notifier   *events.Notifier
	cfg        config.RoomConfig
	logger     *logger.Logger
}

func NewMembershipUseCase(
	rooms repository.RoomRepository,
	membership repository.MembershipRepository,
	notifier *events.Notifier,
	cfg config.RoomConfig,
	logger *logger.Logger,
) MembershipUseCase {
	return &membershipUseCase{
		rooms:      rooms,
		membership: membership,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
	}
}

func (uc *membershipUseCase) Admit(ctx context.Context, roomID, existingToken, username string) (string, model.JoinOutcome, error) {
	room, err := uc.rooms.Get(ctx, roomID)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return "", model.Full, err
		}
		uc.logger.Error("failed to get room", zap.Error(err), zap.String("roomID", roomID))
		return "", model.Full, fmt.Errorf("failed to get room: %w", err)
	}

	if existingToken != "" {
		member, err := uc.membership.IsMember(ctx, roomID, existingToken)
		if err != nil {
			return "", model.Full, fmt.Errorf("failed to check membership: %w", err)
		}
		if member {
			metrics.JoinAttempts.WithLabelValues("admitted").Inc()
			return existingToken, model.Admitted, nil
		}

		// A token in grace still owns its logical slot, so the move back
		// bypasses the capacity gate. If a concurrent grace expiry wins the
		// race the token falls through to a fresh join below.
		rejoined, err := uc.membership.Rejoin(ctx, roomID, existingToken)
		if err != nil {
			return "", model.Full, fmt.Errorf("failed to rejoin from grace: %w", err)
		}
		if rejoined {
			uc.alignTTL(ctx, roomID)
			metrics.JoinAttempts.WithLabelValues("rejoined").Inc()
			uc.logger.Info("token rejoined from grace", zap.String("roomID", roomID))
			return existingToken, model.Admitted, nil
		}
	}

	token := newToken()
	admitted, err := uc.membership.Join(ctx, roomID, token, room.MaxUsers)
	if err != nil {
		uc.logger.Error("join failed", zap.Error(err), zap.String("roomID", roomID))
		return "", model.Full, fmt.Errorf("failed to join room: %w", err)
	}
	if !admitted {
		metrics.JoinAttempts.WithLabelValues("full").Inc()
		uc.logger.Info("room full", zap.String("roomID", roomID))
		return "", model.Full, nil
	}

	uc.alignTTL(ctx, roomID)

	if username != "" {
		uc.notifier.PublishAsync(roomID, events.Join{
			Username:  username,
			Timestamp: time.Now().UnixMilli(),
		})
		metrics.EventsPublished.WithLabelValues(string(events.KindJoin)).Inc()
	}

	metrics.JoinAttempts.WithLabelValues("admitted").Inc()
	uc.logger.Info("token admitted", zap.String("roomID", roomID))
	return token, model.Admitted, nil
}

func (uc *membershipUseCase) Leave(ctx context.Context, roomID, token, username string) error {
	if err := uc.membership.Leave(ctx, roomID, token, uc.cfg.LeaveGrace); err != nil {
		uc.logger.Error("leave failed", zap.Error(err), zap.String("roomID", roomID))
		return fmt.Errorf("failed to leave room: %w", err)
	}

	if username != "" {
		uc.notifier.PublishAsync(roomID, events.Leave{
			Username:  username,
			Timestamp: time.Now().UnixMilli(),
		})
		metrics.EventsPublished.WithLabelValues(string(events.KindLeave)).Inc()
	}

	metrics.Leaves.Inc()
	uc.logger.Info("token left room", zap.String("roomID", roomID))
	return nil
}

func (uc *membershipUseCase) IsMember(ctx context.Context, roomID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return uc.membership.IsMember(ctx, roomID, token)
}

func (uc *membershipUseCase) IsInGrace(ctx context.Context, roomID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return uc.membership.IsInGrace(ctx, roomID, token)
}

func (uc *membershipUseCase) NotifyTyping(ctx context.Context, roomID, token, sender string, isTyping bool) error {
	member, err := uc.membership.IsMember(ctx, roomID, token)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !member {
		return model.ErrUnauthorized
	}

	uc.notifier.PublishAsync(roomID, events.Typing{
		Sender:   sender,
		IsTyping: isTyping,
	})
	metrics.EventsPublished.WithLabelValues(string(events.KindTyping)).Inc()
	return nil
}

// alignTTL keeps the connected set from outliving the room. Failure is
// tolerable; the set still expires on its previous deadline.
func (uc *membershipUseCase) alignTTL(ctx context.Context, roomID string) {
	if err := uc.membership.AlignTTL(ctx, roomID); err != nil {
		uc.logger.Warn("failed to align connected ttl", zap.Error(err), zap.String("roomID", roomID))
	}
}
