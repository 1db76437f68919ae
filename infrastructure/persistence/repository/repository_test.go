package repository

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/emberchat/ember/domain/model"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func testTracer() trace.Tracer {
	return otel.Tracer("repository-test")
}

func newTestRoom(id string) *model.Room {
	return &model.Room{
		ID:        id,
		Type:      model.RoomTypePrivate,
		MaxUsers:  2,
		E2EE:      true,
		CreatedAt: time.Now(),
	}
}
