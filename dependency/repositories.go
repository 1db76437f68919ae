package dependency

import (
	"github.com/emberchat/ember/infrastructure/cache"
	"github.com/emberchat/ember/infrastructure/persistence/repository"
)

func (c *Container) initRepositories() {
	redisClient := cache.GetRedis()

	c.RoomRepo = repository.NewRoomRepository(redisClient, c.tracer)
	c.MembershipRepo = repository.NewMembershipRepository(redisClient, c.tracer)

	c.Logger.Info("Repositories initialized successfully")
}
