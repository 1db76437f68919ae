package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	membershipUseCase "github.com/emberchat/ember/application/usecases/membership"
	"github.com/emberchat/ember/infrastructure/config"
	"github.com/emberchat/ember/infrastructure/logger"
	roomController "github.com/emberchat/ember/presentation/controllers/room"
	"github.com/emberchat/ember/presentation/middlewares"
)

// RoomRoutes wires the room lifecycle surface. Creation is open; entering a
// room goes through the admission gate; everything else requires the token
// issued at admission.
func RoomRoutes(
	router *gin.RouterGroup,
	controller roomController.RoomController,
	membership membershipUseCase.MembershipUseCase,
	cfg *config.Config,
	redisClient *redis.Client,
	logger *logger.Logger,
) {
	rooms := router.Group("/rooms")
	{
		rooms.POST("",
			middlewares.RateLimiterMiddleware(redisClient, logger, middlewares.StrictRateLimiterConfig()),
			controller.CreateRoom,
		)

		rooms.GET("/:roomId/enter",
			middlewares.AdmissionMiddleware(membership, cfg, logger),
			controller.EnterRoom,
		)

		authed := rooms.Group("/:roomId")
		authed.Use(middlewares.AuthMiddleware())
		{
			authed.GET("/info", controller.GetRoomInfo)
			authed.PATCH("", controller.ExtendRoom)
			authed.DELETE("", controller.DestroyRoom)
			authed.POST("/leave", controller.LeaveRoom)
			authed.GET("/keys", controller.GetKeys)
			authed.PUT("/keys", controller.PutKey)
			authed.POST("/typing",
				middlewares.RateLimiterMiddleware(redisClient, logger, middlewares.TypingRateLimiterConfig()),
				controller.Typing,
			)
		}
	}
}
