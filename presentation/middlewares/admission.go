package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	membershipUseCase "github.com/emberchat/ember/application/usecases/membership"
	"github.com/emberchat/ember/domain/model"
	"github.com/emberchat/ember/infrastructure/config"
	"github.com/emberchat/ember/infrastructure/logger"
	"github.com/emberchat/ember/infrastructure/security"
)

// AdmissionMiddleware is the gate in front of the room page/socket. A cookie
// token that is already a member or in grace passes through without touching
// the capacity gate; anyone else races for a free slot through the atomic
// join. A full room is a distinct signal, not an auth failure.
func AdmissionMiddleware(membership membershipUseCase.MembershipUseCase, cfg *config.Config, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		existing := security.GetAuthToken(c.Request)
		username := c.Query("username")

		token, outcome, err := membership.Admit(c.Request.Context(), roomID, existing, username)
		if err != nil {
			if errors.Is(err, model.ErrRoomNotFound) {
				c.JSON(http.StatusNotFound, gin.H{
					"error":   "room_not_found",
					"message": "room does not exist or has expired",
				})
				c.Abort()
				return
			}
			logger.Error("admission failed", zap.Error(err), zap.String("roomID", roomID))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "internal server error",
			})
			c.Abort()
			return
		}

		if outcome == model.Full {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "room_full",
				"message": "room is at capacity",
			})
			c.Abort()
			return
		}

		if token != existing {
			security.SetAuthToken(c.Writer, token, cfg.IsProduction(), cfg.Room.MaxSessionAge)
		}

		c.Set(TokenContextKey, token)
		c.Next()
	}
}
