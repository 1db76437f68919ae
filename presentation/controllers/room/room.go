package room

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	membershipUseCase "github.com/emberchat/ember/application/usecases/membership"
	roomUseCase "github.com/emberchat/ember/application/usecases/room"
	"github.com/emberchat/ember/domain/model"
	"github.com/emberchat/ember/infrastructure/security"
	"github.com/emberchat/ember/presentation/middlewares"
)

type RoomController interface {
	CreateRoom(ctx *gin.Context)
	EnterRoom(ctx *gin.Context)
	GetRoomInfo(ctx *gin.Context)
	ExtendRoom(ctx *gin.Context)
	DestroyRoom(ctx *gin.Context)
	LeaveRoom(ctx *gin.Context)
	GetKeys(ctx *gin.Context)
	PutKey(ctx *gin.Context)
	Typing(ctx *gin.Context)
}

type roomController struct {
	rooms      roomUseCase.RoomUseCase
	membership membershipUseCase.MembershipUseCase
}

func NewRoomController(
	rooms roomUseCase.RoomUseCase,
	membership membershipUseCase.MembershipUseCase,
) RoomController {
	return &roomController{
		rooms:      rooms,
		membership: membership,
	}
}

func (c *roomController) CreateRoom(ctx *gin.Context) {
	var req CreateRoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	room, err := c.rooms.Create(
		ctx.Request.Context(),
		model.RoomType(req.Type),
		req.PublicKey,
		time.Duration(req.TTL)*time.Second,
	)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, CreateRoomResponse{
		RoomID: room.ID,
		Type:   string(room.Type),
		E2EE:   room.E2EE,
		TTL:    int64(room.TTL.Seconds()),
	})
}

// EnterRoom runs behind the admission middleware: reaching it means the
// caller holds a connected slot and the token cookie is set.
func (c *roomController) EnterRoom(ctx *gin.Context) {
	roomID := ctx.Param("roomId")
	token := middlewares.GetAuthToken(ctx)

	info, err := c.rooms.GetInfo(ctx.Request.Context(), roomID, token)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, EnterRoomResponse{
		RoomID:   roomID,
		Type:     string(info.Type),
		E2EE:     info.E2EE,
		MaxUsers: info.MaxUsers,
		TTL:      info.TTL,
	})
}

func (c *roomController) GetRoomInfo(ctx *gin.Context) {
	info, err := c.rooms.GetInfo(ctx.Request.Context(), ctx.Param("roomId"), middlewares.GetAuthToken(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, info)
}

func (c *roomController) ExtendRoom(ctx *gin.Context) {
	result, err := c.rooms.Extend(ctx.Request.Context(), ctx.Param("roomId"), middlewares.GetAuthToken(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	// The soft cap is a 200 with success=false: clients must be able to
	// tell "seven day ceiling" from "request failed".
	ctx.JSON(http.StatusOK, result)
}

func (c *roomController) DestroyRoom(ctx *gin.Context) {
	err := c.rooms.Destroy(ctx.Request.Context(), ctx.Param("roomId"), middlewares.GetAuthToken(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	security.ClearAuthToken(ctx.Writer)
	ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (c *roomController) LeaveRoom(ctx *gin.Context) {
	var req LeaveRoomRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	// The cookie stays: the token needs to survive the grace window so a
	// reload can reclaim the slot.
	err := c.membership.Leave(ctx.Request.Context(), ctx.Param("roomId"), middlewares.GetAuthToken(ctx), req.Username)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (c *roomController) GetKeys(ctx *gin.Context) {
	keys, err := c.rooms.Keys(ctx.Request.Context(), ctx.Param("roomId"), middlewares.GetAuthToken(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, keys)
}

func (c *roomController) PutKey(ctx *gin.Context) {
	var req PutKeyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	err := c.rooms.SubmitKey(ctx.Request.Context(), ctx.Param("roomId"), middlewares.GetAuthToken(ctx), req.PublicKey, req.Username)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (c *roomController) Typing(ctx *gin.Context) {
	var req TypingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	err := c.membership.NotifyTyping(ctx.Request.Context(), ctx.Param("roomId"), middlewares.GetAuthToken(ctx), req.Username, req.IsTyping)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// respondError maps domain failures onto the HTTP surface. Internal detail
// never leaks; the wrapped error stays in the logs only.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		ctx.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "room not found",
		})
	case errors.Is(err, model.ErrUnauthorized):
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "token not valid for this room",
		})
	case errors.Is(err, model.ErrInvalidTTL), errors.Is(err, model.ErrInvalidType), errors.Is(err, model.ErrNotPrivate):
		ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, context.DeadlineExceeded):
		ctx.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "store_unavailable",
			Message: "try again shortly",
		})
	default:
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "internal server error",
		})
	}
}
