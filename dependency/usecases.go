package dependency

import (
	membershipUseCase "github.com/emberchat/ember/application/usecases/membership"
	roomUseCase "github.com/emberchat/ember/application/usecases/room"
)

func (c *Container) initUseCases() {
	c.RoomUC = roomUseCase.NewRoomUseCase(c.RoomRepo, c.MembershipRepo, c.Notifier, c.KeyStore, c.Config.Room, c.Logger)
	c.MembershipUC = membershipUseCase.NewMembershipUseCase(c.RoomRepo, c.MembershipRepo, c.Notifier, c.Config.Room, c.Logger)

	c.Logger.Info("Use cases initialized successfully")
}
