package dependency

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	membershipUseCase "github.com/emberchat/ember/application/usecases/membership"
	roomUseCase "github.com/emberchat/ember/application/usecases/room"
	"github.com/emberchat/ember/domain/repository"
	"github.com/emberchat/ember/infrastructure/cache"
	"github.com/emberchat/ember/infrastructure/config"
	"github.com/emberchat/ember/infrastructure/events"
	"github.com/emberchat/ember/infrastructure/keystore"
	"github.com/emberchat/ember/infrastructure/logger"
	"github.com/emberchat/ember/infrastructure/metrics"
	roomController "github.com/emberchat/ember/presentation/controllers/room"
)

type Container struct {
	Config *config.Config
	Logger *logger.Logger

	TracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	MetricsManager metrics.Manager

	RoomRepo       repository.RoomRepository
	MembershipRepo repository.MembershipRepository

	Notifier *events.Notifier
	KeyStore *keystore.Store

	RoomUC       roomUseCase.RoomUseCase
	MembershipUC membershipUseCase.MembershipUseCase

	RoomController roomController.RoomController
}

func NewContainer() (*Container, error) {
	c := &Container{}

	c.Config = config.GetConfig()

	loggerInstance, err := logger.NewLogger(c.Config.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	c.Logger = loggerInstance

	c.Logger.Info("Initializing Ember API dependencies")
	if err := cache.InitRedis(c.Config); err != nil {
		return nil, fmt.Errorf("error initializing cache: %w", err)
	}

	if err := c.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("error initializing infrastructure: %w", err)
	}

	c.initRepositories()

	c.initUseCases()

	c.initControllers()

	c.Logger.Info("All dependencies initialized successfully")

	return c, nil
}
