// Package app assembles the API: stores, event plumbing, services and the
// HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"toursApi/internal/config"
	bookingsusecase "toursApi/internal/modules/bookings/application/usecase"
	bookingsinfra "toursApi/internal/modules/bookings/infrastructure"
	bookingstransport "toursApi/internal/modules/bookings/interface"
	mediausecase "toursApi/internal/modules/media/application/usecase"
	mediainfra "toursApi/internal/modules/media/infrastructure"
	query "toursApi/internal/modules/query/domain"
	realtimehandler "toursApi/internal/modules/realtime/application/handler"
	realtimeusecase "toursApi/internal/modules/realtime/application/usecase"
	realtimeinfra "toursApi/internal/modules/realtime/infrastructure"
	realtimetransport "toursApi/internal/modules/realtime/interface"
	"toursApi/internal/modules/resource/application/port"
	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resourcetransport "toursApi/internal/modules/resource/interface"
	reviewsusecase "toursApi/internal/modules/reviews/application/usecase"
	reviewstransport "toursApi/internal/modules/reviews/interface"
	toursusecase "toursApi/internal/modules/tours/application/usecase"
	tours "toursApi/internal/modules/tours/domain"
	tourstransport "toursApi/internal/modules/tours/interface"
	usersusecase "toursApi/internal/modules/users/application/usecase"
	users "toursApi/internal/modules/users/domain"
	usersinfra "toursApi/internal/modules/users/infrastructure"
	userstransport "toursApi/internal/modules/users/interface"
	"toursApi/internal/platform/broker"
	"toursApi/internal/platform/storage"
	"toursApi/internal/shared/auth"
	"toursApi/internal/shared/events"
	"toursApi/internal/shared/metrics"
)

// Entities publish lifecycle events and are consumed back from Kafka.
var Entities = []string{"tour", "user", "review", "booking"}

// App is the assembled API server.
type App struct {
	Echo *echo.Echo
	Hub  *realtimeinfra.Hub

	cfg     *config.Config
	logger  *slog.Logger
	stores  *Stores
	kafka   *broker.KafkaPublisher
	metrics *metrics.Metrics
	cancel  context.CancelFunc
}

type services struct {
	tours    *toursusecase.Service
	users    *resourceusecase.Service
	reviews  *resourceusecase.Service
	bookings *bookingsusecase.Service
	auth     *usersusecase.AuthService
	account  *usersusecase.AccountService
	images   *mediausecase.Processor
}

// New opens the stores and wires every module. Background consumers stop
// when Shutdown is called.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	stores, err := OpenStores(ctx, cfg.Database, hasher)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a := &App{
		Hub:     realtimeinfra.NewHub(),
		cfg:     cfg,
		logger:  logger,
		stores:  stores,
		metrics: metrics.New(),
		cancel:  cancel,
	}

	registry := events.NewRegistry()
	var publisher events.Publisher = events.NewLocalPublisher(registry)
	if len(cfg.Kafka.Brokers) > 0 {
		a.kafka = broker.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix)
		publisher = a.kafka
		broker.StartKafkaConsumers(runCtx, registry, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.TopicPrefix, broker.EntityTopics(Entities...))
		logger.Info("kafka events enabled", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("group", cfg.Kafka.GroupID))
	}

	for _, h := range reviewsusecase.NewRatings(stores.Reviews, stores.Tours).Handlers() {
		registry.Register(h)
	}
	registry.Register(realtimehandler.NewEventForwarder(realtimeusecase.NewBroadcastUseCase(a.Hub)))
	registry.Register(a.metrics.EventCounter())

	svc, err := a.services(stores, publisher, hasher)
	if err != nil {
		_ = a.Shutdown(context.Background())
		return nil, err
	}
	a.Echo = a.server(svc)
	return a, nil
}

func (a *App) services(stores *Stores, publisher events.Publisher, hasher auth.PasswordHasher) (*services, error) {
	cfg := a.cfg
	listOptions := func(multi ...string) resourceusecase.Option {
		return resourceusecase.WithQueryOptions(query.Options{
			MultiValueFields: multi,
			DefaultLimit:     cfg.Query.DefaultLimit,
			MaxLimit:         cfg.Query.MaxLimit,
		})
	}
	resources := func(store port.Store, opts ...resourceusecase.Option) *resourceusecase.Service {
		opts = append(opts, resourceusecase.WithPublisher(publisher))
		return resourceusecase.NewService(store, opts...)
	}

	objects, err := storage.NewClient(storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
		PublicDir: cfg.Storage.PublicDir,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	images := mediausecase.NewProcessor(objects, mediainfra.NewImageResizer())

	tourResources := resources(stores.Tours, resourceusecase.WithRelation(tours.Reviews), listOptions(tours.MultiValueFields...))
	userResources := resources(stores.Users, listOptions())
	reviewResources := resources(stores.Reviews, listOptions())
	bookingResources := resources(stores.Bookings, listOptions())

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)
	mailer := usersinfra.NewLogMailer(cfg.Mail.From, a.logger)

	return &services{
		tours:    toursusecase.NewService(tourResources, stores.Analytics),
		users:    userResources,
		reviews:  reviewResources,
		bookings: bookingsusecase.NewService(bookingResources, tourResources, stores.Users, bookingsinfra.ExcelSheet{}, bookingsusecase.WebhookConfig{Secret: cfg.Payments.WebhookSecret, Tolerance: cfg.Payments.Tolerance}),
		auth:     usersusecase.NewAuthService(userResources, tokens, hasher, mailer),
		account:  usersusecase.NewAccountService(userResources, images),
		images:   images,
	}, nil
}

func (a *App) routes(api *echo.Group, svc *services) {
	access := userstransport.Access(svc.auth)
	v1 := api.Group("/v1")

	toursGroup := v1.Group("/tours")
	tourstransport.NewHandler(svc.tours, svc.images).Routes(toursGroup, access)
	reviewsHandler := reviewstransport.NewHandler(svc.reviews, userstransport.CurrentUserID)
	reviewsHandler.NestedRoutes(toursGroup, access)
	reviewsHandler.Routes(v1.Group("/reviews"), access)

	cookie := userstransport.CookieOptions{TTL: a.cfg.Auth.CookieExpires, Secure: !a.cfg.App.Development()}
	userstransport.NewHandler(svc.auth, svc.account, resourcetransport.NewHandler(svc.users), cookie).
		Routes(v1.Group("/users"), access)

	bookingstransport.NewHandler(svc.bookings, userstransport.CurrentUserID).Routes(v1.Group("/bookings"), access)

	v1.GET("/live", realtimetransport.NewLiveHandler(a.Hub, svc.auth.Authenticate, users.RoleAdmin, users.RoleLeadGuide))
}

// Start serves HTTP until the server is shut down.
func (a *App) Start() error {
	addr := ":" + a.cfg.App.Port
	a.logger.Info("http server starting", slog.String("addr", addr), slog.String("env", a.cfg.App.Env), slog.String("driver", a.cfg.Database.Driver))
	if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, stops consumers and releases the
// broker and database connections.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Echo != nil {
		errs = append(errs, a.Echo.Shutdown(ctx))
	}
	a.cancel()
	if a.kafka != nil {
		errs = append(errs, a.kafka.Close())
	}
	errs = append(errs, a.stores.Close(ctx))
	return errors.Join(errs...)
}
