package main

import (
	"context"
	"embed"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"
	aqmevents "github.com/aquamarinepk/aqm/events"
	"github.com/aquamarinepk/aqm/middleware"

	"github.com/appetiteclub/appetite/services/seating/internal/events"
	"github.com/appetiteclub/appetite/services/seating/internal/mongo"
	"github.com/appetiteclub/appetite/services/seating/internal/tables"
	"github.com/appetiteclub/appetite/services/seating/pkg"
)

//go:embed seed.json
var seedFS embed.FS

const (
	appNamespace = "SEATING"
	appName      = "seating"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup with error: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	seedCtx, cancelSeeds := context.WithCancel(ctx)
	defer cancelSeeds()

	lifecycle := []interface{}{}

	tableRepo := mongo.NewTableRepo(config, logger)
	err = tableRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start table repository: %v", appName, appVersion, err)
	}

	db := tableRepo.GetDatabase()
	if db == nil {
		err := errors.New("cannot get table repo database")
		log.Fatalf("%s(%s) cannot initialize database: %v", appName, appVersion, err)
	}

	reservationRepo := mongo.NewReservationRepo(db)
	if err := reservationRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("%s(%s) cannot prepare reservations: %v", appName, appVersion, err)
	}
	assignmentRepo := mongo.NewAssignmentRepo(db)
	if err := assignmentRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("%s(%s) cannot prepare assignments: %v", appName, appVersion, err)
	}
	policyRepo := mongo.NewPolicyRepo(db)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	var publisher aqmevents.Publisher
	var closePublisher func() error
	if streamEnabled := config.GetStringOrDef("nats.stream.enabled", "false"); streamEnabled == "true" {
		stream, err := pkg.NewNATSStreamPublisher(ctx, pkg.DefaultStreamConfig(natsURL))
		if err != nil {
			log.Fatalf("%s(%s) cannot create NATS stream: %v", appName, appVersion, err)
		}
		logger.Info("NATS stream initialized for persistent events", "stream", pkg.SeatingStreamName)
		publisher, closePublisher = stream, stream.Close
	} else {
		plain, err := pkg.NewNATSPublisher(natsURL)
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
		}
		publisher, closePublisher = plain, plain.Close
	}

	subscriber, err := pkg.NewNATSSubscriber(natsURL, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}

	repos := tables.Repos{
		TableRepo:       tableRepo,
		ReservationRepo: reservationRepo,
		PolicyRepo:      policyRepo,
		AssignmentRepo:  assignmentRepo,
	}

	ledger := tables.NewLedger(assignmentRepo, logger)
	service := tables.NewService(
		tables.ServiceDeps{
			Repos:     repos,
			Ledger:    ledger,
			Notifier:  tables.NewEventNotifier(publisher, logger),
			Publisher: publisher,
		},
		tables.EngineConfigFrom(config, logger),
		logger,
	)
	statusSubscriber := events.NewReservationStatusSubscriber(subscriber, service, logger)

	engineLifecycle := engineHooks(service, statusSubscriber, subscriber.Close, closePublisher, logger)
	lifecycle = append(lifecycle, engineLifecycle)

	hd := tables.HandlerDeps{
		Service: service,
		Repos:   repos,
	}

	handler := tables.NewHandler(
		hd,
		config,
		logger,
	)

	if seeding := config.GetStringOrDef("seeding.enabled", "true"); seeding == "true" {
		seedHooks := aqm.LifecycleHooks{
			OnStart: tables.SeedingFunc(seedCtx, repos, seedFS, logger),
			OnStop:  tables.StopFunc(cancelSeeds),
		}
		lifecycle = append(lifecycle, seedHooks)
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: true,
	})
	stack = append(stack, middleware.InternalOnly())

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithLifecycle(lifecycle...),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		_ = tableRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	_ = tableRepo.Stop(context.Background())
	logger.Infof("%s(%s) stopped", appName, appVersion)
}

type component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// engineHooks starts the engine before its status feed and, on stop, closes
// the feed, drains pending notifications and only then closes the
// publisher. Keeping this in one hook fixes the order whatever order aqm
// stops hooks in.
func engineHooks(engine, feed component, closeFeed, closePublisher func() error, logger aqm.Logger) aqm.LifecycleHooks {
	return aqm.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if err := engine.Start(ctx); err != nil {
				return err
			}
			return feed.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			_ = feed.Stop(ctx)
			_ = closeFeed()
			if err := engine.Stop(ctx); err != nil {
				logger.Error("pending notifications not delivered", "error", err)
			}
			return closePublisher()
		},
	}
}
