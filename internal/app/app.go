package app

import (
	"context"

	"github.com/resumehero/interviewd/internal/circuitbreak"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/cv"
	"github.com/resumehero/interviewd/internal/database"
	"github.com/resumehero/interviewd/internal/deadletter"
	"github.com/resumehero/interviewd/internal/healthchecker"
	"github.com/resumehero/interviewd/internal/interview"
	"github.com/resumehero/interviewd/internal/jobdesc"
	"github.com/resumehero/interviewd/internal/kafka"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/resumehero/interviewd/internal/objectstore"
	"github.com/resumehero/interviewd/internal/resumescore"
	"github.com/resumehero/interviewd/internal/server"
	"github.com/resumehero/interviewd/internal/vapi"
	"github.com/resumehero/interviewd/internal/webhook"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type App struct {
	DBConn               *gorm.DB
	KafkaProducer        *kafka.Producer
	ObjectStore          *objectstore.Client
	Processor            *webhook.Processor
	DeadLetterWorker     *deadletter.DeadLetterWorker
	HealthCheckerService *healthchecker.Healthchecker
	Server               *server.Server
}

// NewApp wires the application. Voice, Kafka, MinIO and the resume scorer
// are all optional collaborators: unconfigured ones stay nil and the
// dependent features degrade instead of blocking startup.
func NewApp(ctxCancelFunc context.CancelFunc) (*App, error) {
	logging.Logger.Info("[NewApp] Initializing interviewd application...")

	healthcheckerService := healthchecker.NewService(ctxCancelFunc)

	dbConn, err := database.NewDatabase()
	if err != nil {
		logging.Logger.Error("[NewApp] Failed to initialize database", zap.Error(err))
		return nil, err
	}

	logging.Logger.Info("[NewApp] Database connection established")

	kafkaProducer, err := initializeKafkaProducer()
	if err != nil {
		return nil, err
	}

	objectStore, err := initializeObjectStore()
	if err != nil {
		return nil, err
	}

	var voiceProvider vapi.Provider
	if config.VoiceConfigured() {
		voiceProvider = vapi.NewService()

		logging.Logger.Info("[NewApp] Voice provider client created")
	} else {
		logging.Logger.Warn("[NewApp] Voice provider not configured, interviews degrade to manual mode")
	}

	var scorer resumescore.Scorer
	if config.ScorerConfigured() {
		scorer = resumescore.NewClient()

		logging.Logger.Info("[NewApp] Resume scorer client created")
	}

	processor, err := webhook.NewProcessor(dbConn, kafkaProducer, objectStore)
	if err != nil {
		logging.Logger.Error("[NewApp] Failed to create webhook processor", zap.Error(err))
		return nil, err
	}

	deadletterWorker, err := deadletter.NewWorker(processor.DeadLetter, dbConn)
	if err != nil {
		logging.Logger.Error("[NewApp] Failed to create dead letter worker", zap.Error(err))
		return nil, err
	}

	interviewService := interview.NewService(dbConn, voiceProvider, kafkaProducer)
	cvService := cv.NewService(dbConn, scorer)
	jdService := jobdesc.NewService(dbConn)

	httpServer := server.New(interviewService, cvService, jdService, processor)

	logging.Logger.Info("[NewApp] Initializing circuit breakers...")
	circuitbreak.Init()

	return &App{
		DBConn:               dbConn,
		KafkaProducer:        kafkaProducer,
		ObjectStore:          objectStore,
		Processor:            processor,
		DeadLetterWorker:     deadletterWorker,
		HealthCheckerService: healthcheckerService,
		Server:               httpServer,
	}, nil
}

func initializeKafkaProducer() (*kafka.Producer, error) {
	if !config.KafkaConfigured() {
		logging.Logger.Info("[NewApp] Kafka not configured, lifecycle events disabled")
		return nil, nil
	}

	kafkaProducer, err := kafka.NewProducer()
	if err != nil {
		logging.Logger.Error("[NewApp] Failed to create Kafka producer", zap.Error(err))
		return nil, err
	}

	logging.Logger.Info("[NewApp] Kafka producer created")

	return kafkaProducer, nil
}

func initializeObjectStore() (*objectstore.Client, error) {
	if !config.MinioConfigured() {
		logging.Logger.Info("[NewApp] Object store not configured, report archival disabled")
		return nil, nil
	}

	objectStore, err := objectstore.NewClient()
	if err != nil {
		logging.Logger.Error("[NewApp] Failed to create object store client", zap.Error(err))
		return nil, err
	}

	return objectStore, nil
}

func (app *App) Run(ctx context.Context) error {
	logging.Logger.Info("[Run] Starting app goroutines...")

	go app.HealthCheckerService.Monitor()
	go app.DeadLetterWorker.Run(ctx)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(app.Server.Run)

	group.Go(func() error {
		<-groupCtx.Done()

		logging.Logger.Info("[Run] Context canceled, shutting down http server...")

		return app.Server.Shutdown()
	})

	err := group.Wait()

	app.shutdown()

	return err
}

func (app *App) shutdown() {
	if app.KafkaProducer != nil {
		err := app.KafkaProducer.Close()
		if err != nil {
			logging.Logger.Error("[Run] Failed to close producer", zap.String("error", err.Error()))
		}
	}

	if app.Processor != nil {
		app.Processor.SideEffectPool.Release()
	}

	if app.DeadLetterWorker != nil {
		app.DeadLetterWorker.WorkerPool.Release()
	}

	logging.Logger.Info("[Run] ===== App shutdown complete =====")
}
