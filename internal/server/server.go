package server

import (
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/resumehero/interviewd/internal/apperr"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/cv"
	"github.com/resumehero/interviewd/internal/interview"
	"github.com/resumehero/interviewd/internal/jobdesc"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/resumehero/interviewd/internal/webhook"
	"go.uber.org/zap"
)

type Server struct {
	App              *fiber.App
	InterviewService *interview.InterviewService
	CVService        *cv.CVService
	JDService        *jobdesc.JobDescriptionService
	Processor        *webhook.Processor
}

func New(
	interviewService *interview.InterviewService,
	cvService *cv.CVService,
	jdService *jobdesc.JobDescriptionService,
	processor *webhook.Processor,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "interviewd",
		ReadTimeout:  time.Duration(config.Conf.HTTPTimeout) * time.Second,
		WriteTimeout: time.Duration(config.Conf.HTTPTimeout) * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	server := &Server{
		App:              app,
		InterviewService: interviewService,
		CVService:        cvService,
		JDService:        jdService,
		Processor:        processor,
	}
	server.registerRoutes()

	return server
}

func (s *Server) registerRoutes() {
	api := s.App.Group("/api/v1")

	api.Get("/health", s.handleHealth)

	// Candidate and provider facing routes carry no operator auth.
	api.Get("/interviews/link/:token", s.handleInterviewByToken)
	api.Post("/webhooks/voice", s.handleWebhook)
	api.Get("/webhooks/voice", s.handleWebhookProbe)

	auth := api.Use(AuthRequired())

	auth.Post("/jds", s.handleCreateJD)
	auth.Get("/jds/:id", s.handleGetJD)
	auth.Get("/jds/:id/cvs", s.handleListCVs)

	auth.Post("/cvs", s.handleCreateCV)
	auth.Get("/cvs/shortlisted", s.handleListShortlisted)
	auth.Post("/cvs/:id/score", s.handleScoreCV)
	auth.Get("/cvs/:id/interviews", s.handleListInterviews)

	auth.Post("/interviews", s.handleScheduleInterview)
	auth.Post("/interviews/:id/start-call", s.handleStartCall)
	auth.Get("/interviews/:id/feedback", s.handleGetFeedback)
	auth.Post("/interviews/feedback", s.handleScoreTranscript)
}

func (s *Server) Run() error {
	logging.Logger.Info("start http server on port " + config.Conf.HTTPPort)

	return s.App.Listen(":" + config.Conf.HTTPPort)
}

func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}

// errorHandler maps the error taxonomy to HTTP statuses. Internal detail is
// logged, never surfaced.
func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return c.Status(appErr.Kind.HTTPStatus()).JSON(fiber.Map{
			"error": appErr.Message,
		})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
		})
	}

	logging.Logger.Error("[errorHandler] Unhandled error",
		zap.String("path", c.Path()),
		zap.String("error", err.Error()),
	)

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
