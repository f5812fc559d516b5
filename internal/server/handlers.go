package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/apperr"
	"github.com/resumehero/interviewd/internal/cv"
	"github.com/resumehero/interviewd/internal/interview"
	"github.com/resumehero/interviewd/internal/jobdesc"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleCreateJD(c *fiber.Ctx) error {
	var input jobdesc.CreateInput

	err := c.BodyParser(&input)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid request payload")
	}

	record, err := s.JDService.Create(c.UserContext(), operatorID(c), &input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (s *Server) handleGetJD(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	record, err := s.JDService.Get(c.UserContext(), operatorID(c), id)
	if err != nil {
		return err
	}

	return c.JSON(record)
}

func (s *Server) handleCreateCV(c *fiber.Ctx) error {
	var input cv.CreateInput

	err := c.BodyParser(&input)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid request payload")
	}

	record, err := s.CVService.Create(c.UserContext(), operatorID(c), &input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (s *Server) handleListCVs(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	records, err := s.CVService.ListByJobDescription(c.UserContext(), operatorID(c), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"cvs": records})
}

func (s *Server) handleListShortlisted(c *fiber.Ctx) error {
	records, err := s.CVService.ListShortlisted(c.UserContext(), operatorID(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"cvs": records})
}

func (s *Server) handleScoreCV(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	record, err := s.CVService.Score(c.UserContext(), operatorID(c), id)
	if err != nil {
		return err
	}

	return c.JSON(record)
}

func (s *Server) handleListInterviews(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	records, err := s.InterviewService.ListForCV(c.UserContext(), operatorID(c), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"interviews": records})
}

func (s *Server) handleScheduleInterview(c *fiber.Ctx) error {
	var input interview.ScheduleInput

	err := c.BodyParser(&input)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid request payload")
	}

	result, err := s.InterviewService.Schedule(c.UserContext(), operatorID(c), &input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (s *Server) handleStartCall(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	result, err := s.InterviewService.StartCall(c.UserContext(), operatorID(c), id)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

func (s *Server) handleGetFeedback(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return err
	}

	report, err := s.InterviewService.GetFeedback(c.UserContext(), operatorID(c), id)
	if err != nil {
		return err
	}

	return c.JSON(report)
}

type scoreTranscriptRequest struct {
	InterviewID uuid.UUID `json:"interview_id"`
	Transcript  string    `json:"transcript"`
}

func (s *Server) handleScoreTranscript(c *fiber.Ctx) error {
	var input scoreTranscriptRequest

	err := c.BodyParser(&input)
	if err != nil {
		return apperr.New(apperr.KindValidation, "invalid request payload")
	}

	if input.InterviewID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "interview_id is required")
	}

	report, err := s.InterviewService.ScoreTranscript(
		c.UserContext(),
		operatorID(c),
		input.InterviewID,
		input.Transcript,
	)
	if err != nil {
		return err
	}

	return c.JSON(report)
}

func (s *Server) handleInterviewByToken(c *fiber.Ctx) error {
	view, err := s.InterviewService.GetByAccessToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}

	return c.JSON(view)
}

// handleWebhook acknowledges every delivered event; failures are absorbed by
// the processor so the provider never sees an error and redelivers forever.
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	processed := s.Processor.Process(c.UserContext(), c.Body())

	return c.JSON(fiber.Map{"success": true, "processed": processed})
}

func (s *Server) handleWebhookProbe(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindValidation, "invalid "+name+" parameter")
	}

	return id, nil
}
