package interview

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/apperr"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/cv"
	"github.com/resumehero/interviewd/internal/feedback"
	"github.com/resumehero/interviewd/internal/kafka"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/resumehero/interviewd/internal/vapi"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultDurationPlanned = 30

	WarningAssistantNotProvisioned = "voice assistant could not be provisioned; interview created without voice capability"
)

type ScheduleInput struct {
	CVID               uuid.UUID `json:"cv_id"`
	Mode               string    `json:"mode"`
	ScheduledAt        time.Time `json:"scheduled_at"`
	DurationPlanned    int       `json:"duration_planned"`
	CandidateName      string    `json:"candidate_name"`
	CandidatePhone     string    `json:"candidate_phone"`
	CandidateEmail     string    `json:"candidate_email"`
	VoiceChoice        string    `json:"voice_choice"`
	CustomInstructions string    `json:"custom_instructions"`
	Questions          []string  `json:"questions"`
}

type ScheduleResult struct {
	Interview *Interview `json:"interview"`
	JoinURL   string     `json:"join_url"`
	Warning   string     `json:"warning,omitempty"`
}

type StartCallResult struct {
	Mode           string `json:"mode"`
	Status         string `json:"status"`
	ProviderCallID string `json:"provider_call_id,omitempty"`
	AssistantID    string `json:"assistant_id,omitempty"`
}

// PublicView is the candidate-facing projection: enough to join the session,
// nothing that identifies the operator or leaks scoring data.
type PublicView struct {
	ID                 uuid.UUID      `json:"id"`
	Mode               string         `json:"mode"`
	ScheduledAt        time.Time      `json:"scheduled_at"`
	DurationPlanned    int            `json:"duration_planned"`
	CandidateName      string         `json:"candidate_name"`
	Status             string         `json:"status"`
	Questions          datatypes.JSON `json:"questions,omitempty"`
	JobTitle           string         `json:"job_title"`
	JobDescriptionText string         `json:"job_description_text"`
	AssistantID        *string        `json:"assistant_id,omitempty"`
	VoicePublicKey     string         `json:"voice_public_key,omitempty"`
}

type InterviewService struct {
	InterviewRepository *InterviewRepository
	CVRepository        *cv.CVRepository
	VoiceProvider       vapi.Provider
	Producer            *kafka.Producer
}

func NewService(dbConn *gorm.DB, voiceProvider vapi.Provider, producer *kafka.Producer) *InterviewService {
	return &InterviewService{
		InterviewRepository: NewInterviewRepository(dbConn),
		CVRepository:        cv.NewCVRepository(dbConn),
		VoiceProvider:       voiceProvider,
		Producer:            producer,
	}
}

// Schedule validates the request, provisions a voice assistant best-effort
// and persists the record. Nothing is written to storage until every
// validation has passed.
func (interviewService *InterviewService) Schedule(
	ctx context.Context,
	operatorID string,
	input *ScheduleInput,
) (*ScheduleResult, error) {
	err := validateScheduleInput(input)
	if err != nil {
		return nil, err
	}

	if input.Mode == ModeLink && input.ScheduledAt.IsZero() {
		input.ScheduledAt = time.Now()
	}

	if input.DurationPlanned <= 0 {
		input.DurationPlanned = defaultDurationPlanned
	}

	cvRecord, err := interviewService.CVRepository.GetByID(ctx, input.CVID)
	if err != nil {
		return nil, err
	}

	err = requireOwnership(operatorID, cvRecord)
	if err != nil {
		return nil, err
	}

	accessToken, err := GenerateAccessToken()
	if err != nil {
		logging.Logger.Error("[Schedule] Failed to generate access token",
			zap.String("error", err.Error()),
		)

		return nil, err
	}

	assistantID, warning := interviewService.provisionAssistant(ctx, cvRecord, input)

	questions, err := json.Marshal(input.Questions)
	if err != nil {
		return nil, err
	}

	record := &Interview{
		ID:                 uuid.New(),
		CVID:               cvRecord.ID,
		Mode:               input.Mode,
		ScheduledAt:        input.ScheduledAt,
		DurationPlanned:    input.DurationPlanned,
		CandidateName:      input.CandidateName,
		CandidatePhone:     input.CandidatePhone,
		CandidateEmail:     input.CandidateEmail,
		VoiceChoice:        input.VoiceChoice,
		CustomInstructions: input.CustomInstructions,
		Questions:          questions,
		AccessToken:        accessToken,
		AssistantID:        assistantID,
		Status:             StatusScheduled,
		CreatedBy:          operatorID,
	}

	err = interviewService.InterviewRepository.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	cvStatus := cv.StatusAICallScheduled
	if input.Mode == ModeLink {
		cvStatus = cv.StatusAICallReady
	}

	err = interviewService.CVRepository.Update(ctx, cvRecord.ID, map[string]any{
		"status":      cvStatus,
		"call_status": cv.CallStatusScheduled,
	})
	if err != nil {
		// The interview record is already committed; the CV status is a
		// derived dashboard field, so a failed rollup must not undo creation.
		logging.Logger.Warn("[Schedule] Failed to update cv status",
			zap.String("cv_id", cvRecord.ID.String()),
			zap.String("error", err.Error()),
		)
	}

	logging.Logger.Info("[Schedule] Interview created",
		zap.String("interview_id", record.ID.String()),
		zap.String("mode", record.Mode),
		zap.Bool("assistant_provisioned", assistantID != nil),
	)

	interviewService.publishEvent(record, kafka.EventInterviewScheduled)

	return &ScheduleResult{
		Interview: record,
		JoinURL:   config.Conf.AppBaseURL + "/interview/" + accessToken,
		Warning:   warning,
	}, nil
}

func validateScheduleInput(input *ScheduleInput) error {
	if input.Mode != ModePhone && input.Mode != ModeLink {
		return apperr.New(apperr.KindValidation, "mode must be 'phone' or 'link'")
	}

	if input.CVID == uuid.Nil {
		return apperr.New(apperr.KindValidation, "cv_id is required")
	}

	if input.CandidateName == "" {
		return apperr.New(apperr.KindValidation, "candidate_name is required")
	}

	if input.Mode == ModePhone {
		if input.ScheduledAt.IsZero() {
			return apperr.New(apperr.KindValidation, "scheduled_at is required for phone interviews")
		}

		if input.CandidatePhone == "" {
			return apperr.New(apperr.KindValidation, "candidate_phone is required for phone interviews")
		}
	}

	return nil
}

// provisionAssistant is best-effort: any provider failure degrades to a nil
// assistant id plus a warning instead of aborting creation.
func (interviewService *InterviewService) provisionAssistant(
	ctx context.Context,
	cvRecord *cv.CV,
	input *ScheduleInput,
) (*string, string) {
	if interviewService.VoiceProvider == nil {
		return nil, WarningAssistantNotProvisioned
	}

	assistant, err := interviewService.VoiceProvider.CreateInterviewAssistant(
		ctx,
		cvRecord.JobDescription.Title,
		cvRecord.JobDescription.Content,
		input.CandidateName,
		input.Questions,
	)
	if err != nil {
		logging.Logger.Warn("[provisionAssistant] Failed to create voice assistant",
			zap.String("cv_id", cvRecord.ID.String()),
			zap.String("error", err.Error()),
		)

		return nil, WarningAssistantNotProvisioned
	}

	return &assistant.ID, ""
}

// StartCall places the outbound call for a phone interview, or hands back the
// assistant id for a link interview so the candidate's client can open the
// session itself. A second call for the same interview never dials twice.
func (interviewService *InterviewService) StartCall(
	ctx context.Context,
	operatorID string,
	interviewID uuid.UUID,
) (*StartCallResult, error) {
	record, err := interviewService.InterviewRepository.GetByID(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	err = requireOwnership(operatorID, &record.CV)
	if err != nil {
		return nil, err
	}

	if record.Mode == ModeLink {
		if record.AssistantID == nil {
			return nil, apperr.New(apperr.KindConfiguration, "interview has no voice assistant configured")
		}

		return &StartCallResult{
			Mode:        ModeLink,
			Status:      record.Status,
			AssistantID: *record.AssistantID,
		}, nil
	}

	// A call id or any status past scheduled means a call was already placed
	// or the interview finished another way. Never dial twice, never move a
	// completed record back to in_progress.
	if record.ProviderCallID != nil || record.Status != StatusScheduled {
		logging.Logger.Info("[StartCall] Interview already started or finished, skipping dial",
			zap.String("interview_id", record.ID.String()),
			zap.String("status", record.Status),
		)

		result := &StartCallResult{
			Mode:   ModePhone,
			Status: record.Status,
		}

		if record.ProviderCallID != nil {
			result.ProviderCallID = *record.ProviderCallID
		}

		if record.AssistantID != nil {
			result.AssistantID = *record.AssistantID
		}

		return result, nil
	}

	if record.AssistantID == nil {
		return nil, apperr.New(apperr.KindConfiguration, "interview has no voice assistant configured")
	}

	if interviewService.VoiceProvider == nil {
		return nil, apperr.New(apperr.KindConfiguration, "voice provider is not configured")
	}

	call, err := interviewService.VoiceProvider.CreateCall(ctx, *record.AssistantID, &vapi.Customer{
		Number: record.CandidatePhone,
		Name:   record.CandidateName,
		Email:  record.CandidateEmail,
	})
	if err != nil {
		logging.Logger.Error("[StartCall] Failed to place outbound call",
			zap.String("interview_id", record.ID.String()),
			zap.String("error", err.Error()),
		)

		return nil, apperr.Wrap(apperr.KindProvider, "failed to place outbound call", err)
	}

	now := time.Now()
	updates := map[string]any{
		"provider_call_id":     call.ID,
		"provider_call_status": call.Status,
		"status":               StatusInProgress,
	}

	if record.StartedAt == nil {
		updates["started_at"] = now
	}

	err = interviewService.InterviewRepository.Update(ctx, record.ID, updates)
	if err != nil {
		return nil, err
	}

	err = interviewService.CVRepository.Update(ctx, record.CVID, map[string]any{
		"status":         cv.StatusAICallInProgress,
		"call_status":    cv.CallStatusInProgress,
		"last_call_date": now,
	})
	if err != nil {
		logging.Logger.Warn("[StartCall] Failed to update cv status",
			zap.String("cv_id", record.CVID.String()),
			zap.String("error", err.Error()),
		)
	}

	logging.Logger.Info("[StartCall] Outbound call placed",
		zap.String("interview_id", record.ID.String()),
		zap.String("provider_call_id", call.ID),
	)

	return &StartCallResult{
		Mode:           ModePhone,
		Status:         StatusInProgress,
		ProviderCallID: call.ID,
		AssistantID:    *record.AssistantID,
	}, nil
}

// GetByAccessToken is the candidate-facing read path. The format precheck
// keeps obviously bogus tokens away from storage, and only phone interviews
// still pending past their window are treated as expired.
func (interviewService *InterviewService) GetByAccessToken(
	ctx context.Context,
	token string,
) (*PublicView, error) {
	if !IsValidTokenFormat(token) {
		return nil, apperr.New(apperr.KindNotFound, "interview not found")
	}

	record, err := interviewService.InterviewRepository.GetByAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if record.Mode == ModePhone &&
		record.Status == StatusScheduled &&
		time.Now().After(record.ScheduledAt.Add(AccessWindow)) {
		return nil, apperr.New(apperr.KindExpired, "interview link has expired")
	}

	// The public key lets the candidate's client open the provider web
	// session; it is only useful alongside an assistant id.
	voicePublicKey := ""
	if record.AssistantID != nil {
		voicePublicKey = config.Conf.VoicePublicKey
	}

	return &PublicView{
		ID:                 record.ID,
		Mode:               record.Mode,
		ScheduledAt:        record.ScheduledAt,
		DurationPlanned:    record.DurationPlanned,
		CandidateName:      record.CandidateName,
		Status:             record.Status,
		Questions:          record.Questions,
		JobTitle:           record.CV.JobDescription.Title,
		JobDescriptionText: record.CV.JobDescription.Content,
		AssistantID:        record.AssistantID,
		VoicePublicKey:     voicePublicKey,
	}, nil
}

func (interviewService *InterviewService) Get(
	ctx context.Context,
	operatorID string,
	interviewID uuid.UUID,
) (*Interview, error) {
	record, err := interviewService.InterviewRepository.GetByID(ctx, interviewID)
	if err != nil {
		return nil, err
	}

	err = requireOwnership(operatorID, &record.CV)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (interviewService *InterviewService) ListForCV(
	ctx context.Context,
	operatorID string,
	cvID uuid.UUID,
) ([]Interview, error) {
	cvRecord, err := interviewService.CVRepository.GetByID(ctx, cvID)
	if err != nil {
		return nil, err
	}

	err = requireOwnership(operatorID, cvRecord)
	if err != nil {
		return nil, err
	}

	return interviewService.InterviewRepository.ListByCV(ctx, cvID)
}

func (interviewService *InterviewService) GetFeedback(
	ctx context.Context,
	operatorID string,
	interviewID uuid.UUID,
) (*feedback.Report, error) {
	record, err := interviewService.Get(ctx, operatorID, interviewID)
	if err != nil {
		return nil, err
	}

	if len(record.ScoreReport) == 0 {
		return nil, apperr.New(apperr.KindNotFound, "interview has no feedback report yet")
	}

	var report feedback.Report

	err = json.Unmarshal(record.ScoreReport, &report)
	if err != nil {
		return nil, err
	}

	return &report, nil
}

// ScoreTranscript runs the scoring engine over a transcript and writes the
// report back, marking the interview completed. This is the operator-facing
// path; link-mode clients submit their transcript here when the session ends.
func (interviewService *InterviewService) ScoreTranscript(
	ctx context.Context,
	operatorID string,
	interviewID uuid.UUID,
	transcript string,
) (*feedback.Report, error) {
	record, err := interviewService.Get(ctx, operatorID, interviewID)
	if err != nil {
		return nil, err
	}

	report := feedback.Analyze(transcript)

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"score_report": datatypes.JSON(reportJSON),
		"score":        report.OverallScore,
		"status":       StatusCompleted,
	}

	if record.TranscriptText == "" {
		updates["transcript_text"] = transcript
	}

	if record.EndedAt == nil {
		updates["ended_at"] = time.Now()
	}

	err = interviewService.InterviewRepository.Update(ctx, record.ID, updates)
	if err != nil {
		return nil, err
	}

	err = interviewService.CVRepository.Update(ctx, record.CVID, map[string]any{
		"status":      cv.StatusAICallCompleted,
		"call_status": cv.CallStatusCompleted,
	})
	if err != nil {
		logging.Logger.Warn("[ScoreTranscript] Failed to update cv status",
			zap.String("cv_id", record.CVID.String()),
			zap.String("error", err.Error()),
		)
	}

	record.Status = StatusCompleted
	record.Score = &report.OverallScore
	interviewService.publishEvent(record, kafka.EventInterviewCompleted)

	return report, nil
}

func (interviewService *InterviewService) publishEvent(record *Interview, eventType string) {
	if interviewService.Producer == nil {
		return
	}

	err := interviewService.Producer.PublishInterviewEvent(&kafka.InterviewEvent{
		Type:        eventType,
		InterviewID: record.ID.String(),
		CVID:        record.CVID.String(),
		Mode:        record.Mode,
		Status:      record.Status,
		Score:       record.Score,
		OccurredAt:  time.Now(),
	})
	if err != nil {
		logging.Logger.Warn("[publishEvent] Failed to publish interview event",
			zap.String("interview_id", record.ID.String()),
			zap.String("error", err.Error()),
		)
	}
}

func requireOwnership(operatorID string, cvRecord *cv.CV) error {
	if cvRecord.JobDescription.UserID != operatorID {
		return apperr.New(apperr.KindAuthorization, "caller does not own this job description")
	}

	return nil
}
