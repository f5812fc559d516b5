package webhook

import (
	"context"
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/panjf2000/ants/v2"
	prometheusClient "github.com/prometheus/client_golang/prometheus"
	"github.com/resumehero/interviewd/internal/apperr"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/cv"
	"github.com/resumehero/interviewd/internal/deadletter"
	"github.com/resumehero/interviewd/internal/feedback"
	"github.com/resumehero/interviewd/internal/interview"
	"github.com/resumehero/interviewd/internal/kafka"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/resumehero/interviewd/internal/objectstore"
	prometheusInterviewd "github.com/resumehero/interviewd/internal/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	outcomeProcessed = "processed"
	outcomeUnmatched = "unmatched"
	outcomeIgnored   = "ignored"
	outcomeInvalid   = "invalid"
	outcomeFailed    = "failed"
)

// Processor applies provider webhook events to interview records. Producer
// and ObjectStore are optional; a nil value disables that side effect.
type Processor struct {
	InterviewRepository *interview.InterviewRepository
	CVRepository        *cv.CVRepository
	DeadLetter          *deadletter.DeadLetterService
	Producer            *kafka.Producer
	ObjectStore         *objectstore.Client
	SideEffectPool      *ants.Pool
}

func NewProcessor(
	dbConn *gorm.DB,
	producer *kafka.Producer,
	objectStore *objectstore.Client,
) (*Processor, error) {
	pool, err := ants.NewPool(config.Conf.WebhookPoolSize, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}

	processor := &Processor{
		InterviewRepository: interview.NewInterviewRepository(dbConn),
		CVRepository:        cv.NewCVRepository(dbConn),
		Producer:            producer,
		ObjectStore:         objectStore,
		SideEffectPool:      pool,
	}
	processor.DeadLetter = deadletter.NewService(dbConn, processor)

	return processor, nil
}

// Process applies one raw webhook payload. It never returns an error: the
// endpoint must acknowledge every delivered event, so failures are absorbed
// here (dead-lettered when they were storage failures on a matched record).
// The return value reports whether the event mutated an interview record.
func (processor *Processor) Process(ctx context.Context, payload []byte) bool {
	var event Event

	err := json.Unmarshal(payload, &event)
	if err != nil {
		logging.Logger.Warn("[Process] Failed to decode webhook payload",
			zap.String("error", err.Error()),
		)
		prometheusInterviewd.WebhookEventsTotal.WithLabelValues("unknown", outcomeInvalid).Inc()

		return false
	}

	timer := prometheusClient.NewTimer(
		prometheusInterviewd.WebhookEventDuration.WithLabelValues(event.Type),
	)
	defer timer.ObserveDuration()

	outcome, err := processor.apply(ctx, &event)
	if err != nil {
		logging.Logger.Error("[Process] Failed to apply webhook event",
			zap.String("type", event.Type),
			zap.String("error", err.Error()),
		)

		if processor.DeadLetter != nil && event.Call != nil && event.Call.ID != "" {
			_ = processor.DeadLetter.MarkEvent(
				ctx,
				deadletter.EventKey(event.Call.ID, event.Type),
				payload,
				err.Error(),
			)
		}

		prometheusInterviewd.WebhookEventsTotal.WithLabelValues(event.Type, outcomeFailed).Inc()

		return false
	}

	prometheusInterviewd.WebhookEventsTotal.WithLabelValues(event.Type, outcome).Inc()

	return outcome == outcomeProcessed
}

// Reprocess replays a dead-lettered payload. Unlike Process, apply errors
// propagate so the dead-letter worker can track the retry.
func (processor *Processor) Reprocess(ctx context.Context, payload []byte) error {
	var event Event

	err := json.Unmarshal(payload, &event)
	if err != nil {
		return err
	}

	_, err = processor.apply(ctx, &event)

	return err
}

func (processor *Processor) apply(ctx context.Context, event *Event) (string, error) {
	switch event.Type {
	case TypeCallStarted, TypeCallEnded, TypeEndOfCallReport:
	case TypeTranscript:
		// Real-time partial transcript; not authoritative, not persisted.
		logging.Logger.Debug("[apply] Partial transcript received",
			zap.Int("length", len(event.Transcript)),
		)

		return outcomeIgnored, nil
	case TypeFunctionCall, TypeAssistantRequest:
		logging.Logger.Debug("[apply] Pass-through event", zap.String("type", event.Type))

		return outcomeIgnored, nil
	default:
		logging.Logger.Warn("[apply] Unknown webhook event type", zap.String("type", event.Type))

		return outcomeIgnored, nil
	}

	if event.Call == nil || event.Call.ID == "" {
		logging.Logger.Warn("[apply] Webhook event without call id", zap.String("type", event.Type))

		return outcomeInvalid, nil
	}

	record, err := processor.InterviewRepository.GetByProviderCallID(ctx, event.Call.ID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			// Events may arrive for calls this system never placed, or
			// before the local record commit. Drop, never fail.
			logging.Logger.Info("[apply] No interview for provider call, dropping event",
				zap.String("type", event.Type),
				zap.String("provider_call_id", event.Call.ID),
			)

			return outcomeUnmatched, nil
		}

		return "", err
	}

	switch event.Type {
	case TypeCallStarted:
		err = processor.applyCallStarted(ctx, record, event)
	case TypeCallEnded:
		err = processor.applyCallEnded(ctx, record, event)
	case TypeEndOfCallReport:
		err = processor.applyEndOfCallReport(ctx, record, event)
	}

	if err != nil {
		return "", err
	}

	return outcomeProcessed, nil
}

func (processor *Processor) applyCallStarted(
	ctx context.Context,
	record *interview.Interview,
	event *Event,
) error {
	if interview.StatusRank(record.Status) >= interview.StatusRank(interview.StatusInProgress) &&
		record.StartedAt != nil {
		logging.Logger.Debug("[applyCallStarted] Already applied, skipping",
			zap.String("interview_id", record.ID.String()),
		)

		return nil
	}

	updates := map[string]any{}

	// Once ended_at exists, backfilling started_at from a late event could
	// place the start after the end; the stored duration stands.
	if record.StartedAt == nil && record.EndedAt == nil {
		startedAt := time.Now()
		if event.Call.StartedAt != nil {
			startedAt = *event.Call.StartedAt
		}

		updates["started_at"] = startedAt
	}

	transitioned := false
	if interview.StatusRank(record.Status) < interview.StatusRank(interview.StatusInProgress) {
		updates["status"] = interview.StatusInProgress
		transitioned = true

		if event.Call.Status != "" {
			updates["provider_call_status"] = event.Call.Status
		}
	}

	if len(updates) == 0 {
		return nil
	}

	err := processor.InterviewRepository.Update(ctx, record.ID, updates)
	if err != nil {
		return err
	}

	if transitioned {
		processor.updateCVStatus(ctx, record, cv.StatusAICallInProgress, cv.CallStatusInProgress)
		processor.publishEvent(record, kafka.EventInterviewStarted, interview.StatusInProgress, nil)
	}

	logging.Logger.Info("[applyCallStarted] Interview in progress",
		zap.String("interview_id", record.ID.String()),
		zap.String("provider_call_id", event.Call.ID),
	)

	return nil
}

func (processor *Processor) applyCallEnded(
	ctx context.Context,
	record *interview.Interview,
	event *Event,
) error {
	endedAt := time.Now()

	switch {
	case record.EndedAt != nil:
		endedAt = *record.EndedAt
	case event.Call.EndedAt != nil:
		endedAt = *event.Call.EndedAt
	}

	updates := map[string]any{
		"status":          interview.StatusCompleted,
		"duration_actual": actualDuration(record, endedAt),
	}

	if record.EndedAt == nil {
		updates["ended_at"] = endedAt
	}

	if event.Call.Status != "" {
		updates["provider_call_status"] = event.Call.Status
	}

	if event.Call.Transcript != "" {
		updates["transcript_text"] = event.Call.Transcript
	}

	if event.Call.RecordingURL != "" {
		updates["recording_url"] = event.Call.RecordingURL
	}

	if event.Call.Summary != "" {
		updates["summary"] = event.Call.Summary
	}

	if event.Call.Cost != nil {
		updates["cost"] = *event.Call.Cost
	}

	transcript := event.Call.Transcript
	if transcript == "" {
		transcript = record.TranscriptText
	}

	var score *int

	if transcript != "" {
		report := feedback.Analyze(transcript)

		reportJSON, err := json.Marshal(report)
		if err != nil {
			return err
		}

		updates["score_report"] = datatypes.JSON(reportJSON)
		updates["score"] = report.OverallScore
		score = &report.OverallScore
	}

	err := processor.InterviewRepository.Update(ctx, record.ID, updates)
	if err != nil {
		return err
	}

	processor.updateCVStatus(ctx, record, cv.StatusAICallCompleted, cv.CallStatusCompleted)
	processor.publishEvent(record, kafka.EventInterviewCompleted, interview.StatusCompleted, score)

	logging.Logger.Info("[applyCallEnded] Interview completed",
		zap.String("interview_id", record.ID.String()),
		zap.String("provider_call_id", event.Call.ID),
		zap.Bool("scored", score != nil),
	)

	return nil
}

// applyEndOfCallReport merges the authoritative transcript, message log and
// cost breakdown. Status is untouched: call-ended owns the transition, and
// this event may arrive first, in which case the fields wait for it.
func (processor *Processor) applyEndOfCallReport(
	ctx context.Context,
	record *interview.Interview,
	event *Event,
) error {
	processor.archiveReport(record, event)

	updates := map[string]any{}

	transcriptPayload := interview.TranscriptPayload{
		Transcript:    event.Call.Transcript,
		Messages:      datatypes.JSON(event.Call.Messages),
		CostBreakdown: datatypes.JSON(event.Call.CostBreakdown),
	}

	if event.Call.Transcript != "" || len(event.Call.Messages) > 0 || len(event.Call.CostBreakdown) > 0 {
		structured, err := json.Marshal(transcriptPayload)
		if err != nil {
			return err
		}

		updates["transcript"] = datatypes.JSON(structured)
	}

	if event.Call.Transcript != "" {
		updates["transcript_text"] = event.Call.Transcript
	}

	if event.Call.RecordingURL != "" {
		updates["recording_url"] = event.Call.RecordingURL
	}

	if event.Call.Summary != "" {
		updates["summary"] = event.Call.Summary
	}

	if event.Call.Cost != nil {
		updates["cost"] = *event.Call.Cost
	}

	// Re-score only once the interview is completed, so the report reflects
	// the authoritative transcript without jumping the state machine.
	if record.Status == interview.StatusCompleted && event.Call.Transcript != "" {
		report := feedback.Analyze(event.Call.Transcript)

		reportJSON, err := json.Marshal(report)
		if err != nil {
			return err
		}

		updates["score_report"] = datatypes.JSON(reportJSON)
		updates["score"] = report.OverallScore
	}

	if len(updates) == 0 {
		return nil
	}

	err := processor.InterviewRepository.Update(ctx, record.ID, updates)
	if err != nil {
		return err
	}

	logging.Logger.Info("[applyEndOfCallReport] Report merged",
		zap.String("interview_id", record.ID.String()),
		zap.String("provider_call_id", event.Call.ID),
	)

	return nil
}

func actualDuration(record *interview.Interview, endedAt time.Time) int {
	startRef := record.ScheduledAt
	if record.StartedAt != nil {
		startRef = *record.StartedAt
	}

	duration := int(math.Round(endedAt.Sub(startRef).Minutes()))
	if duration <= 0 {
		return record.DurationPlanned
	}

	return duration
}

func (processor *Processor) updateCVStatus(
	ctx context.Context,
	record *interview.Interview,
	status, callStatus string,
) {
	err := processor.CVRepository.Update(ctx, record.CVID, map[string]any{
		"status":         status,
		"call_status":    callStatus,
		"last_call_date": time.Now(),
	})
	if err != nil {
		logging.Logger.Warn("[updateCVStatus] Failed to update cv status",
			zap.String("cv_id", record.CVID.String()),
			zap.String("error", err.Error()),
		)
	}
}

func (processor *Processor) publishEvent(
	record *interview.Interview,
	eventType, status string,
	score *int,
) {
	if processor.Producer == nil {
		return
	}

	event := &kafka.InterviewEvent{
		Type:        eventType,
		InterviewID: record.ID.String(),
		CVID:        record.CVID.String(),
		Mode:        record.Mode,
		Status:      status,
		Score:       score,
		OccurredAt:  time.Now(),
	}

	err := processor.SideEffectPool.Submit(func() {
		err := processor.Producer.PublishInterviewEvent(event)
		if err != nil {
			logging.Logger.Warn("[publishEvent] Failed to publish interview event",
				zap.String("interview_id", event.InterviewID),
				zap.String("error", err.Error()),
			)
		}
	})
	if err != nil {
		logging.Logger.Warn("[publishEvent] Failed to submit publish task",
			zap.String("error", err.Error()),
		)
	}
}

func (processor *Processor) archiveReport(record *interview.Interview, event *Event) {
	if processor.ObjectStore == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Warn("[archiveReport] Failed to marshal report payload",
			zap.String("error", err.Error()),
		)

		return
	}

	providerCallID := event.Call.ID
	interviewID := record.ID.String()

	err = processor.SideEffectPool.Submit(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		_, err := processor.ObjectStore.ArchiveReport(ctx, providerCallID, payload)
		if err != nil {
			logging.Logger.Warn("[archiveReport] Failed to archive report",
				zap.String("interview_id", interviewID),
				zap.String("error", err.Error()),
			)
		}
	})
	if err != nil {
		logging.Logger.Warn("[archiveReport] Failed to submit archive task",
			zap.String("error", err.Error()),
		)
	}
}
