package webhook

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/cv"
	"github.com/resumehero/interviewd/internal/deadletter"
	"github.com/resumehero/interviewd/internal/interview"
	"github.com/resumehero/interviewd/internal/jobdesc"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestProcessor(t *testing.T) (*Processor, *gorm.DB) {
	t.Helper()

	config.Conf.WebhookPoolSize = 2

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = dbConn.AutoMigrate(
		&jobdesc.JobDescription{},
		&cv.CV{},
		&interview.Interview{},
		&deadletter.WebhookDeadLetter{},
	)
	require.NoError(t, err)

	processor, err := NewProcessor(dbConn, nil, nil)
	require.NoError(t, err)

	t.Cleanup(processor.SideEffectPool.Release)

	return processor, dbConn
}

func seedInterview(t *testing.T, dbConn *gorm.DB, providerCallID string) *interview.Interview {
	t.Helper()

	jd := &jobdesc.JobDescription{
		ID:      uuid.New(),
		UserID:  "operator-1",
		Title:   "Backend Engineer",
		Content: "Design and run Go services",
	}
	require.NoError(t, dbConn.Create(jd).Error)

	cvRecord := &cv.CV{
		ID:               uuid.New(),
		JobDescriptionID: jd.ID,
		CandidateName:    "Jordan Miles",
		Status:           cv.StatusAICallInProgress,
	}
	require.NoError(t, dbConn.Create(cvRecord).Error)

	record := &interview.Interview{
		ID:              uuid.New(),
		CVID:            cvRecord.ID,
		Mode:            interview.ModePhone,
		ScheduledAt:     time.Now().Add(-time.Hour),
		DurationPlanned: 12,
		CandidateName:   "Jordan Miles",
		AccessToken:     "seed-" + uuid.NewString(),
		ProviderCallID:  &providerCallID,
		Status:          interview.StatusScheduled,
		CreatedBy:       "operator-1",
	}
	require.NoError(t, dbConn.Create(record).Error)

	return record
}

func eventPayload(t *testing.T, event *Event) []byte {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return payload
}

func TestProcessCallLifecycle(t *testing.T) {
	processor, _ := newTestProcessor(t)
	record := seedInterview(t, processor.InterviewRepository.DBConn, "call-lifecycle")

	startedAt := time.Now().Add(-12 * time.Minute).Truncate(time.Second)
	endedAt := startedAt.Add(12 * time.Minute)

	ok := processor.Process(context.Background(), eventPayload(t, &Event{
		Type: TypeCallStarted,
		Call: &CallPayload{ID: "call-lifecycle", Status: "in-progress", StartedAt: &startedAt},
	}))
	require.True(t, ok)

	stored, err := processor.InterviewRepository.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, interview.StatusInProgress, stored.Status)
	require.NotNil(t, stored.StartedAt)

	transcript := "AI: Tell me about your experience.\nYou: I spent five years running payment systems, for example the checkout rebuild."

	ok = processor.Process(context.Background(), eventPayload(t, &Event{
		Type: TypeCallEnded,
		Call: &CallPayload{
			ID:         "call-lifecycle",
			Status:     "ended",
			EndedAt:    &endedAt,
			Transcript: transcript,
		},
	}))
	require.True(t, ok)

	stored, err = processor.InterviewRepository.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, interview.StatusCompleted, stored.Status)
	require.NotNil(t, stored.DurationActual)
	require.Equal(t, 12, *stored.DurationActual)
	require.NotNil(t, stored.EndedAt)
	require.NotNil(t, stored.Score)
	require.NotEmpty(t, stored.ScoreReport)
	require.Equal(t, transcript, stored.TranscriptText)
}

func TestProcessDuplicateCallEndedIdempotent(t *testing.T) {
	processor, _ := newTestProcessor(t)
	record := seedInterview(t, processor.InterviewRepository.DBConn, "call-dup")

	endedAt := time.Now().Truncate(time.Second)
	payload := eventPayload(t, &Event{
		Type: TypeCallEnded,
		Call: &CallPayload{ID: "call-dup", Status: "ended", EndedAt: &endedAt},
	})

	require.True(t, processor.Process(context.Background(), payload))

	first, err := processor.InterviewRepository.GetByID(context.Background(), record.ID)
	require.NoError(t, err)

	require.True(t, processor.Process(context.Background(), payload))

	second, err := processor.InterviewRepository.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, first.Status, second.Status)
	require.Equal(t, *first.DurationActual, *second.DurationActual)
	require.Equal(t, first.EndedAt.Unix(), second.EndedAt.Unix())
}

func TestProcessLateCallStartedDoesNotRegress(t *testing.T) {
	processor, _ := newTestProcessor(t)
	record := seedInterview(t, processor.InterviewRepository.DBConn, "call-late")

	endedAt := time.Now().Truncate(time.Second)
	startedAt := endedAt.Add(-10 * time.Minute)

	require.True(t, processor.Process(context.Background(), eventPayload(t, &Event{
		Type: TypeCallEnded,
		Call: &CallPayload{ID: "call-late", EndedAt: &endedAt},
	})))

	require.True(t, processor.Process(context.Background(), eventPayload(t, &Event{
		Type: TypeCallStarted,
		Call: &CallPayload{ID: "call-late", Status: "in-progress", StartedAt: &startedAt},
	})))

	stored, err := processor.InterviewRepository.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, interview.StatusCompleted, stored.Status, "a late start must never move the record backward")
	require.Nil(t, stored.StartedAt, "started_at is not backfilled after the call ended")
	require.NotNil(t, stored.DurationActual)
	require.True(t, stored.EndedAt.After(endedAt.Add(-time.Second)))
}

func TestProcessUnmatchedEventDropped(t *testing.T) {
	processor, dbConn := newTestProcessor(t)

	ok := processor.Process(context.Background(), eventPayload(t, &Event{
		Type: TypeCallEnded,
		Call: &CallPayload{ID: "call-nobody-placed"},
	}))
	require.False(t, ok)

	var letters int64
	require.NoError(t, dbConn.Model(&deadletter.WebhookDeadLetter{}).Count(&letters).Error)
	require.Zero(t, letters, "unmatched events are dropped, not dead-lettered")
}

func TestProcessUnknownTypeIgnored(t *testing.T) {
	processor, _ := newTestProcessor(t)
	seedInterview(t, processor.InterviewRepository.DBConn, "call-unknown")

	ok := processor.Process(context.Background(), eventPayload(t, &Event{
		Type: "speech-update",
		Call: &CallPayload{ID: "call-unknown"},
	}))
	require.False(t, ok)
}

func TestProcessMalformedPayload(t *testing.T) {
	processor, _ := newTestProcessor(t)

	require.False(t, processor.Process(context.Background(), []byte("{not json")))
}

func TestEndOfCallReportBeforeCompletion(t *testing.T) {
	processor, _ := newTestProcessor(t)
	record := seedInterview(t, processor.InterviewRepository.DBConn, "call-report-early")

	transcript := "AI: Hello.\nYou: Hi, thanks for having me."

	ok := processor.Process(context.Background(), eventPayload(t, &Event{
		Type: TypeEndOfCallReport,
		Call: &CallPayload{
			ID:           "call-report-early",
			Transcript:   transcript,
			RecordingURL: "https://recordings.example.com/report-early.wav",
			Summary:      "Short friendly call",
		},
	}))
	require.True(t, ok)

	stored, err := processor.InterviewRepository.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, interview.StatusScheduled, stored.Status, "the report never advances the state machine")
	require.Equal(t, transcript, stored.TranscriptText)
	require.Equal(t, "https://recordings.example.com/report-early.wav", stored.RecordingURL)
	require.Equal(t, "Short friendly call", stored.Summary)
	require.NotEmpty(t, stored.Transcript)
	require.Empty(t, stored.ScoreReport, "scoring waits for completion")
}

func TestEndOfCallReportRescoresCompletedInterview(t *testing.T) {
	processor, _ := newTestProcessor(t)
	record := seedInterview(t, processor.InterviewRepository.DBConn, "call-report-late")

	endedAt := time.Now().Truncate(time.Second)

	require.True(t, processor.Process(context.Background(), eventPayload(t, &Event{
		Type: TypeCallEnded,
		Call: &CallPayload{ID: "call-report-late", EndedAt: &endedAt},
	})))

	transcript := "AI: Walk me through a project.\nYou: For example, I led the migration of our billing platform and specifically cut latency by 40 percent."

	require.True(t, processor.Process(context.Background(), eventPayload(t, &Event{
		Type: TypeEndOfCallReport,
		Call: &CallPayload{ID: "call-report-late", Transcript: transcript},
	})))

	stored, err := processor.InterviewRepository.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, interview.StatusCompleted, stored.Status)
	require.NotNil(t, stored.Score)
	require.Greater(t, *stored.Score, 60)
	require.Equal(t, transcript, stored.TranscriptText)
}

func TestActualDurationFallsBackToPlanned(t *testing.T) {
	startedAt := time.Now()
	record := &interview.Interview{
		ScheduledAt:     startedAt.Add(-time.Hour),
		StartedAt:       &startedAt,
		DurationPlanned: 12,
	}

	require.Equal(t, 12, actualDuration(record, startedAt), "zero-length calls use the planned duration")
	require.Equal(t, 12, actualDuration(record, startedAt.Add(-time.Minute)))
	require.Equal(t, 7, actualDuration(record, startedAt.Add(7*time.Minute)))
}
