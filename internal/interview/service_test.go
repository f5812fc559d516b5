package interview

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/apperr"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/cv"
	"github.com/resumehero/interviewd/internal/jobdesc"
	"github.com/resumehero/interviewd/internal/vapi"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testOperatorID = "operator-1"

type fakeVoiceProvider struct {
	assistantErr error
	callErr      error
	callsPlaced  int
}

func (provider *fakeVoiceProvider) CreateInterviewAssistant(
	_ context.Context,
	_, _, _ string,
	_ []string,
) (*vapi.Assistant, error) {
	if provider.assistantErr != nil {
		return nil, provider.assistantErr
	}

	return &vapi.Assistant{ID: "assistant-" + uuid.NewString(), Name: "Interview Assistant"}, nil
}

func (provider *fakeVoiceProvider) CreateCall(
	_ context.Context,
	assistantID string,
	_ *vapi.Customer,
) (*vapi.Call, error) {
	if provider.callErr != nil {
		return nil, provider.callErr
	}

	provider.callsPlaced++

	return &vapi.Call{
		ID:          "call-" + uuid.NewString(),
		Status:      "queued",
		AssistantID: assistantID,
	}, nil
}

func (provider *fakeVoiceProvider) GetCall(_ context.Context, callID string) (*vapi.Call, error) {
	return &vapi.Call{ID: callID, Status: "queued"}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = dbConn.AutoMigrate(&jobdesc.JobDescription{}, &cv.CV{}, &Interview{})
	require.NoError(t, err)

	return dbConn
}

func seedCV(t *testing.T, dbConn *gorm.DB, userID string) *cv.CV {
	t.Helper()

	jd := &jobdesc.JobDescription{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   "Backend Engineer",
		Content: "Design and run Go services",
	}
	require.NoError(t, dbConn.Create(jd).Error)

	cvRecord := &cv.CV{
		ID:               uuid.New(),
		JobDescriptionID: jd.ID,
		CandidateName:    "Jordan Miles",
		CandidateEmail:   "jordan@example.com",
		CandidatePhone:   "+15550100",
		ResumeText:       "Ten years building distributed systems",
		Status:           cv.StatusUploaded,
	}
	require.NoError(t, dbConn.Create(cvRecord).Error)

	return cvRecord
}

func phoneInput(cvID uuid.UUID) *ScheduleInput {
	return &ScheduleInput{
		CVID:            cvID,
		Mode:            ModePhone,
		ScheduledAt:     time.Now().Add(time.Hour),
		DurationPlanned: 45,
		CandidateName:   "Jordan Miles",
		CandidatePhone:  "+15550100",
		Questions:       []string{"Tell me about a recent project"},
	}
}

func TestScheduleValidation(t *testing.T) {
	dbConn := newTestDB(t)
	service := NewService(dbConn, &fakeVoiceProvider{}, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	cases := []struct {
		name    string
		mutate  func(*ScheduleInput)
		message string
	}{
		{"bad mode", func(input *ScheduleInput) { input.Mode = "video" }, "mode must be 'phone' or 'link'"},
		{"missing cv", func(input *ScheduleInput) { input.CVID = uuid.Nil }, "cv_id is required"},
		{"missing name", func(input *ScheduleInput) { input.CandidateName = "" }, "candidate_name is required"},
		{
			"phone without scheduled_at",
			func(input *ScheduleInput) { input.ScheduledAt = time.Time{} },
			"scheduled_at is required for phone interviews",
		},
		{
			"phone without phone number",
			func(input *ScheduleInput) { input.CandidatePhone = "" },
			"candidate_phone is required for phone interviews",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := phoneInput(cvRecord.ID)
			tc.mutate(input)

			_, err := service.Schedule(context.Background(), testOperatorID, input)
			require.Error(t, err)
			require.True(t, apperr.IsKind(err, apperr.KindValidation))
			require.Contains(t, err.Error(), tc.message)
		})
	}

	var count int64
	require.NoError(t, dbConn.Model(&Interview{}).Count(&count).Error)
	require.Zero(t, count, "invalid requests must not persist records")
}

func TestSchedulePhoneInterview(t *testing.T) {
	config.Conf.AppBaseURL = "http://localhost:8080"

	dbConn := newTestDB(t)
	service := NewService(dbConn, &fakeVoiceProvider{}, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	result, err := service.Schedule(context.Background(), testOperatorID, phoneInput(cvRecord.ID))
	require.NoError(t, err)

	record := result.Interview
	require.Equal(t, StatusScheduled, record.Status)
	require.Equal(t, 45, record.DurationPlanned)
	require.True(t, IsValidTokenFormat(record.AccessToken))
	require.NotNil(t, record.AssistantID)
	require.Empty(t, result.Warning)
	require.Equal(t, "http://localhost:8080/interview/"+record.AccessToken, result.JoinURL)

	stored, err := service.InterviewRepository.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, stored.Status)
	require.Equal(t, testOperatorID, stored.CreatedBy)
}

func TestScheduleLinkInterviewDefaults(t *testing.T) {
	dbConn := newTestDB(t)
	service := NewService(dbConn, &fakeVoiceProvider{}, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	result, err := service.Schedule(context.Background(), testOperatorID, &ScheduleInput{
		CVID:          cvRecord.ID,
		Mode:          ModeLink,
		CandidateName: "Jordan Miles",
	})
	require.NoError(t, err)
	require.Equal(t, 30, result.Interview.DurationPlanned)
	require.False(t, result.Interview.ScheduledAt.IsZero())
}

func TestScheduleUnknownCV(t *testing.T) {
	dbConn := newTestDB(t)
	service := NewService(dbConn, &fakeVoiceProvider{}, nil)

	_, err := service.Schedule(context.Background(), testOperatorID, phoneInput(uuid.New()))
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestScheduleForeignCVRejected(t *testing.T) {
	dbConn := newTestDB(t)
	service := NewService(dbConn, &fakeVoiceProvider{}, nil)
	cvRecord := seedCV(t, dbConn, "someone-else")

	_, err := service.Schedule(context.Background(), testOperatorID, phoneInput(cvRecord.ID))
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindAuthorization))
}

func TestScheduleAssistantFailureDegrades(t *testing.T) {
	dbConn := newTestDB(t)
	provider := &fakeVoiceProvider{assistantErr: vapi.ErrProviderServerError}
	service := NewService(dbConn, provider, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	result, err := service.Schedule(context.Background(), testOperatorID, phoneInput(cvRecord.ID))
	require.NoError(t, err)
	require.Nil(t, result.Interview.AssistantID)
	require.Equal(t, WarningAssistantNotProvisioned, result.Warning)
}

func TestStartCallPlacesCallOnce(t *testing.T) {
	dbConn := newTestDB(t)
	provider := &fakeVoiceProvider{}
	service := NewService(dbConn, provider, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	scheduled, err := service.Schedule(context.Background(), testOperatorID, phoneInput(cvRecord.ID))
	require.NoError(t, err)

	result, err := service.StartCall(context.Background(), testOperatorID, scheduled.Interview.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, result.Status)
	require.NotEmpty(t, result.ProviderCallID)
	require.Equal(t, 1, provider.callsPlaced)

	again, err := service.StartCall(context.Background(), testOperatorID, scheduled.Interview.ID)
	require.NoError(t, err)
	require.Equal(t, result.ProviderCallID, again.ProviderCallID)
	require.Equal(t, 1, provider.callsPlaced, "a second start must not dial again")
}

func TestStartCallAfterManualCompletionNeverDials(t *testing.T) {
	dbConn := newTestDB(t)
	provider := &fakeVoiceProvider{}
	service := NewService(dbConn, provider, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	scheduled, err := service.Schedule(context.Background(), testOperatorID, phoneInput(cvRecord.ID))
	require.NoError(t, err)

	_, err = service.ScoreTranscript(
		context.Background(),
		testOperatorID,
		scheduled.Interview.ID,
		"AI: How did it go?\nYou: Well, for example the rollout finished early.",
	)
	require.NoError(t, err)

	result, err := service.StartCall(context.Background(), testOperatorID, scheduled.Interview.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Empty(t, result.ProviderCallID)
	require.Zero(t, provider.callsPlaced, "a finished interview must never be dialed")

	stored, err := service.InterviewRepository.GetByID(context.Background(), scheduled.Interview.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, stored.Status)
	require.NotEmpty(t, stored.ScoreReport)
	require.Nil(t, stored.ProviderCallID)
}

func TestStartCallWithoutAssistant(t *testing.T) {
	dbConn := newTestDB(t)
	service := NewService(dbConn, nil, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	scheduled, err := service.Schedule(context.Background(), testOperatorID, phoneInput(cvRecord.ID))
	require.NoError(t, err)

	_, err = service.StartCall(context.Background(), testOperatorID, scheduled.Interview.ID)
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindConfiguration))
}

func TestStartCallLinkModeNeverDials(t *testing.T) {
	dbConn := newTestDB(t)
	provider := &fakeVoiceProvider{}
	service := NewService(dbConn, provider, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	scheduled, err := service.Schedule(context.Background(), testOperatorID, &ScheduleInput{
		CVID:          cvRecord.ID,
		Mode:          ModeLink,
		CandidateName: "Jordan Miles",
	})
	require.NoError(t, err)

	result, err := service.StartCall(context.Background(), testOperatorID, scheduled.Interview.ID)
	require.NoError(t, err)
	require.Equal(t, ModeLink, result.Mode)
	require.NotEmpty(t, result.AssistantID)
	require.Empty(t, result.ProviderCallID)
	require.Zero(t, provider.callsPlaced)
}

func TestGetByAccessTokenExpiry(t *testing.T) {
	dbConn := newTestDB(t)
	service := NewService(dbConn, &fakeVoiceProvider{}, nil)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	stale := time.Now().Add(-AccessWindow - time.Minute)
	fresh := time.Now().Add(-AccessWindow + time.Minute)

	schedule := func(mode string, scheduledAt time.Time) string {
		input := phoneInput(cvRecord.ID)
		input.Mode = mode
		input.ScheduledAt = scheduledAt

		result, err := service.Schedule(context.Background(), testOperatorID, input)
		require.NoError(t, err)

		return result.Interview.AccessToken
	}

	_, err := service.GetByAccessToken(context.Background(), schedule(ModePhone, stale))
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindExpired))

	view, err := service.GetByAccessToken(context.Background(), schedule(ModePhone, fresh))
	require.NoError(t, err)
	require.Equal(t, "Backend Engineer", view.JobTitle)

	view, err = service.GetByAccessToken(context.Background(), schedule(ModeLink, stale))
	require.NoError(t, err)
	require.Equal(t, ModeLink, view.Mode)
}

func TestGetByAccessTokenExposesVoicePublicKey(t *testing.T) {
	config.Conf.VoicePublicKey = "pk-public-test"

	dbConn := newTestDB(t)
	cvRecord := seedCV(t, dbConn, testOperatorID)

	withAssistant := NewService(dbConn, &fakeVoiceProvider{}, nil)

	scheduled, err := withAssistant.Schedule(context.Background(), testOperatorID, &ScheduleInput{
		CVID:          cvRecord.ID,
		Mode:          ModeLink,
		CandidateName: "Jordan Miles",
	})
	require.NoError(t, err)

	view, err := withAssistant.GetByAccessToken(context.Background(), scheduled.Interview.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "pk-public-test", view.VoicePublicKey)

	withoutAssistant := NewService(dbConn, nil, nil)

	scheduled, err = withoutAssistant.Schedule(context.Background(), testOperatorID, &ScheduleInput{
		CVID:          cvRecord.ID,
		Mode:          ModeLink,
		CandidateName: "Jordan Miles",
	})
	require.NoError(t, err)

	view, err = withoutAssistant.GetByAccessToken(context.Background(), scheduled.Interview.AccessToken)
	require.NoError(t, err)
	require.Empty(t, view.VoicePublicKey, "no web session without an assistant, so no key")
}

func TestGetByAccessTokenBadFormat(t *testing.T) {
	dbConn := newTestDB(t)
	service := NewService(dbConn, nil, nil)

	_, err := service.GetByAccessToken(context.Background(), "not a token")
	require.Error(t, err)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
