package interview

import (
	"time"

	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/cv"
	"gorm.io/datatypes"
)

type Interview struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey"                   json:"id"`
	CVID               uuid.UUID      `gorm:"column:cv_id;index"                     json:"cv_id"`
	Mode               string         `gorm:"column:mode"                            json:"mode"`
	ScheduledAt        time.Time      `gorm:"column:scheduled_at"                    json:"scheduled_at"`
	DurationPlanned    int            `gorm:"column:duration_planned"                json:"duration_planned"`
	DurationActual     *int           `gorm:"column:duration_actual"                 json:"duration_actual,omitempty"`
	CandidateName      string         `gorm:"column:candidate_name"                  json:"candidate_name"`
	CandidatePhone     string         `gorm:"column:candidate_phone"                 json:"candidate_phone,omitempty"`
	CandidateEmail     string         `gorm:"column:candidate_email"                 json:"candidate_email,omitempty"`
	VoiceChoice        string         `gorm:"column:voice_choice"                    json:"voice_choice,omitempty"`
	CustomInstructions string         `gorm:"column:custom_instructions;type:text"   json:"custom_instructions,omitempty"`
	Questions          datatypes.JSON `gorm:"column:questions"                       json:"questions,omitempty"`
	AccessToken        string         `gorm:"column:access_token;uniqueIndex"        json:"access_token"`
	AssistantID        *string        `gorm:"column:assistant_id"                    json:"assistant_id,omitempty"`
	ProviderCallID     *string        `gorm:"column:provider_call_id;uniqueIndex"    json:"provider_call_id,omitempty"`
	ProviderCallStatus string         `gorm:"column:provider_call_status"            json:"provider_call_status,omitempty"`
	Status             string         `gorm:"column:status"                          json:"status"`
	TranscriptText     string         `gorm:"column:transcript_text;type:text"       json:"transcript_text,omitempty"`
	Transcript         datatypes.JSON `gorm:"column:transcript"                      json:"transcript,omitempty"`
	RecordingURL       string         `gorm:"column:recording_url"                   json:"recording_url,omitempty"`
	Summary            string         `gorm:"column:summary;type:text"               json:"summary,omitempty"`
	Cost               *float64       `gorm:"column:cost"                            json:"cost,omitempty"`
	ScoreReport        datatypes.JSON `gorm:"column:score_report"                    json:"score_report,omitempty"`
	Score              *int           `gorm:"column:score"                           json:"score,omitempty"`
	CreatedBy          string         `gorm:"column:created_by"                      json:"created_by"`
	StartedAt          *time.Time     `gorm:"column:started_at"                      json:"started_at,omitempty"`
	EndedAt            *time.Time     `gorm:"column:ended_at"                        json:"ended_at,omitempty"`
	CreatedAt          time.Time      `gorm:"column:created_at"                      json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"                      json:"updated_at"`

	CV cv.CV `gorm:"foreignKey:CVID" json:"-"`
}

func (Interview) TableName() string {
	return "interviews"
}

const (
	ModePhone = "phone"
	ModeLink  = "link"
)

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// StatusRank orders statuses so webhook handlers never move a record
// backward, regardless of event delivery order.
func StatusRank(status string) int {
	switch status {
	case StatusScheduled:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted:
		return 3
	default:
		return 0
	}
}

// AccessWindow is how long a scheduled phone interview stays joinable past
// its scheduled time before the candidate link goes stale.
const AccessWindow = 24 * time.Hour

// TranscriptPayload is the structured transcript column: the authoritative
// text plus the provider's message log and cost breakdown when available.
type TranscriptPayload struct {
	Transcript    string         `json:"transcript,omitempty"`
	Messages      datatypes.JSON `json:"messages,omitempty"`
	CostBreakdown datatypes.JSON `json:"cost_breakdown,omitempty"`
}
