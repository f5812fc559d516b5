package cv

import (
	"time"

	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/jobdesc"
	"gorm.io/datatypes"
)

type CV struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"              json:"id"`
	JobDescriptionID uuid.UUID      `gorm:"column:job_description_id;index"   json:"job_description_id"`
	CandidateName    string         `gorm:"column:candidate_name"             json:"candidate_name"`
	CandidateEmail   string         `gorm:"column:candidate_email"            json:"candidate_email"`
	CandidatePhone   string         `gorm:"column:candidate_phone"            json:"candidate_phone"`
	ResumeText       string         `gorm:"column:resume_text;type:text"      json:"resume_text"`
	ResumeData       datatypes.JSON `gorm:"column:resume_data"                json:"resume_data,omitempty"`
	ScoreData        datatypes.JSON `gorm:"column:score_data"                 json:"score_data,omitempty"`
	Score            *float64       `gorm:"column:score"                      json:"score,omitempty"`
	Status           string         `gorm:"column:status"                     json:"status"`
	CallStatus       string         `gorm:"column:call_status"                json:"call_status"`
	LastCallDate     *time.Time     `gorm:"column:last_call_date"             json:"last_call_date,omitempty"`
	Shortlisted      bool           `gorm:"column:shortlisted"                json:"shortlisted"`
	CreatedAt        time.Time      `gorm:"column:created_at"                 json:"created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"                 json:"updated_at"`

	JobDescription jobdesc.JobDescription `gorm:"foreignKey:JobDescriptionID" json:"-"`
}

func (CV) TableName() string {
	return "cvs"
}

// Derived dashboard statuses; the interview record stays the source of truth.
const (
	StatusUploaded         = "uploaded"
	StatusScored           = "scored"
	StatusAICallScheduled  = "ai_call_scheduled"
	StatusAICallReady      = "ai_call_ready"
	StatusAICallInProgress = "ai_call_in_progress"
	StatusAICallCompleted  = "ai_call_completed"
)

const (
	CallStatusScheduled  = "scheduled"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
)
