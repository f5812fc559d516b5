package jobdesc

import (
	"time"

	"github.com/google/uuid"
)

type JobDescription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	UserID    string    `gorm:"column:user_id;index"       json:"user_id"`
	Title     string    `gorm:"column:title"               json:"title"`
	Content   string    `gorm:"column:content;type:text"   json:"content"`
	CreatedAt time.Time `gorm:"column:created_at"          json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"          json:"updated_at"`
}

func (JobDescription) TableName() string {
	return "job_descriptions"
}
