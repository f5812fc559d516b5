package deadletter

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookDeadLetter stores a provider event that matched an interview record
// but failed to apply, usually on a storage error. Unmatched events are
// dropped, not dead-lettered.
type WebhookDeadLetter struct {
	EventKey    string         `gorm:"column:event_key;type:varchar(255);primaryKey;not null"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb;not null"`
	Error       string         `gorm:"column:error;type:text;not null"`
	Status      string         `gorm:"column:status;type:varchar(20);default:'pending';not null"`
	RetryCount  int            `gorm:"column:retry_count;type:int;default:0;not null"`
	LastRetryAt *time.Time     `gorm:"column:last_retry_at;type:timestamp"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
)

func (WebhookDeadLetter) TableName() string {
	return "webhook_dl"
}

// EventKey scopes one dead letter per event type per call, so a failed
// call-ended does not overwrite a failed end-of-call-report.
func EventKey(providerCallID, eventType string) string {
	return providerCallID + ":" + eventType
}
