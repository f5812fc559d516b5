package kafka

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/logging"
	"go.uber.org/zap"
)

const (
	EventInterviewScheduled = "interview.scheduled"
	EventInterviewStarted   = "interview.started"
	EventInterviewCompleted = "interview.completed"
)

// InterviewEvent is the compact lifecycle record published for downstream
// analytics. It carries identifiers and state, never transcript content.
type InterviewEvent struct {
	Type        string    `json:"type"`
	InterviewID string    `json:"interview_id"`
	CVID        string    `json:"cv_id"`
	Mode        string    `json:"mode"`
	Status      string    `json:"status"`
	Score       *int      `json:"score,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PublishInterviewEvent sends a lifecycle event keyed by interview id so all
// events for one interview land on the same partition.
func (p *Producer) PublishInterviewEvent(event *InterviewEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	partition, offset, err := p.SendMessage(
		config.Conf.KafkaInterviewTopic,
		[]byte(event.InterviewID),
		value,
	)
	if err != nil {
		return err
	}

	logging.Logger.Debug("Interview event published",
		zap.String("type", event.Type),
		zap.String("interview_id", event.InterviewID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}
