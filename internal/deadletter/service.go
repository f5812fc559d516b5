package deadletter

import (
	"context"

	"github.com/resumehero/interviewd/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reprocessor replays a stored webhook payload. Implemented by the webhook
// processor; declared here to keep the dependency one-directional.
type Reprocessor interface {
	Reprocess(ctx context.Context, payload []byte) error
}

type DeadLetterService struct {
	DLRepository *DeadLetterRepository
	Reprocessor  Reprocessor
}

func NewService(dbConn *gorm.DB, reprocessor Reprocessor) *DeadLetterService {
	return &DeadLetterService{
		DLRepository: NewRepository(dbConn),
		Reprocessor:  reprocessor,
	}
}

func (dlService *DeadLetterService) MarkEvent(
	ctx context.Context,
	eventKey string,
	payload []byte,
	errMsg string,
) error {
	_, err := dlService.DLRepository.Create(ctx, eventKey, payload, errMsg)
	if err != nil {
		return err
	}

	logging.Logger.Info("mark webhook event as dead letter", zap.String("event_key", eventKey))

	return nil
}

func (dlService *DeadLetterService) ProcessDeadLetter(ctx context.Context, record *WebhookDeadLetter) {
	err := dlService.DLRepository.UpdateStatus(ctx, record, StatusInProgress)
	if err != nil {
		logging.Logger.Info("failed to update dead letter to in progress",
			zap.String("event_key", record.EventKey),
		)

		return
	}

	err = dlService.Reprocessor.Reprocess(ctx, record.Payload)
	if err != nil {
		logging.Logger.Error("failed to reprocess webhook event",
			zap.String("event_key", record.EventKey),
			zap.String("error", err.Error()),
		)
		_ = dlService.DLRepository.IncreaseRetryCount(ctx, record, err.Error())

		return
	}

	logging.Logger.Info("dead letter event processed successfully",
		zap.String("event_key", record.EventKey),
	)

	err = dlService.DLRepository.Delete(ctx, record)
	if err != nil {
		logging.Logger.Info("failed to delete processed dead letter",
			zap.String("event_key", record.EventKey),
			zap.String("error", err.Error()),
		)
	}
}
