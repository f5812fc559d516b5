package deadletter

import (
	"context"
	"errors"
	"time"

	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/database"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidDeadLetterResult      = errors.New("invalid result type, it should be pointer to WebhookDeadLetter")
	ErrInvalidDeadLetterSliceResult = errors.New("invalid result type, it should be slice of WebhookDeadLetter")
)

type DeadLetterRepository struct {
	DBConn         *gorm.DB
	CircuitBreaker *gobreaker.CircuitBreaker[any]
}

func NewRepository(dbConn *gorm.DB) *DeadLetterRepository {
	cbSettings := database.GetCircuitBreakerSettings()

	return &DeadLetterRepository{
		DBConn:         dbConn,
		CircuitBreaker: gobreaker.NewCircuitBreaker[any](cbSettings),
	}
}

func (dlRepository *DeadLetterRepository) Create(
	ctx context.Context,
	eventKey string,
	payload []byte,
	errMsg string,
) (*WebhookDeadLetter, error) {
	result, err := dlRepository.CircuitBreaker.Execute(func() (any, error) {
		now := time.Now()
		record := WebhookDeadLetter{
			EventKey:    eventKey,
			Payload:     payload,
			Error:       errMsg,
			Status:      StatusPending,
			LastRetryAt: &now,
		}

		var dbConn *gorm.DB

		select {
		case <-ctx.Done():
			dbConn = dlRepository.DBConn
		default:
			dbConn = dlRepository.DBConn.WithContext(ctx)
		}

		// Upsert: a redelivered failure refreshes the stored payload and error.
		err := dbConn.Where("event_key = ?", eventKey).
			Assign(map[string]any{
				"payload":       payload,
				"error":         errMsg,
				"status":        StatusPending,
				"last_retry_at": &now,
			}).
			FirstOrCreate(&record).Error
		if err != nil {
			logging.Logger.Error("failed to create dead letter record",
				zap.String("event_key", eventKey),
				zap.String("error", err.Error()),
			)

			return nil, err
		}

		return &record, nil
	})
	if err != nil {
		return nil, err
	}

	record, ok := result.(*WebhookDeadLetter)
	if !ok {
		return nil, ErrInvalidDeadLetterResult
	}

	return record, nil
}

func (dlRepository *DeadLetterRepository) GetPending(ctx context.Context) ([]WebhookDeadLetter, error) {
	result, err := dlRepository.CircuitBreaker.Execute(func() (any, error) {
		var records []WebhookDeadLetter

		err := dlRepository.DBConn.WithContext(ctx).
			Where(
				"status = ? AND retry_count < ?",
				StatusPending,
				config.Conf.DeadLetterMaxRetries,
			).
			Order("created_at ASC").
			Limit(config.Conf.DeadLetterLimit).
			Find(&records).Error
		if err != nil {
			logging.Logger.Info("failed to fetch dead letter events", zap.String("error", err.Error()))
			return nil, err
		}

		return records, err
	})
	if err != nil {
		return nil, err
	}

	records, ok := result.([]WebhookDeadLetter)
	if !ok {
		return nil, ErrInvalidDeadLetterSliceResult
	}

	return records, nil
}

func (dlRepository *DeadLetterRepository) UpdateStatus(
	ctx context.Context,
	record *WebhookDeadLetter,
	status string,
) error {
	_, err := dlRepository.CircuitBreaker.Execute(func() (any, error) {
		err := dlRepository.DBConn.
			WithContext(ctx).
			Model(record).
			Where("event_key = ?", record.EventKey).
			Update("status", status).Error
		if err != nil {
			return nil, err
		}

		return record, nil
	})

	return err
}

func (dlRepository *DeadLetterRepository) IncreaseRetryCount(
	ctx context.Context,
	record *WebhookDeadLetter,
	errMsg string,
) error {
	_, err := dlRepository.CircuitBreaker.Execute(func() (any, error) {
		updates := map[string]any{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_retry_at": time.Now(),
			"status":        StatusPending,
			"error":         errMsg,
		}

		err := dlRepository.DBConn.WithContext(ctx).
			Model(record).
			Where("event_key = ?", record.EventKey).
			Updates(updates).Error
		if err != nil {
			logging.Logger.Error("failed to increase dead letter retry count",
				zap.String("event_key", record.EventKey),
				zap.String("error", err.Error()),
			)

			return nil, err
		}

		return record, nil
	})

	return err
}

func (dlRepository *DeadLetterRepository) Delete(ctx context.Context, record *WebhookDeadLetter) error {
	_, err := dlRepository.CircuitBreaker.Execute(func() (any, error) {
		err := dlRepository.DBConn.WithContext(ctx).
			Where("event_key = ?", record.EventKey).
			Delete(record).
			Error

		return nil, err
	})

	return err
}
