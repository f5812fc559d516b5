package interview

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/apperr"
	"github.com/resumehero/interviewd/internal/database"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InterviewRepository struct {
	DBConn         *gorm.DB
	CircuitBreaker *gobreaker.CircuitBreaker[any]
}

func NewInterviewRepository(dbConn *gorm.DB) *InterviewRepository {
	cbSettings := database.GetCircuitBreakerSettings()

	return &InterviewRepository{
		DBConn:         dbConn,
		CircuitBreaker: gobreaker.NewCircuitBreaker[any](cbSettings),
	}
}

func (interviewRepository *InterviewRepository) Create(ctx context.Context, record *Interview) error {
	_, err := interviewRepository.CircuitBreaker.Execute(func() (any, error) {
		if ctx.Err() != nil {
			logging.Logger.Warn("[Create] Context canceled before DB operation",
				zap.String("interview_id", record.ID.String()),
				zap.Error(ctx.Err()),
			)

			return nil, ctx.Err()
		}

		err := interviewRepository.DBConn.WithContext(ctx).Create(record).Error
		if err != nil {
			logging.Logger.Error("[Create] Failed to create interview",
				zap.String("interview_id", record.ID.String()),
				zap.String("error", err.Error()),
			)

			return nil, err
		}

		return record, nil
	})

	return err
}

// GetByID retrieves an interview with its CV and job description preloaded.
func (interviewRepository *InterviewRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*Interview, error) {
	return interviewRepository.getOne(ctx, "id = ?", id.String())
}

// GetByAccessToken is the candidate-facing lookup path.
func (interviewRepository *InterviewRepository) GetByAccessToken(
	ctx context.Context,
	token string,
) (*Interview, error) {
	return interviewRepository.getOne(ctx, "access_token = ?", token)
}

// GetByProviderCallID is the webhook lookup path.
func (interviewRepository *InterviewRepository) GetByProviderCallID(
	ctx context.Context,
	callID string,
) (*Interview, error) {
	return interviewRepository.getOne(ctx, "provider_call_id = ?", callID)
}

func (interviewRepository *InterviewRepository) getOne(
	ctx context.Context,
	query, arg string,
) (*Interview, error) {
	result, err := interviewRepository.CircuitBreaker.Execute(func() (any, error) {
		var record Interview

		err := interviewRepository.DBConn.WithContext(ctx).
			Preload("CV").
			Preload("CV.JobDescription").
			Where(query, arg).
			First(&record).Error
		if err != nil {
			return nil, err
		}

		return &record, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "interview not found")
		}

		return nil, err
	}

	return result.(*Interview), nil
}

// ListByCV returns all interviews for a CV, newest schedule first.
func (interviewRepository *InterviewRepository) ListByCV(
	ctx context.Context,
	cvID uuid.UUID,
) ([]Interview, error) {
	result, err := interviewRepository.CircuitBreaker.Execute(func() (any, error) {
		var records []Interview

		err := interviewRepository.DBConn.WithContext(ctx).
			Where("cv_id = ?", cvID).
			Order("scheduled_at DESC").
			Find(&records).Error
		if err != nil {
			return nil, err
		}

		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]Interview), nil
}

// Update applies a partial field map; all updates are whole-field replacements.
func (interviewRepository *InterviewRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	updates map[string]any,
) error {
	if len(updates) == 0 {
		return nil
	}

	_, err := interviewRepository.CircuitBreaker.Execute(func() (any, error) {
		err := interviewRepository.DBConn.WithContext(ctx).
			Model(&Interview{}).
			Where("id = ?", id).
			Updates(updates).Error
		if err != nil {
			logging.Logger.Error("[Update] Failed to update interview",
				zap.String("interview_id", id.String()),
				zap.Any("updates", updates),
				zap.String("error", err.Error()),
			)

			return nil, err
		}

		return nil, nil
	})

	return err
}
