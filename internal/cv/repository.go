package cv

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

type CVRepository struct {
	DBConn         *gorm.DB
	CircuitBreaker *gobreaker.CircuitBreaker[any]
}

func NewCVRepository(dbConn *gorm.DB) *CVRepository {
	cbSettings := database.GetCircuitBreakerSettings()

	return &CVRepository{
		DBConn:         dbConn,
		CircuitBreaker: gobreaker.NewCircuitBreaker[any](cbSettings),
	}
}

func (cvRepository *CVRepository) Create(ctx context.Context, record *CV) error {
	_, err := cvRepository.CircuitBreaker.Execute(func() (any, error) {
		err := cvRepository.DBConn.WithContext(ctx).Create(record).Error
		if err != nil {
			logging.Logger.Error("[Create] Failed to create CV",
				zap.String("cv_id", record.ID.String()),
				zap.String("error", err.Error()),
			)

			return nil, err
		}

		return record, nil
	})

	return err
}

// GetByID retrieves a CV with its parent job description (ownership chain).
func (cvRepository *CVRepository) GetByID(ctx context.Context, id uuid.UUID) (*CV, error) {
	result, err := cvRepository.CircuitBreaker.Execute(func() (any, error) {
		var record CV

		err := cvRepository.DBConn.WithContext(ctx).
			Preload("JobDescription").
			Where("id = ?", id).
			First(&record).Error
		if err != nil {
			return nil, err
		}

		return &record, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "cv not found")
		}

		return nil, err
	}

	return result.(*CV), nil
}

func (cvRepository *CVRepository) ListByJobDescription(
	ctx context.Context,
	jobDescriptionID uuid.UUID,
) ([]CV, error) {
	result, err := cvRepository.CircuitBreaker.Execute(func() (any, error) {
		var records []CV

		err := cvRepository.DBConn.WithContext(ctx).
			Where("job_description_id = ?", jobDescriptionID).
			Order("created_at DESC").
			Find(&records).Error
		if err != nil {
			return nil, err
		}

		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]CV), nil
}

// ListShortlisted returns shortlisted CVs for all job descriptions of an operator.
func (cvRepository *CVRepository) ListShortlisted(ctx context.Context, userID string) ([]CV, error) {
	result, err := cvRepository.CircuitBreaker.Execute(func() (any, error) {
		var records []CV

		err := cvRepository.DBConn.WithContext(ctx).
			Joins("JOIN job_descriptions ON job_descriptions.id = cvs.job_description_id").
			Where("job_descriptions.user_id = ? AND cvs.shortlisted = ?", userID, true).
			Order("cvs.score DESC").
			Find(&records).Error
		if err != nil {
			return nil, err
		}

		return records, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]CV), nil
}

// Update applies a partial field map to the CV row.
func (cvRepository *CVRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}

	_, err := cvRepository.CircuitBreaker.Execute(func() (any, error) {
		err := cvRepository.DBConn.WithContext(ctx).
			Model(&CV{}).
			Where("id = ?", id).
			Updates(updates).Error
		if err != nil {
			logging.Logger.Error("[Update] Failed to update CV",
				zap.String("cv_id", id.String()),
				zap.Any("updates", updates),
				zap.String("error", err.Error()),
			)

			return nil, err
		}

		return nil, nil
	})

	return err
}
