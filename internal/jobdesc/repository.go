package jobdesc

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

type JobDescriptionRepository struct {
	DBConn         *gorm.DB
	CircuitBreaker *gobreaker.CircuitBreaker[any]
}

func NewJobDescriptionRepository(dbConn *gorm.DB) *JobDescriptionRepository {
	cbSettings := database.GetCircuitBreakerSettings()

	return &JobDescriptionRepository{
		DBConn:         dbConn,
		CircuitBreaker: gobreaker.NewCircuitBreaker[any](cbSettings),
	}
}

func (jdRepository *JobDescriptionRepository) Create(ctx context.Context, jd *JobDescription) error {
	_, err := jdRepository.CircuitBreaker.Execute(func() (any, error) {
		err := jdRepository.DBConn.WithContext(ctx).Create(jd).Error
		if err != nil {
			logging.Logger.Error("[Create] Failed to create job description",
				zap.String("jd_id", jd.ID.String()),
				zap.String("error", err.Error()),
			)

			return nil, err
		}

		return jd, nil
	})

	return err
}

// GetByID retrieves a JobDescription by its id.
func (jdRepository *JobDescriptionRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*JobDescription, error) {
	result, err := jdRepository.CircuitBreaker.Execute(func() (any, error) {
		var jd JobDescription

		err := jdRepository.DBConn.WithContext(ctx).
			Where("id = ?", id).
			First(&jd).Error
		if err != nil {
			return nil, err
		}

		return &jd, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "job description not found")
		}

		return nil, err
	}

	return result.(*JobDescription), nil
}
