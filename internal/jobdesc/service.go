package jobdesc

import (
	"context"

	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/apperr"
	"gorm.io/gorm"
)

type CreateInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type JobDescriptionService struct {
	JDRepository *JobDescriptionRepository
}

func NewService(dbConn *gorm.DB) *JobDescriptionService {
	return &JobDescriptionService{
		JDRepository: NewJobDescriptionRepository(dbConn),
	}
}

func (jdService *JobDescriptionService) Create(
	ctx context.Context,
	operatorID string,
	input *CreateInput,
) (*JobDescription, error) {
	if input.Title == "" {
		return nil, apperr.New(apperr.KindValidation, "title is required")
	}

	if input.Content == "" {
		return nil, apperr.New(apperr.KindValidation, "content is required")
	}

	record := &JobDescription{
		ID:      uuid.New(),
		UserID:  operatorID,
		Title:   input.Title,
		Content: input.Content,
	}

	err := jdService.JDRepository.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (jdService *JobDescriptionService) Get(
	ctx context.Context,
	operatorID string,
	jdID uuid.UUID,
) (*JobDescription, error) {
	record, err := jdService.JDRepository.GetByID(ctx, jdID)
	if err != nil {
		return nil, err
	}

	if record.UserID != operatorID {
		return nil, apperr.New(apperr.KindAuthorization, "caller does not own this job description")
	}

	return record, nil
}
