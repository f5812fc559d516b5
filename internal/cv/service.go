package cv

import (
	"context"

	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/apperr"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/jobdesc"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/resumehero/interviewd/internal/resumescore"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateInput struct {
	JobDescriptionID uuid.UUID `json:"job_description_id"`
	CandidateName    string    `json:"candidate_name"`
	CandidateEmail   string    `json:"candidate_email"`
	CandidatePhone   string    `json:"candidate_phone"`
	ResumeText       string    `json:"resume_text"`
}

type CVService struct {
	CVRepository *CVRepository
	JDRepository *jobdesc.JobDescriptionRepository
	Scorer       resumescore.Scorer
}

func NewService(dbConn *gorm.DB, scorer resumescore.Scorer) *CVService {
	return &CVService{
		CVRepository: NewCVRepository(dbConn),
		JDRepository: jobdesc.NewJobDescriptionRepository(dbConn),
		Scorer:       scorer,
	}
}

func (cvService *CVService) Create(ctx context.Context, operatorID string, input *CreateInput) (*CV, error) {
	if input.CandidateName == "" {
		return nil, apperr.New(apperr.KindValidation, "candidate_name is required")
	}

	if input.ResumeText == "" {
		return nil, apperr.New(apperr.KindValidation, "resume_text is required")
	}

	jd, err := cvService.JDRepository.GetByID(ctx, input.JobDescriptionID)
	if err != nil {
		return nil, err
	}

	if jd.UserID != operatorID {
		return nil, apperr.New(apperr.KindAuthorization, "caller does not own this job description")
	}

	record := &CV{
		ID:               uuid.New(),
		JobDescriptionID: jd.ID,
		CandidateName:    input.CandidateName,
		CandidateEmail:   input.CandidateEmail,
		CandidatePhone:   input.CandidatePhone,
		ResumeText:       input.ResumeText,
		Status:           StatusUploaded,
	}

	err = cvService.CVRepository.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (cvService *CVService) Get(ctx context.Context, operatorID string, cvID uuid.UUID) (*CV, error) {
	record, err := cvService.CVRepository.GetByID(ctx, cvID)
	if err != nil {
		return nil, err
	}

	if record.JobDescription.UserID != operatorID {
		return nil, apperr.New(apperr.KindAuthorization, "caller does not own this job description")
	}

	return record, nil
}

// Score runs the resume-scoring collaborator and stores its output. A CV
// scoring at or above the configured threshold is shortlisted automatically.
func (cvService *CVService) Score(ctx context.Context, operatorID string, cvID uuid.UUID) (*CV, error) {
	record, err := cvService.Get(ctx, operatorID, cvID)
	if err != nil {
		return nil, err
	}

	if cvService.Scorer == nil {
		return nil, apperr.New(apperr.KindConfiguration, "resume scorer is not configured")
	}

	result, err := cvService.Scorer.ScoreResume(ctx, record.JobDescription.Content, record.ResumeText)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindProvider, "resume scoring failed", err)
	}

	shortlisted := result.Score >= config.Conf.ShortlistMinScore

	err = cvService.CVRepository.Update(ctx, record.ID, map[string]any{
		"resume_data": datatypes.JSON(result.ResumeData),
		"score_data":  datatypes.JSON(result.ScoreData),
		"score":       result.Score,
		"status":      StatusScored,
		"shortlisted": shortlisted,
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("[Score] CV scored",
		zap.String("cv_id", record.ID.String()),
		zap.Float64("score", result.Score),
		zap.Bool("shortlisted", shortlisted),
	)

	return cvService.CVRepository.GetByID(ctx, record.ID)
}

func (cvService *CVService) ListByJobDescription(
	ctx context.Context,
	operatorID string,
	jdID uuid.UUID,
) ([]CV, error) {
	jd, err := cvService.JDRepository.GetByID(ctx, jdID)
	if err != nil {
		return nil, err
	}

	if jd.UserID != operatorID {
		return nil, apperr.New(apperr.KindAuthorization, "caller does not own this job description")
	}

	return cvService.CVRepository.ListByJobDescription(ctx, jdID)
}

func (cvService *CVService) ListShortlisted(ctx context.Context, operatorID string) ([]CV, error) {
	return cvService.CVRepository.ListShortlisted(ctx, operatorID)
}
