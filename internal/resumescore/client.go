package resumescore

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/goccy/go-json"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/resumehero/interviewd/internal/circuitbreak"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrEmptyCompletion = errors.New("resume scorer returned an empty completion")

// ScoreResult is the opaque collaborator output: extracted resume data plus
// the match scoring payload, both raw JSON as produced by the model.
type ScoreResult struct {
	ResumeData json.RawMessage `json:"resume_data"`
	ScoreData  json.RawMessage `json:"score_data"`
	Score      float64         `json:"score"`
}

type Scorer interface {
	ScoreResume(ctx context.Context, jobText, resumeText string) (*ScoreResult, error)
}

type ScoreClient struct {
	Client         *openai.Client
	CircuitBreaker *gobreaker.CircuitBreaker[[]byte]
}

func NewClient() *ScoreClient {
	opts := []option.RequestOption{
		option.WithBaseURL(config.Conf.ScorerBaseUrl),
		option.WithAPIKey(config.Conf.ScorerAPIKey),
		option.WithRequestTimeout(time.Duration(config.Conf.ScorerTimeout) * time.Second),
	}

	client := openai.NewClient(opts...)

	return &ScoreClient{
		Client:         &client,
		CircuitBreaker: newScorerCircuitBreaker(),
	}
}

func newScorerCircuitBreaker() *gobreaker.CircuitBreaker[[]byte] {
	settings := gobreaker.Settings{
		Name:     "ResumeScorer",
		Interval: time.Duration(config.Conf.ScorerIntervalCB) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.Conf.ScorerConsecutiveFailuresCB
		},
		OnStateChange: func(name string, fromState, toState gobreaker.State) {
			logging.Logger.Info("Circuit state changed",
				zap.String("service", name),
				zap.String("from", fromState.String()),
				zap.String("to", toState.String()),
			)

			if toState == gobreaker.StateOpen {
				circuitbreak.TriggerError(circuitbreak.ScorerService)
			}
		},
	}

	return gobreaker.NewCircuitBreaker[[]byte](settings)
}

const scoringPrompt = `Evaluate the following resume against the job description. ` +
	`Respond with a JSON object: {"resume_data": {extracted candidate facts}, ` +
	`"score_data": {per-criterion scores and rationale}, "score": overall match score 0-100}.`

// ScoreResume asks the model to rate a resume against a job description.
// The call is idempotent, so it retries with backoff behind the breaker.
func (scoreClient *ScoreClient) ScoreResume(
	ctx context.Context,
	jobText, resumeText string,
) (*ScoreResult, error) {
	logging.Logger.Info("Starting resume scoring",
		zap.Int("job_text_length", len(jobText)),
		zap.Int("resume_text_length", len(resumeText)),
	)

	result, err := scoreClient.CircuitBreaker.Execute(func() ([]byte, error) {
		return scoreClient.doScoreRequest(ctx, jobText, resumeText)
	})
	if err != nil {
		return nil, err
	}

	var scoreResult ScoreResult

	err = json.Unmarshal(result, &scoreResult)
	if err != nil {
		return nil, err
	}

	return &scoreResult, nil
}

func (scoreClient *ScoreClient) doScoreRequest(ctx context.Context, jobText, resumeText string) ([]byte, error) {
	var resultBytes []byte

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	err := retry.Do(
		func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			resp, err := scoreClient.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(config.Conf.ScorerModel),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(scoringPrompt),
					openai.UserMessage("Job description:\n" + jobText + "\n\nResume:\n" + resumeText),
				},
			})
			if err != nil {
				logging.Logger.Error("Resume scoring request failed",
					zap.String("error", err.Error()),
				)

				return err
			}

			if len(resp.Choices) == 0 {
				return ErrEmptyCompletion
			}

			resultBytes = []byte(resp.Choices[0].Message.Content)

			return nil
		},
		retry.Attempts(config.Conf.ScorerRetryMaxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(time.Duration(config.Conf.ScorerRetryMinBackoff)*time.Second),
		retry.MaxDelay(time.Duration(config.Conf.ScorerRetryMaxBackoff)*time.Second),
	)
	if err != nil {
		logging.Logger.Error("Resume scoring failed after all retry attempts",
			zap.String("error", err.Error()),
		)

		return nil, err
	}

	logging.Logger.Info("Resume scoring completed successfully",
		zap.Int("result_length", len(resultBytes)),
	)

	return resultBytes, nil
}
