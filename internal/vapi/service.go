package vapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"
	"github.com/goccy/go-json"
	"github.com/resumehero/interviewd/internal/circuitbreak"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	ErrCreateAssistantRequest = errors.New("voice provider create assistant request failed")
	ErrCreateCallRequest      = errors.New("voice provider create call request failed")
	ErrGetCallRequest         = errors.New("voice provider get call request failed")
	ErrProviderServerError    = errors.New("voice provider server error")
)

type Assistant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Customer struct {
	Number string `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type Call struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	AssistantID string     `json:"assistantId"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`
	Transcript  string     `json:"transcript,omitempty"`
}

type createCallRequest struct {
	Assistant     map[string]string `json:"assistant"`
	Customer      *Customer         `json:"customer,omitempty"`
	PhoneNumberID string            `json:"phoneNumberId,omitempty"`
}

// Provider is the seam the lifecycle manager and call controller depend on;
// tests substitute a fake.
type Provider interface {
	CreateInterviewAssistant(
		ctx context.Context,
		jobTitle, jobDescription, candidateName string,
		questions []string,
	) (*Assistant, error)
	CreateCall(ctx context.Context, assistantID string, customer *Customer) (*Call, error)
	GetCall(ctx context.Context, callID string) (*Call, error)
}

type VapiService struct {
	CircuitBreaker *gobreaker.CircuitBreaker[[]byte]
}

func NewService() *VapiService {
	cbSettings := gobreaker.Settings{
		Name:     "VoiceProvider",
		Interval: time.Duration(config.Conf.VoiceIntervalCB) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.Conf.VoiceConsecutiveFailuresCB
		},
		OnStateChange: func(name string, fromState, toState gobreaker.State) {
			logging.Logger.Info("Circuit state changed",
				zap.String("service", name),
				zap.String("from", fromState.String()),
				zap.String("to", toState.String()),
			)

			if toState == gobreaker.StateOpen {
				circuitbreak.TriggerError(circuitbreak.VoiceService)
			}
		},
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, ErrProviderServerError)
		},
	}

	return &VapiService{
		CircuitBreaker: gobreaker.NewCircuitBreaker[[]byte](cbSettings),
	}
}

// CreateInterviewAssistant provisions a configured interviewer assistant.
// Retried with backoff; callers treat failure as a warning, not a hard error.
func (vapiService *VapiService) CreateInterviewAssistant(
	ctx context.Context,
	jobTitle, jobDescription, candidateName string,
	questions []string,
) (*Assistant, error) {
	reqBody, err := json.Marshal(buildAssistantRequest(jobTitle, jobDescription, candidateName, questions))
	if err != nil {
		return nil, err
	}

	body, statusCode, err := vapiService.doProviderRequestWithRetry(ctx, http.MethodPost, "/assistant", reqBody)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK && statusCode != http.StatusCreated {
		logging.Logger.Error("[CreateInterviewAssistant] Unexpected status from provider",
			zap.Int("status_code", statusCode),
			zap.ByteString("response_body", body),
		)

		return nil, ErrCreateAssistantRequest
	}

	var assistant Assistant

	err = json.Unmarshal(body, &assistant)
	if err != nil {
		return nil, err
	}

	logging.Logger.Info("Voice assistant created",
		zap.String("assistant_id", assistant.ID),
		zap.String("assistant_name", assistant.Name),
	)

	return &assistant, nil
}

// CreateCall places an outbound phone call. Never retried: a duplicate
// attempt would dial the candidate twice.
func (vapiService *VapiService) CreateCall(
	ctx context.Context,
	assistantID string,
	customer *Customer,
) (*Call, error) {
	reqBody, err := json.Marshal(createCallRequest{
		Assistant:     map[string]string{"assistantId": assistantID},
		Customer:      customer,
		PhoneNumberID: config.Conf.VoicePhoneNumberID,
	})
	if err != nil {
		return nil, err
	}

	body, statusCode, err := vapiService.doProviderRequest(ctx, http.MethodPost, "/call", reqBody)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK && statusCode != http.StatusCreated {
		logging.Logger.Error("[CreateCall] Unexpected status from provider",
			zap.String("assistant_id", assistantID),
			zap.Int("status_code", statusCode),
			zap.ByteString("response_body", body),
		)

		return nil, ErrCreateCallRequest
	}

	var call Call

	err = json.Unmarshal(body, &call)
	if err != nil {
		return nil, err
	}

	return &call, nil
}

// GetCall fetches call details; idempotent read, retried with backoff.
func (vapiService *VapiService) GetCall(ctx context.Context, callID string) (*Call, error) {
	body, statusCode, err := vapiService.doProviderRequestWithRetry(ctx, http.MethodGet, "/call/"+callID, nil)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		return nil, ErrGetCallRequest
	}

	var call Call

	err = json.Unmarshal(body, &call)
	if err != nil {
		return nil, err
	}

	return &call, nil
}

func (vapiService *VapiService) doProviderRequestWithRetry(
	ctx context.Context,
	method, path string,
	reqBody []byte,
) ([]byte, int, error) {
	var (
		body       []byte
		statusCode int
	)

	result, err := vapiService.CircuitBreaker.Execute(func() ([]byte, error) {
		err := retry.Do(
			func() error {
				var err error

				body, statusCode, err = vapiService.doRequest(ctx, method, path, reqBody)

				return err
			},
			retry.Attempts(config.Conf.VoiceRetryMaxAttempts),
			retry.DelayType(retry.BackOffDelay),
			retry.Delay(time.Duration(config.Conf.VoiceRetryMinBackoff)*time.Second),
			retry.MaxDelay(time.Duration(config.Conf.VoiceRetryMaxBackoff)*time.Second),
		)

		if statusCode >= http.StatusInternalServerError {
			return nil, ErrProviderServerError
		}

		if err != nil {
			return nil, err
		}

		return body, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return result, statusCode, nil
}

// Probe checks provider reachability without touching the breaker, so the
// health checker can test a tripped service.
func (vapiService *VapiService) Probe(ctx context.Context) error {
	_, statusCode, err := vapiService.doRequest(ctx, http.MethodGet, "/assistant", nil)
	if err != nil {
		return err
	}

	if statusCode >= http.StatusInternalServerError {
		return ErrProviderServerError
	}

	return nil
}

func (vapiService *VapiService) doProviderRequest(
	ctx context.Context,
	method, path string,
	reqBody []byte,
) ([]byte, int, error) {
	var statusCode int

	result, err := vapiService.CircuitBreaker.Execute(func() ([]byte, error) {
		var (
			body []byte
			err  error
		)

		body, statusCode, err = vapiService.doRequest(ctx, method, path, reqBody)

		if statusCode >= http.StatusInternalServerError {
			return nil, ErrProviderServerError
		}

		if err != nil {
			return nil, err
		}

		return body, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return result, statusCode, nil
}

func (vapiService *VapiService) doRequest(
	ctx context.Context,
	method, path string,
	reqBody []byte,
) ([]byte, int, error) {
	apiUrl, err := url.JoinPath(config.Conf.VoiceBaseUrl, path)
	if err != nil {
		return nil, 0, err
	}

	var bodyReader io.Reader
	if reqBody != nil {
		bodyReader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiUrl, bodyReader)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Authorization", "Bearer "+config.Conf.VoiceAPIKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		Timeout: time.Duration(config.Conf.VoiceTimeout) * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	defer func() {
		cerr := resp.Body.Close()
		if cerr != nil {
			logging.Logger.Error("Failed to close response body", zap.String("error", cerr.Error()))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return body, resp.StatusCode, nil
}
