package objectstore

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/resumehero/interviewd/internal/circuitbreak"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/logging"
	prometheusInterviewd "github.com/resumehero/interviewd/internal/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrConvertToStringURL = errors.New("failed to convert result url to string")

var ErrBucketNotFound = errors.New("object store bucket does not exist")

type Client struct {
	Client         *minio.Client
	CircuitBreaker *gobreaker.CircuitBreaker[any]
	BucketName     string
	PathPrefix     string
}

func NewClient() (*Client, error) {
	endpointURL := config.Conf.MinioEndpointURL

	client, err := minio.New(endpointURL, &minio.Options{
		Creds:  credentials.NewStaticV4(config.Conf.MinioAccessKey, config.Conf.MinioSecretKey, ""),
		Secure: true,
	})
	if err != nil {
		logging.Logger.Error("Failed to initialize object store client",
			zap.String("endpoint", endpointURL),
			zap.String("error", err.Error()),
		)

		return nil, err
	}

	logging.Logger.Info("Successfully connected to object store",
		zap.String("endpoint", endpointURL),
		zap.String("bucket", config.Conf.MinioBucketName),
	)

	return &Client{
		Client:         client,
		CircuitBreaker: newCircuitBreaker(),
		BucketName:     config.Conf.MinioBucketName,
		PathPrefix:     config.Conf.MinioPathPrefix,
	}, nil
}

func newCircuitBreaker() *gobreaker.CircuitBreaker[any] {
	settings := gobreaker.Settings{
		Name:     "objectstore",
		Interval: time.Duration(config.Conf.MinioIntervalCB) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.Conf.MinioConsecutiveFailuresCB
		},
		OnStateChange: func(name string, fromState, toState gobreaker.State) {
			logging.Logger.Warn("Circuit state changed",
				zap.String("service", name),
				zap.String("from", fromState.String()),
				zap.String("to", toState.String()),
			)

			if toState == gobreaker.StateOpen {
				circuitbreak.TriggerError(circuitbreak.MinioService)
			}
		},
	}

	return gobreaker.NewCircuitBreaker[any](settings)
}

// Upload stores a JSON payload under the configured prefix and returns the
// object key.
func (c *Client) Upload(ctx context.Context, objectKey string, payload []byte) (string, error) {
	key, err := c.CircuitBreaker.Execute(func() (any, error) {
		return c.doUpload(ctx, objectKey, payload)
	})
	if err != nil {
		return "", err
	}

	keyStr, ok := key.(string)
	if !ok {
		return "", ErrConvertToStringURL
	}

	return keyStr, nil
}

// Probe verifies the configured bucket is reachable. Used by the health
// checker after an object store circuit break.
func (c *Client) Probe(ctx context.Context) error {
	_, err := c.CircuitBreaker.Execute(func() (any, error) {
		exists, err := c.Client.BucketExists(ctx, c.BucketName)
		if err != nil {
			return nil, err
		}

		if !exists {
			return nil, ErrBucketNotFound
		}

		return nil, nil
	})

	return err
}

func (c *Client) doUpload(ctx context.Context, objectKey string, payload []byte) (string, error) {
	timer := prometheus.NewTimer(prometheusInterviewd.ObjectStoreOperationDuration.WithLabelValues("upload"))
	defer timer.ObserveDuration()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, time.Duration(config.Conf.MinioTimeout)*time.Second)
	defer cancel()

	key := c.getKey(objectKey)

	err := retry.Do(
		func() error {
			_, err := c.Client.PutObject(
				ctxWithTimeout,
				c.BucketName,
				key,
				bytes.NewReader(payload),
				int64(len(payload)),
				minio.PutObjectOptions{ContentType: "application/json"},
			)
			if err != nil {
				logging.Logger.Error("Object store upload failed",
					zap.String("object_key", key),
					zap.String("error", err.Error()),
				)
			}

			return err
		},
		retry.Attempts(config.Conf.MinioMaxRetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(time.Duration(config.Conf.MinioRetryBackoffMinSeconds)*time.Second),
		retry.MaxDelay(time.Duration(config.Conf.MinioRetryBackoffMaxSeconds)*time.Second),
	)
	if err != nil {
		return "", err
	}

	logging.Logger.Info("Object uploaded successfully",
		zap.String("object_key", key),
		zap.Int("size", len(payload)),
	)

	return key, nil
}

func (c *Client) getKey(objectKey string) string {
	if c.PathPrefix == "" {
		return objectKey
	}

	return c.PathPrefix + "/" + objectKey
}
