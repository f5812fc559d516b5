package healthchecker

import (
	"context"

	"github.com/google/uuid"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/database"
	"github.com/resumehero/interviewd/internal/kafka"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/resumehero/interviewd/internal/objectstore"
	"github.com/resumehero/interviewd/internal/vapi"
	"go.uber.org/zap"
)

var healthcheckMsg = "healthchecker msg"

func CheckDB() error {
	_, err := database.NewDatabase()
	return err
}

func CheckVoice() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return vapi.NewService().Probe(ctx)
}

func CheckObjectStore() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := objectstore.NewClient()
	if err != nil {
		logging.Logger.Error("failed to create new object store client", zap.String("error", err.Error()))
		return err
	}

	return client.Probe(ctx)
}

func CheckKafkaProducer() error {
	producer, err := kafka.NewProducer()
	if err != nil {
		logging.Logger.Error("failed to create new kafka producer client", zap.String("error", err.Error()))
		return err
	}

	_, _, err = producer.SendMessage(
		config.Conf.KafkaInterviewTopic,
		[]byte(uuid.New().String()),
		[]byte(healthcheckMsg),
	)

	return err
}
