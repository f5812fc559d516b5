package deadletter

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DeadLetterWorker struct {
	WorkerPool   *ants.Pool
	DLService    *DeadLetterService
	DLRepository *DeadLetterRepository
}

func NewWorker(
	dlService *DeadLetterService,
	dbConn *gorm.DB,
) (*DeadLetterWorker, error) {
	workerPool, err := ants.NewPool(config.Conf.DeadLetterPoolSize, ants.WithPreAlloc(true))
	if err != nil {
		return nil, err
	}

	return &DeadLetterWorker{
		WorkerPool:   workerPool,
		DLService:    dlService,
		DLRepository: NewRepository(dbConn),
	}, nil
}

func (dlWorker *DeadLetterWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(config.Conf.DeadLetterInterval) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dlWorker.processDeadLetters(ctx)
		}
	}
}

func (dlWorker *DeadLetterWorker) processDeadLetters(ctx context.Context) {
	records, err := dlWorker.DLRepository.GetPending(ctx)
	if err != nil {
		return
	}

	if len(records) == 0 {
		return
	}

	logging.Logger.Info("start processing dead letter events", zap.Int("count", len(records)))

	for idx := range records {
		record := records[idx]

		err := dlWorker.WorkerPool.Submit(func() {
			dlWorker.DLService.ProcessDeadLetter(ctx, &record)
		})
		if err != nil {
			logging.Logger.Error("failed to submit dead letter worker pool",
				zap.String("event_key", record.EventKey),
				zap.String("error", err.Error()),
			)
		}
	}
}
