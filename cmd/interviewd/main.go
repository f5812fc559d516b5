package main

import (
	"context"

	"github.com/resumehero/interviewd/internal/app"
	"github.com/resumehero/interviewd/internal/config"
	"github.com/resumehero/interviewd/internal/logging"
	"github.com/resumehero/interviewd/internal/prometheus"
	"go.uber.org/zap"
)

func main() {
	err := config.Load()
	if err != nil {
		logging.Logger.Fatal("failed to load config", zap.String("error", err.Error()))
	}

	err = logging.Init(config.Conf.LogLevel, config.Conf.LogFilePath)
	if err != nil {
		logging.Logger.Fatal("failed to initialize logger", zap.String("error", err.Error()))
	}

	go prometheus.Run()

	for {
		ctx, cancel := context.WithCancel(context.Background())

		interviewd, err := app.NewApp(cancel)
		if err != nil {
			logging.Logger.Fatal("failed to create interviewd app", zap.String("error", err.Error()))
		}

		err = interviewd.Run(ctx)
		if err != nil {
			logging.Logger.Error("app run finished with error", zap.String("error", err.Error()))
		}

		<-ctx.Done()

		interviewd.HealthCheckerService.Check()

		cancel()
	}
}
