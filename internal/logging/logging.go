package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

func init() {
	// Console-only fallback so packages can log before Init runs (and in tests).
	Logger = newConsoleLogger(zapcore.InfoLevel)
}

// Init replaces the fallback logger with the configured double logger:
// JSON to the log file, human-readable console tee on stdout.
func Init(logLevel, logFilePath string) error {
	logger, err := getDoubleLogger(logLevel, logFilePath)
	if err != nil {
		return err
	}

	Logger = logger

	return nil
}

func getDoubleLogger(logLevel, logFilePath string) (*zap.Logger, error) {
	productionEncoderConfig := zap.NewProductionEncoderConfig()
	productionEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		zap.NewExample().Info("Invalid log level, using info level")

		level = zapcore.InfoLevel
	}

	zapConfig := &zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: false,
		Encoding:          "json",
		EncoderConfig:     productionEncoderConfig,
		OutputPaths:       []string{logFilePath},
	}

	fileLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	core := zapcore.NewTee(
		fileLogger.Core(),
		newConsoleLogger(level).Core(),
	)

	return zap.New(core, zap.AddCaller()), nil
}

func newConsoleLogger(level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.ConsoleSeparator = "  "
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	return zap.New(core)
}
