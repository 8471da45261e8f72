package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/maxaizer/ipu-notifier/internal/config"
	"github.com/maxaizer/ipu-notifier/internal/metrics"
	"github.com/maxaizer/ipu-notifier/pkg/loki"
	log "github.com/sirupsen/logrus"
)

const ErrorTypeField = "error_type"

const (
	ErrorTypeDb      = "db"
	ErrorTypeScraper = "scraper"
	ErrorTypeHTTP    = "http"
)

var (
	logFile    *os.File
	lokiPusher *loki.Pusher
)

func Setup(ctx context.Context, cfg config.LoggerConfig) {

	if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	var err error
	logFile, err = os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(multiWriter)

	customFormatter := &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000 -0700",
	}
	log.SetFormatter(customFormatter)
	log.SetLevel(toLogrusLevel(cfg.LogLevel))

	metrics.Register()
	log.AddHook(newErrorsHook(metrics.ErrorsCounter))

	if cfg.LokiURL == "" {
		return
	}

	minLevel := log.GetLevel()
	if cfg.LokiLevel != "" {
		minLevel = toLogrusLevel(cfg.LokiLevel)
	}

	lokiPusher, err = addLokiHook(ctx, loki.Config{
		Url:      cfg.LokiURL,
		Username: cfg.LokiUser,
		Password: cfg.LokiPassword,
		Labels:   map[string]string{"app": cfg.AppName},
	}, minLevel)
	if err != nil {
		log.Errorf("Failed to enable Loki logging: %v", err)
	}
}

func Cleanup() {
	if lokiPusher != nil {
		lokiPusher.Stop()
		lokiPusher = nil
	}
	if logFile != nil {
		log.SetOutput(os.Stdout)
		_ = logFile.Close()
		logFile = nil
	}
}

func toLogrusLevel(level config.LogLevel) log.Level {
	switch level {
	case config.LevelInfo:
		return log.InfoLevel
	case config.LevelDebug:
		return log.DebugLevel
	case config.LevelWarning:
		return log.WarnLevel
	case config.LevelError:
		return log.ErrorLevel
	case config.LevelFatal:
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}
