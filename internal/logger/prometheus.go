package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const unknownErrorType = "unknown"

// errorsHook counts error entries by their error_type field.
type errorsHook struct {
	errors *prometheus.CounterVec
}

func newErrorsHook(errors *prometheus.CounterVec) *errorsHook {
	return &errorsHook{errors: errors}
}

func (h *errorsHook) Fire(entry *log.Entry) error {
	errorType, _ := entry.Data[ErrorTypeField].(string)
	if errorType == "" {
		errorType = unknownErrorType
	}

	h.errors.WithLabelValues(errorType).Inc()
	return nil
}

func (h *errorsHook) Levels() []log.Level {
	return log.AllLevels[:log.ErrorLevel+1]
}
