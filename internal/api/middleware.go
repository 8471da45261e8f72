package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/maxaizer/ipu-notifier/internal/logger"
	"github.com/maxaizer/ipu-notifier/internal/metrics"
	log "github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// observe logs every request and records its duration under the route name.
func observe(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if rec := recover(); rec != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeHTTP).
					Errorf("panic while handling %s %s: %v", r.Method, r.URL.Path, rec)
				sendResponse(recorder, http.StatusInternalServerError, newResponse(http.StatusInternalServerError, ""))
			}

			duration := time.Since(start)
			metrics.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(recorder.status)).Observe(duration.Seconds())
			log.WithFields(log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   recorder.status,
				"duration": duration,
			}).Info("request handled")
		}()

		next.ServeHTTP(recorder, r)
	})
}
