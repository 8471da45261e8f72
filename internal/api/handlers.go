package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/maxaizer/ipu-notifier/internal/config"
	"github.com/maxaizer/ipu-notifier/internal/entities"
	"github.com/maxaizer/ipu-notifier/internal/logger"
	"github.com/maxaizer/ipu-notifier/internal/services"
	log "github.com/sirupsen/logrus"
)

type noticesQuery interface {
	ListByTags(ctx context.Context, tags []string, limit, offset int) (services.Page, error)
	Search(ctx context.Context, tags []string, text string, limit, offset int) (services.Page, error)
}

type noticesRefresher interface {
	Trigger(ctx context.Context) (services.IngestResult, error)
	NextAllowed() time.Time
}

type handlers struct {
	env       config.Environment
	query     noticesQuery
	refresher noticesRefresher
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeRequest(r, &req); err != nil {
		h.sendError(w, err)
		return
	}

	limit, offset := req.pagination()
	page, err := h.query.ListByTags(r.Context(), req.Tags, limit, offset)
	if err != nil {
		h.sendError(w, err)
		return
	}

	sendResponse(w, http.StatusOK, pageResponse(page))
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeRequest(r, &req); err != nil {
		h.sendError(w, err)
		return
	}

	limit, offset := req.pagination()
	page, err := h.query.Search(r.Context(), req.Tags, r.URL.Query().Get("query"), limit, offset)
	if err != nil {
		h.sendError(w, err)
		return
	}

	sendResponse(w, http.StatusOK, pageResponse(page))
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeRequest(r, &req); err != nil {
		h.sendError(w, err)
		return
	}

	if !*req.Refresh {
		sendResponse(w, http.StatusBadRequest,
			newResponse(http.StatusBadRequest, "Refresh not triggered. Set refresh to true to proceed."))
		return
	}

	// an admitted refresh consumes the cooldown, so it is not tied to the client connection
	result, err := h.refresher.Trigger(context.WithoutCancel(r.Context()))
	if err != nil {
		h.sendError(w, err)
		return
	}

	body := newResponse(http.StatusOK, "Refresh completed successfully")
	body.Data = result
	sendResponse(w, http.StatusOK, body)
}

func (h *handlers) notFound(w http.ResponseWriter, _ *http.Request) {
	sendResponse(w, http.StatusNotFound, newResponse(http.StatusNotFound, ""))
}

func (h *handlers) sendError(w http.ResponseWriter, err error) {
	var (
		validationErr *entities.ValidationError
		storageErr    *entities.StorageError
		fetchErr      *entities.FetchError
		parseErr      *entities.ParseError
	)

	var status int
	var message string

	switch {
	case errors.As(err, &validationErr):
		sendResponse(w, http.StatusBadRequest, newResponse(http.StatusBadRequest, validationErr.Error()))
		return
	case errors.Is(err, entities.ErrRateLimited):
		h.sendRateLimited(w)
		return
	case errors.As(err, &storageErr):
		status, message = http.StatusInternalServerError, "Database error occurred"
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("request failed: %v", err)
	case errors.As(err, &fetchErr), errors.As(err, &parseErr):
		status, message = http.StatusInternalServerError, "Refresh failed"
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeScraper).Errorf("refresh failed: %v", err)
	default:
		status, message = http.StatusInternalServerError, ""
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeHTTP).Errorf("request failed: %v", err)
	}

	body := newResponse(status, message)
	if h.env == config.Development {
		body.Error = err.Error()
	}
	sendResponse(w, status, body)
}

func (h *handlers) sendRateLimited(w http.ResponseWriter) {
	next := h.refresher.NextAllowed()
	wait := time.Until(next)
	if wait < 0 {
		wait = 0
	}

	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	body := newResponse(http.StatusTooManyRequests,
		fmt.Sprintf("Refresh can only be triggered once per cooldown window, next refresh allowed at %s.",
			next.UTC().Format(time.RFC3339)))
	sendResponse(w, http.StatusTooManyRequests, body)
}

func pageResponse(page services.Page) response {
	body := newResponse(http.StatusOK, "")
	body.Data = page.Notices
	body.Pagination = &pagination{
		Limit:      page.Limit,
		Offset:     page.Offset,
		HasMore:    page.HasMore,
		NextOffset: page.NextOffset,
	}
	return body
}
