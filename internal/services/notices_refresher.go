package services

import (
	"context"
	"errors"
	"time"

	"github.com/maxaizer/ipu-notifier/internal/entities"
	"github.com/maxaizer/ipu-notifier/internal/metrics"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type noticesRefresh interface {
	Refresh(ctx context.Context) (IngestResult, error)
}

// NoticesRefresher runs ingestion through the refresh gate, for manual and scheduled triggers alike.
type NoticesRefresher struct {
	gate     *RefreshGate
	ingestor noticesRefresh
	cron     *cron.Cron
}

// NewNoticesRefresher starts a scheduled refresh when schedule is a non-empty cron expression.
func NewNoticesRefresher(gate *RefreshGate, ingestor noticesRefresh, schedule string) (*NoticesRefresher, error) {

	if gate == nil {
		return nil, errors.New("refresh gate is nil")
	}

	if ingestor == nil {
		return nil, errors.New("ingestor is nil")
	}

	r := &NoticesRefresher{gate: gate, ingestor: ingestor}
	if schedule == "" {
		return r, nil
	}

	r.cron = cron.New()
	var entryID cron.EntryID
	entryID, err := r.cron.AddFunc(schedule, func() {
		r.refreshScheduled(r.cron.Entry(entryID).Prev)
	})
	if err != nil {
		return nil, err
	}

	r.cron.Start()
	log.Infof("scheduled notices refresh started, schedule: %q, cooldown: %v", schedule, gate.Cooldown())
	return r, nil
}

func (r *NoticesRefresher) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

// Trigger refreshes the notices unless a refresh was admitted within the cooldown window,
// in which case it returns entities.ErrRateLimited.
func (r *NoticesRefresher) Trigger(ctx context.Context) (IngestResult, error) {
	return r.refresh(ctx, r.gate.Admit())
}

func (r *NoticesRefresher) refresh(ctx context.Context, admitted bool) (IngestResult, error) {
	if !admitted {
		metrics.RefreshRejectedCounter.Inc()
		return IngestResult{}, entities.ErrRateLimited
	}
	return r.ingestor.Refresh(ctx)
}

func (r *NoticesRefresher) NextAllowed() time.Time {
	return r.gate.NextAllowed()
}

// RefreshInBackground triggers a refresh and logs the outcome instead of returning it.
func (r *NoticesRefresher) RefreshInBackground() {
	r.logOutcome(r.Trigger(context.Background()))
}

// refreshScheduled runs a cron tick that was due at scheduled.
func (r *NoticesRefresher) refreshScheduled(scheduled time.Time) {
	r.logOutcome(r.refresh(context.Background(), r.gate.AdmitScheduled(scheduled)))
}

func (r *NoticesRefresher) logOutcome(result IngestResult, err error) {
	switch {
	case errors.Is(err, entities.ErrRateLimited):
		log.Infof("scheduled refresh skipped, next refresh allowed at %v", r.gate.NextAllowed())
	case err != nil:
		log.Warnf("scheduled refresh failed: %v", err)
	default:
		log.Infof("scheduled refresh completed: %v", result)
	}
}
