package services

import (
	"context"
	"fmt"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/ipu-notifier/internal/entities"
	"github.com/maxaizer/ipu-notifier/internal/events"
	"github.com/maxaizer/ipu-notifier/internal/logger"
	"github.com/maxaizer/ipu-notifier/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultScrapeTimeout = 30 * time.Second

type noticeRepository interface {
	Exists(ctx context.Context, title, viewLink string) (bool, error)
	Add(ctx context.Context, notice *entities.Notice) error
}

type noticesScraper interface {
	GetScheduleNotices(ctx context.Context) ([]entities.RawNotice, error)
}

type IngestResult struct {
	Inserted int               `json:"inserted"`
	Skipped  int               `json:"skipped"`
	Notices  []entities.Notice `json:"-"`
}

func (r IngestResult) String() string {
	return fmt.Sprintf("Inserted: %d, Skipped (duplicates): %d", r.Inserted, r.Skipped)
}

type NoticesIngestor struct {
	bus           EventBus.Bus
	notices       noticeRepository
	scraper       noticesScraper
	scrapeTimeout time.Duration
	tags          []string
}

func NewNoticesIngestor(bus EventBus.Bus, notices noticeRepository, scraper noticesScraper,
	scrapeTimeout time.Duration) (*NoticesIngestor, error) {

	if notices == nil {
		return nil, errors.New("notice repository is nil")
	}

	if scraper == nil {
		return nil, errors.New("scraper is nil")
	}

	if scrapeTimeout <= 0 {
		scrapeTimeout = defaultScrapeTimeout
	}

	return &NoticesIngestor{
		bus:           bus,
		notices:       notices,
		scraper:       scraper,
		scrapeTimeout: scrapeTimeout,
		tags:          []string{entities.IpuTag},
	}, nil
}

// Refresh scrapes the notices page once and stores the notices not seen before.
func (i *NoticesIngestor) Refresh(ctx context.Context) (IngestResult, error) {
	start := time.Now()
	defer func() {
		metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}()

	scrapeCtx, cancel := context.WithTimeout(ctx, i.scrapeTimeout)
	defer cancel()

	candidates, err := i.scraper.GetScheduleNotices(scrapeCtx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeScraper).Errorf("failed to scrape schedule notices: %v", err)
		return IngestResult{}, errors.Wrap(err, "scrape schedule notices")
	}
	log.Infof("scraped %d schedule notices", len(candidates))

	return i.Ingest(ctx, candidates)
}

// Ingest stores candidates in order, skipping those whose title and view link are already stored.
// On a storage failure it stops and returns the counts so far; earlier inserts stay committed.
func (i *NoticesIngestor) Ingest(ctx context.Context, candidates []entities.RawNotice) (IngestResult, error) {
	result := IngestResult{Notices: []entities.Notice{}}

	var err error
	for _, candidate := range candidates {
		if err = i.ingestOne(ctx, candidate, &result); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
				Errorf("failed to ingest notice %q: %v", candidate.Title, err)
			break
		}
	}

	metrics.InsertedNoticesCounter.Add(float64(result.Inserted))
	metrics.SkippedNoticesCounter.Add(float64(result.Skipped))
	log.Info(result.String())

	if result.Inserted > 0 && i.bus != nil {
		i.bus.Publish(events.NoticesIngestedTopic, events.NoticesIngested{Notices: result.Notices, Skipped: result.Skipped})
	}

	return result, err
}

func (i *NoticesIngestor) ingestOne(ctx context.Context, candidate entities.RawNotice, result *IngestResult) error {
	exists, err := i.notices.Exists(ctx, candidate.Title, candidate.ViewLink)
	if err != nil {
		return err
	}

	if exists {
		result.Skipped++
		return nil
	}

	notice := entities.NewNotice(candidate, i.tags...)
	if err = i.notices.Add(ctx, &notice); err != nil {
		return err
	}

	result.Inserted++
	result.Notices = append(result.Notices, notice)
	return nil
}
