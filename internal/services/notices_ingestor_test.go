package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/ipu-notifier/internal/entities"
	"github.com/maxaizer/ipu-notifier/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var candidates = []entities.RawNotice{
	{Title: "X", Year: "2024", ViewLink: "u1", DownloadLink: "d1"},
	{Title: "Y", Year: "2024", ViewLink: "u2", DownloadLink: "d2"},
	{Title: "X", Year: "2024", ViewLink: "u3", DownloadLink: "d3"},
}

func Test_Ingest_SecondRunSkipsEverything(t *testing.T) {
	store := &memoryNotices{}
	ingestor, err := NewNoticesIngestor(nil, store, &mockScraper{}, time.Second)
	require.NoError(t, err)

	first, err := ingestor.Ingest(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 0, first.Skipped)

	second, err := ingestor.Ingest(context.Background(), candidates)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, len(candidates), second.Skipped)
	assert.Equal(t, "Inserted: 0, Skipped (duplicates): 3", second.String())

	assert.Len(t, store.notices, 3)
}

func Test_Ingest_DuplicatesWithinOneRunAreStoredOnce(t *testing.T) {
	store := &memoryNotices{}
	ingestor, err := NewNoticesIngestor(nil, store, &mockScraper{}, time.Second)
	require.NoError(t, err)

	result, err := ingestor.Ingest(context.Background(), append(candidates, candidates[0]))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Inserted)
	assert.Equal(t, 1, result.Skipped)

	seen := map[[2]string]bool{}
	for _, notice := range store.notices {
		key := [2]string{notice.Title, notice.ViewLink}
		assert.False(t, seen[key], "duplicate notice %v", key)
		seen[key] = true
	}
}

func Test_Ingest_TagsNewNoticesWithFixedCategory(t *testing.T) {
	store := &memoryNotices{}
	ingestor, err := NewNoticesIngestor(nil, store, &mockScraper{}, time.Second)
	require.NoError(t, err)

	result, err := ingestor.Ingest(context.Background(), candidates[:1])
	require.NoError(t, err)

	require.Len(t, result.Notices, 1)
	assert.Equal(t, entities.IpuTag, result.Notices[0].Tags)
	assert.Equal(t, "2024", result.Notices[0].Description)
	assert.Equal(t, "d1", result.Notices[0].DownloadLink)
}

func Test_Ingest_StorageFailureKeepsEarlierInserts(t *testing.T) {
	notices := &mockNotices{}
	storageErr := &entities.StorageError{Op: "insert", Err: errors.New("disk full")}

	notices.On("Exists", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	notices.On("Add", mock.Anything, mock.MatchedBy(func(n *entities.Notice) bool { return n.ViewLink == "u1" })).
		Return(nil).Once()
	notices.On("Add", mock.Anything, mock.MatchedBy(func(n *entities.Notice) bool { return n.ViewLink == "u2" })).
		Return(storageErr).Once()

	ingestor, err := NewNoticesIngestor(nil, notices, &mockScraper{}, time.Second)
	require.NoError(t, err)

	result, err := ingestor.Ingest(context.Background(), candidates)

	var target *entities.StorageError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
	notices.AssertNumberOfCalls(t, "Add", 2)
	notices.AssertNumberOfCalls(t, "Exists", 2)
}

func Test_Ingest_PublishesEventOnlyWhenSomethingInserted(t *testing.T) {
	bus := EventBus.New()
	published := 0
	require.NoError(t, bus.Subscribe(events.NoticesIngestedTopic, func(event events.NoticesIngested) {
		published++
		assert.Len(t, event.Notices, 3)
	}))

	ingestor, err := NewNoticesIngestor(bus, &memoryNotices{}, &mockScraper{}, time.Second)
	require.NoError(t, err)

	_, err = ingestor.Ingest(context.Background(), candidates)
	require.NoError(t, err)
	_, err = ingestor.Ingest(context.Background(), candidates)
	require.NoError(t, err)

	assert.Equal(t, 1, published)
}

func Test_Refresh_ScrapeFailureAbortsBeforeStoring(t *testing.T) {
	notices := &mockNotices{}
	scraper := &mockScraper{}
	fetchErr := &entities.FetchError{URL: "https://example.org", Err: context.DeadlineExceeded}
	scraper.On("GetScheduleNotices", mock.Anything).Return(nil, fetchErr)

	ingestor, err := NewNoticesIngestor(nil, notices, scraper, time.Second)
	require.NoError(t, err)

	result, err := ingestor.Refresh(context.Background())

	var target *entities.FetchError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, IngestResult{}, result)
	notices.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything)
	notices.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func Test_Refresh_EmptyScrapeIsValid(t *testing.T) {
	scraper := &mockScraper{}
	scraper.On("GetScheduleNotices", mock.Anything).Return([]entities.RawNotice{}, nil)

	ingestor, err := NewNoticesIngestor(nil, &memoryNotices{}, scraper, time.Second)
	require.NoError(t, err)

	result, err := ingestor.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
}

func Test_Refresh_ScrapeRunsUnderTimeout(t *testing.T) {
	scraper := &mockScraper{}
	scraper.On("GetScheduleNotices", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 5*time.Second
	})).Return(candidates, nil).Once()

	ingestor, err := NewNoticesIngestor(nil, &memoryNotices{}, scraper, 5*time.Second)
	require.NoError(t, err)

	result, err := ingestor.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Inserted)
	scraper.AssertExpectations(t)
}

func Test_NewNoticesIngestor_RequiresCollaborators(t *testing.T) {
	_, err := NewNoticesIngestor(nil, nil, &mockScraper{}, time.Second)
	assert.Error(t, err)

	_, err = NewNoticesIngestor(nil, &memoryNotices{}, nil, time.Second)
	assert.Error(t, err)
}
