package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maxaizer/ipu-notifier/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_Trigger_SecondCallWithinCooldownIsRateLimited(t *testing.T) {
	clock := newFakeClock()
	ingestor := &mockRefresh{}
	ingestor.On("Refresh", mock.Anything).Return(IngestResult{Inserted: 2}, nil)

	refresher, err := NewNoticesRefresher(NewRefreshGate(6*time.Hour, WithClock(clock.Now)), ingestor, "")
	require.NoError(t, err)
	defer refresher.Stop()

	result, err := refresher.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted)

	clock.Advance(time.Hour)
	_, err = refresher.Trigger(context.Background())
	assert.ErrorIs(t, err, entities.ErrRateLimited)
	assert.Equal(t, clock.Now().Add(5*time.Hour), refresher.NextAllowed())

	clock.Advance(5 * time.Hour)
	_, err = refresher.Trigger(context.Background())
	assert.NoError(t, err)

	ingestor.AssertNumberOfCalls(t, "Refresh", 2)
}

func Test_Trigger_FailedRefreshStillConsumesCooldown(t *testing.T) {
	ingestor := &mockRefresh{}
	scrapeErr := &entities.ParseError{URL: "https://example.org", Reason: "unexpected content type"}
	ingestor.On("Refresh", mock.Anything).Return(IngestResult{}, scrapeErr).Once()

	refresher, err := NewNoticesRefresher(NewRefreshGate(time.Hour), ingestor, "")
	require.NoError(t, err)

	_, err = refresher.Trigger(context.Background())
	var parseErr *entities.ParseError
	assert.True(t, errors.As(err, &parseErr))

	_, err = refresher.Trigger(context.Background())
	assert.ErrorIs(t, err, entities.ErrRateLimited)
	ingestor.AssertNumberOfCalls(t, "Refresh", 1)
}

func Test_NewNoticesRefresher_RejectsInvalidSchedule(t *testing.T) {
	_, err := NewNoticesRefresher(NewRefreshGate(time.Hour), &mockRefresh{}, "every so often")
	assert.Error(t, err)
}

func Test_NewNoticesRefresher_StartsAndStopsSchedule(t *testing.T) {
	refresher, err := NewNoticesRefresher(NewRefreshGate(time.Hour), &mockRefresh{}, "0 */6 * * *")
	require.NoError(t, err)
	require.NotNil(t, refresher.cron)
	assert.Len(t, refresher.cron.Entries(), 1)
	refresher.Stop()
}

func Test_RefreshScheduled_TicksOneCooldownApartAreAdmitted(t *testing.T) {
	clock := newFakeClock()
	ingestor := &mockRefresh{}
	ingestor.On("Refresh", mock.Anything).Return(IngestResult{}, nil)

	gate := NewRefreshGate(6*time.Hour, WithClock(clock.Now))
	refresher, err := NewNoticesRefresher(gate, ingestor, "")
	require.NoError(t, err)

	tick := clock.Now()
	jitter := []time.Duration{500 * time.Microsecond, 100 * time.Microsecond, 2 * time.Millisecond, 0}
	for _, delay := range jitter {
		clock.Advance(delay)
		refresher.refreshScheduled(tick)
		clock.Advance(-delay)

		tick = tick.Add(6 * time.Hour)
		clock.Advance(6 * time.Hour)
	}
	ingestor.AssertNumberOfCalls(t, "Refresh", len(jitter))

	// a manual trigger right after a tick is still rate limited
	clock.Advance(-6 * time.Hour)
	_, err = refresher.Trigger(context.Background())
	assert.ErrorIs(t, err, entities.ErrRateLimited)
}

func Test_NewNoticesRefresher_ScheduleWithCooldownPeriodRunsEveryTick(t *testing.T) {
	ingestor := &mockRefresh{}
	ingestor.On("Refresh", mock.Anything).Return(IngestResult{}, nil)

	refresher, err := NewNoticesRefresher(NewRefreshGate(time.Second), ingestor, "@every 1s")
	require.NoError(t, err)

	time.Sleep(3500 * time.Millisecond)
	refresher.Stop()

	// ticks land at most one second apart, so at least three fire in the window
	assert.GreaterOrEqual(t, len(ingestor.Calls), 3)
}
