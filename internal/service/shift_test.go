package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/triketime/internal/events"
	"github.com/Skotchmaster/triketime/internal/models"
)

func TestShiftService_StartStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "alice")

	started, err := f.shifts.StartShift(ctx, u.ID)
	require.NoError(t, err)
	t1 := started.StartTime

	_, err = f.shifts.StartShift(ctx, u.ID)
	assert.ErrorIs(t, err, ErrShiftAlreadyOpen)
	assert.ErrorIs(t, err, ErrConflict)

	f.clock.Advance(90 * time.Minute)
	stopped, err := f.shifts.StopShift(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stopped.EndTime)
	assert.True(t, stopped.EndTime.After(t1))

	_, err = f.shifts.StopShift(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNoOpenShift)

	history := f.shifts.ListHistory(ctx, u.ID, 0)
	require.Len(t, history, 1)
	assert.NotNil(t, history[0].EndTime)
}

func TestShiftService_ImmediateStopStaysOrdered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "bob")

	started, err := f.shifts.StartShift(ctx, u.ID)
	require.NoError(t, err)
	stopped, err := f.shifts.StopShift(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stopped.EndTime.After(started.StartTime))
}

func TestShiftService_ConcurrentStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "carol")

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.shifts.StartShift(ctx, u.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, ok)

	var open int64
	require.NoError(t, f.repo.DB.Model(&models.Shift{}).Where("end_time IS NULL").Count(&open).Error)
	assert.EqualValues(t, 1, open)
}

func TestShiftService_ConcurrentStartActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "casey")

	_, err := f.shifts.StartShift(ctx, u.ID)
	require.NoError(t, err)

	tags := []string{ActivityDrive, ActivityRest, ActivityOther}
	const n = 9
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.shifts.StartActivity(ctx, u.ID, tags[i%len(tags)])
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}

	var active int64
	require.NoError(t, f.repo.DB.Model(&models.Activity{}).
		Where("user_id = ? AND end_time IS NULL", u.ID).
		Count(&active).Error)
	assert.EqualValues(t, 1, active)
}

func TestShiftService_OpenShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "dave")

	open, err := f.shifts.OpenShift(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, open)

	started, err := f.shifts.StartShift(ctx, u.ID)
	require.NoError(t, err)

	open, err = f.shifts.OpenShift(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, started.ID, open.ID)
}

func TestShiftService_ActivityAutoTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "erin")

	_, err := f.shifts.StartShift(ctx, u.ID)
	require.NoError(t, err)

	drive, err := f.shifts.StartActivity(ctx, u.ID, ActivityDrive)
	require.NoError(t, err)

	f.clock.Advance(45 * time.Minute)
	rest, err := f.shifts.StartActivity(ctx, u.ID, ActivityRest)
	require.NoError(t, err)

	var closed models.Activity
	require.NoError(t, f.repo.DB.First(&closed, drive.ID).Error)
	require.NotNil(t, closed.EndTime)
	assert.True(t, closed.EndTime.Equal(rest.StartTime))

	active, err := f.shifts.ActiveActivity(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, ActivityRest, active.Tag)

	assert.Contains(t, f.events.types(), events.ActivityStopped)
}

func TestShiftService_InvalidActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "frank")

	_, err := f.shifts.StartActivity(ctx, u.ID, "invalid_tag")
	assert.ErrorIs(t, err, ErrInvalidActivity)

	var count int64
	require.NoError(t, f.repo.DB.Model(&models.Activity{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestShiftService_StopActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "gina")

	_, err := f.shifts.StopActivity(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNoActiveActivity)

	a, err := f.shifts.StartActivity(ctx, u.ID, ActivityOther)
	require.NoError(t, err)

	stopped, err := f.shifts.StopActivity(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, stopped.ID)

	active, err := f.shifts.ActiveActivity(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestShiftService_ListHistoryDegrades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "hank")

	sqlDB, err := f.repo.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	history := f.shifts.ListHistory(ctx, u.ID, 10)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestShiftService_ClearHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustDriver(t, f, "ivan")
	b := mustDriver(t, f, "judy")

	_, err := f.shifts.StartShift(ctx, a.ID)
	require.NoError(t, err)
	_, err = f.shifts.StartShift(ctx, b.ID)
	require.NoError(t, err)
	_, err = f.shifts.StartActivity(ctx, b.ID, ActivityDrive)
	require.NoError(t, err)

	deleted, err := f.shifts.ClearHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	assert.Empty(t, f.shifts.ListHistory(ctx, b.ID, 0))
	active, err := f.shifts.ActiveActivity(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestShiftService_Sessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := mustDriver(t, f, "kim")

	_, err := f.shifts.CreateSession(ctx, u.ID, "yesterday", "")
	assert.ErrorIs(t, err, ErrInvalidTimestamp)

	_, err = f.shifts.CreateSession(ctx, u.ID, "2025-03-01 10:00:00", "2025-03-01 09:00:00")
	assert.ErrorIs(t, err, ErrValidation)

	done, err := f.shifts.CreateSession(ctx, u.ID, "2025-03-01T08:00:00", "2025-03-01 16:30:00")
	require.NoError(t, err)
	require.NotNil(t, done.EndTime)

	open, err := f.shifts.CreateSession(ctx, u.ID, "2025-03-02 08:00:00", "")
	require.NoError(t, err)
	assert.Nil(t, open.EndTime)

	_, err = f.shifts.CreateSession(ctx, u.ID, "2025-03-03 08:00:00", "")
	assert.ErrorIs(t, err, ErrShiftAlreadyOpen)

	end := "2025-03-02 17:00:00"
	updated, err := f.shifts.UpdateSession(ctx, u.ID, open.ID, nil, &end)
	require.NoError(t, err)
	assert.Equal(t, end, FormatTimestamp(*updated.EndTime))

	_, err = f.shifts.UpdateSession(ctx, u.ID, open.ID, nil, &end)
	assert.ErrorIs(t, err, ErrShiftClosed)

	_, err = f.shifts.UpdateSession(ctx, u.ID, 9999, nil, &end)
	assert.ErrorIs(t, err, ErrNotFound)

	bad := "not a time"
	_, err = f.shifts.UpdateSession(ctx, u.ID, done.ID, &bad, nil)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}
