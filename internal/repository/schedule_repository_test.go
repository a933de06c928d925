package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mira-santoso/salonbook-api/internal/models"
)

func TestScheduleRepositoryGetWeekScheduleUnconfigured(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM week_schedule")).
		WillReturnRows(sqlmock.NewRows([]string{"weekday", "is_available", "updated_at"}))

	week, err := repo.GetWeekSchedule(context.Background())
	require.NoError(t, err)
	assert.Nil(t, week)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryGetWeekScheduleAssemblesWindows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	updated := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	dayRows := sqlmock.NewRows([]string{"weekday", "is_available", "updated_at"})
	for wd := 0; wd <= 6; wd++ {
		dayRows.AddRow(wd, wd != 0, updated)
	}
	windowRows := sqlmock.NewRows([]string{"weekday", "start_minute", "end_minute"}).
		AddRow(2, 540, 720).
		AddRow(2, 780, 1020).
		AddRow(6, 600, 840)

	mock.ExpectQuery(regexp.QuoteMeta("FROM week_schedule")).WillReturnRows(dayRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_windows")).WillReturnRows(windowRows)

	week, err := repo.GetWeekSchedule(context.Background())
	require.NoError(t, err)
	require.NotNil(t, week)

	assert.False(t, week.Days[0].IsAvailable)
	assert.Empty(t, week.Days[0].TimeWindows)
	require.Len(t, week.Days[2].TimeWindows, 2)
	assert.Equal(t, models.TimeWindow{StartMinute: 540, EndMinute: 720}, week.Days[2].TimeWindows[0])
	require.Len(t, week.Days[6].TimeWindows, 1)
	assert.True(t, week.UpdatedAt.Equal(updated))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryReplaceWeekSchedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	var week models.WeekSchedule
	for i := range week.Days {
		week.Days[i] = models.DaySchedule{Weekday: i}
	}
	week.Days[1].IsAvailable = true
	week.Days[1].TimeWindows = []models.TimeWindow{{StartMinute: 540, EndMinute: 1020}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_windows")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM week_schedule")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	for wd := 0; wd <= 6; wd++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO week_schedule")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		if wd == 1 {
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_windows")).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}
	}
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceWeekSchedule(context.Background(), week))
	require.NoError(t, mock.ExpectationsWereMet())
}
