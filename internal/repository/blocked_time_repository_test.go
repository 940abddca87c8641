package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hall-booking-api/internal/models"
)

func TestBlockedTimeRepositoryListActiveInRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBlockedTimeRepository(db)

	from := time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "block_type", "start_date", "end_date", "hour", "day_of_week", "reason", "is_active", "created_by", "created_at", "updated_at"}).
		AddRow("r1", "day", day, day, nil, nil, "Competition", true, nil, day, day)
	mock.ExpectQuery(regexp.QuoteMeta("FROM blocked_times WHERE 1=1 AND is_active = TRUE AND start_date <= $1 AND end_date >= $2 ORDER BY start_date ASC, created_at ASC")).
		WithArgs(day, day).
		WillReturnRows(rows)

	rules, err := repo.List(context.Background(), models.BlockedTimeFilter{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, models.BlockTypeDay, rules[0].Type)
	assert.Nil(t, rules[0].Hour)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBlockedTimeRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBlockedTimeRepository(db)

	mock.ExpectExec("UPDATE blocked_times SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.BlockedTime{ID: "missing", Type: models.BlockTypeDay})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
