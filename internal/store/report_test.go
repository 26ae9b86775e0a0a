package store

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepositoryContributorsByFacultyYearCountsSelectedOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(`(?s)COUNT\(DISTINCT c\.student_id\).*WHERE c\.status = 'selected'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_date", "end_date", "fid", "fname", "count"}))

	_, err := repo.ContributorsByFacultyYear(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryContributorsByYearCountsSelectedOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(`(?s)SELECT y\.id, COUNT\(DISTINCT c\.student_id\).*WHERE c\.status = 'selected'`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "count"}).AddRow("y1", 3))

	counts, err := repo.ContributorsByYear(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 3, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryTotalContributorsCountsSelectedOnly(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT student_id\) FROM contributions WHERE status = 'selected'`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	total, err := repo.TotalContributors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
