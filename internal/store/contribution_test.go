package store

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uni-magazine/apiserver/types"
)

func TestContributionRepositoryCreateInsertsAssetsInOneTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContributionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO contributions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("contrib-1"))
	mock.ExpectExec("INSERT INTO contribution_assets").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO contribution_assets").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), types.Contribution{
		Title:          "On Campus Light",
		StudentID:      "student-1",
		FacultyID:      "fac-1",
		AcademicYearID: "year-1",
		Status:         types.ContributionPending,
	}, []NewAsset{
		{Type: types.AssetArticle, FilePath: "uploads/student-1/a.docx"},
		{Type: types.AssetImage, FilePath: "uploads/student-1/b.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "contrib-1", created.ID)
	assert.False(t, created.SubmissionDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepositoryCreateRollsBackOnAssetFailure(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContributionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO contributions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("contrib-1"))
	mock.ExpectExec("INSERT INTO contribution_assets").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), types.Contribution{Title: "x"}, []NewAsset{
		{Type: types.AssetArticle, FilePath: "uploads/a.docx"},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepositoryUpdateStatusOnlyMovesPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContributionRepository(db)

	// the WHERE status = 'pending' clause matched nothing
	mock.ExpectExec("UPDATE contributions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "contrib-1", types.ContributionSelected)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContributionRepositoryIncrementViewCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContributionRepository(db)

	mock.ExpectQuery("UPDATE contributions").
		WithArgs("contrib-1").
		WillReturnRows(sqlmock.NewRows([]string{"view_count"}).AddRow(8))

	count, err := repo.IncrementViewCount(context.Background(), "contrib-1")
	require.NoError(t, err)
	assert.Equal(t, 8, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
