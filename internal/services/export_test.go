package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/types"
)

type fakeExportRepo struct {
	fakeContributionRepo
	selected []types.ContributionDetail
	assets   []types.ContributionAsset
}

func (f *fakeExportRepo) ListSelectedByYear(context.Context, string) ([]types.ContributionDetail, error) {
	return f.selected, nil
}

func (f *fakeExportRepo) ListAssetsForContributions(context.Context, []string) ([]types.ContributionAsset, error) {
	return f.assets, nil
}

type contentObjects struct {
	fakeObjects
	contents map[string]string
}

func (c *contentObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(c.contents[key])), nil
}

func exportYear() types.AcademicYear {
	return types.AcademicYear{
		ID:        "year-1",
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestExportSelectedBuildsArchive(t *testing.T) {
	repo := &fakeExportRepo{
		selected: []types.ContributionDetail{
			{
				Contribution: types.Contribution{
					ID:             "contrib-1",
					Title:          "Campus Light",
					Status:         types.ContributionSelected,
					SubmissionDate: time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC),
				},
				StudentName:  "Ana",
				StudentEmail: "ana@example.edu",
				FacultyName:  "Arts",
			},
		},
		assets: []types.ContributionAsset{
			{ContributionID: "contrib-1", Type: types.AssetArticle, FilePath: "uploads/student-1/a.docx"},
			{ContributionID: "contrib-1", Type: types.AssetImage, FilePath: "uploads/student-1/b.png"},
		},
	}
	objects := &contentObjects{contents: map[string]string{
		"uploads/student-1/a.docx": "article bytes",
		"uploads/student-1/b.png":  "image bytes",
	}}
	service := NewExportService(repo, &fakeYearRepo{year: exportYear()}, objects, zap.NewNop())

	archive, err := service.ExportSelected(context.Background(), "year-1")
	require.NoError(t, err)
	assert.Equal(t, "selected-contributions-2025-09-to-2026-06-academic-year.zip", archive.Filename)

	reader, err := zip.NewReader(bytes.NewReader(archive.Data), int64(len(archive.Data)))
	require.NoError(t, err)

	entries := map[string]string{}
	for _, file := range reader.File {
		rc, err := file.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[file.Name] = string(data)
	}

	require.Len(t, entries, 3)
	assert.Contains(t, entries["contrib-1/contribution_info.txt"], "Title: Campus Light")
	assert.Contains(t, entries["contrib-1/contribution_info.txt"], "Student: Ana <ana@example.edu>")
	assert.Contains(t, entries["contrib-1/contribution_info.txt"], "Academic year: 2025-2026")
	assert.Equal(t, "article bytes", entries["contrib-1/a.docx"])
	assert.Equal(t, "image bytes", entries["contrib-1/b.png"])
}

func TestExportSelectedInfersCurrentYear(t *testing.T) {
	repo := &fakeExportRepo{
		selected: []types.ContributionDetail{
			{Contribution: types.Contribution{ID: "contrib-1", Status: types.ContributionSelected}},
		},
	}
	objects := &contentObjects{contents: map[string]string{}}
	service := NewExportService(repo, &fakeYearRepo{year: exportYear()}, objects, zap.NewNop())

	archive, err := service.ExportSelected(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "selected-contributions-2025-09-to-2026-06-academic-year.zip", archive.Filename)
}

func TestExportSelectedRejectsEmptyYear(t *testing.T) {
	service := NewExportService(&fakeExportRepo{}, &fakeYearRepo{year: exportYear()}, &fakeObjects{}, zap.NewNop())

	_, err := service.ExportSelected(context.Background(), "year-1")
	assert.True(t, apperr.IsValidation(err))
}
