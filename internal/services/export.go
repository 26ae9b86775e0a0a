package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/internal/store"
	"github.com/uni-magazine/apiserver/types"
)

// exportConcurrency bounds the parallel object downloads per export.
const exportConcurrency = 8

// ExportService builds the manager's ZIP archive of a year's selected
// contributions.
type ExportService struct {
	contributions ContributionRepository
	years         AcademicYearRepository
	objects       ObjectStore
	logger        *zap.Logger
}

func NewExportService(contributions ContributionRepository, years AcademicYearRepository, objects ObjectStore, logger *zap.Logger) *ExportService {
	return &ExportService{
		contributions: contributions,
		years:         years,
		objects:       objects,
		logger:        logger,
	}
}

// Archive is a built export ready to stream to the client.
type Archive struct {
	Filename string
	Data     []byte
}

// ExportSelected bundles a year's selected contributions into a ZIP. Each
// contribution gets its own folder holding a manifest and its files. With no
// explicit year id the year containing today is used.
func (s *ExportService) ExportSelected(ctx context.Context, academicYearID string) (Archive, error) {
	var year types.AcademicYear
	var err error
	if academicYearID == "" {
		year, err = s.years.FindContaining(ctx, time.Now())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return Archive{}, apperr.Validation("no academic year contains today's date")
			}
			return Archive{}, err
		}
	} else {
		year, err = s.years.Get(ctx, academicYearID)
		if err != nil {
			return Archive{}, err
		}
	}

	selected, err := s.contributions.ListSelectedByYear(ctx, year.ID)
	if err != nil {
		return Archive{}, err
	}
	if len(selected) == 0 {
		return Archive{}, apperr.Validation(fmt.Sprintf(
			"no selected contributions for the %s academic year",
			types.FormatAcademicYear(year.StartDate, year.EndDate),
		))
	}

	ids := make([]string, len(selected))
	for i, contribution := range selected {
		ids[i] = contribution.ID
	}
	assets, err := s.contributions.ListAssetsForContributions(ctx, ids)
	if err != nil {
		return Archive{}, err
	}

	downloads, err := s.downloadAll(ctx, assets)
	if err != nil {
		return Archive{}, err
	}

	assetsByContribution := map[string][]types.ContributionAsset{}
	for _, asset := range assets {
		assetsByContribution[asset.ContributionID] = append(assetsByContribution[asset.ContributionID], asset)
	}

	span := types.FormatAcademicYear(year.StartDate, year.EndDate)

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)
	for _, contribution := range selected {
		folder := contribution.ID

		manifest, err := archive.Create(path.Join(folder, "contribution_info.txt"))
		if err != nil {
			return Archive{}, err
		}
		if _, err := io.WriteString(manifest, manifestText(contribution, span)); err != nil {
			return Archive{}, err
		}

		for _, asset := range assetsByContribution[contribution.ID] {
			entry, err := archive.Create(path.Join(folder, path.Base(asset.FilePath)))
			if err != nil {
				return Archive{}, err
			}
			if _, err := entry.Write(downloads[asset.FilePath]); err != nil {
				return Archive{}, err
			}
		}
	}
	if err := archive.Close(); err != nil {
		return Archive{}, err
	}

	s.logger.Info("export built",
		zap.String("academic_year_id", year.ID),
		zap.Int("contributions", len(selected)),
		zap.Int("assets", len(assets)),
	)

	return Archive{
		Filename: exportFilename(year),
		Data:     buf.Bytes(),
	}, nil
}

// downloadAll fetches every asset from object storage with bounded
// concurrency, keyed by object path.
func (s *ExportService) downloadAll(ctx context.Context, assets []types.ContributionAsset) (map[string][]byte, error) {
	downloads := make(map[string][]byte, len(assets))
	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(exportConcurrency)
	for _, asset := range assets {
		key := asset.FilePath
		group.Go(func() error {
			reader, err := s.objects.Get(ctx, key)
			if err != nil {
				return fmt.Errorf("download %s: %w", key, err)
			}
			defer reader.Close()

			data, err := io.ReadAll(reader)
			if err != nil {
				return fmt.Errorf("download %s: %w", key, err)
			}

			mu.Lock()
			downloads[key] = data
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return downloads, nil
}

func manifestText(c types.ContributionDetail, yearSpan string) string {
	return fmt.Sprintf(
		"Title: %s\nDescription: %s\nStudent: %s <%s>\nFaculty: %s\nAcademic year: %s\nSubmitted: %s\nLast updated: %s\nViews: %d\nStatus: %s\n",
		c.Title,
		c.Description,
		c.StudentName,
		c.StudentEmail,
		c.FacultyName,
		yearSpan,
		c.SubmissionDate.Format(time.RFC3339),
		c.LastUpdated.Format(time.RFC3339),
		c.ViewCount,
		c.Status,
	)
}

func exportFilename(year types.AcademicYear) string {
	return fmt.Sprintf(
		"selected-contributions-%s-to-%s-academic-year.zip",
		year.StartDate.Format("2006-01"),
		year.EndDate.Format("2006-01"),
	)
}
