package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/internal/mailer"
	"github.com/uni-magazine/apiserver/internal/pagination"
	"github.com/uni-magazine/apiserver/internal/store"
	"github.com/uni-magazine/apiserver/types"
)

// ContributionRepository defines persistence operations for contributions.
type ContributionRepository interface {
	Create(ctx context.Context, c types.Contribution, assets []store.NewAsset) (types.Contribution, error)
	Get(ctx context.Context, id string) (types.Contribution, error)
	GetDetail(ctx context.Context, id string) (types.ContributionDetail, error)
	Update(ctx context.Context, id, title, description string, assets []store.NewAsset) ([]string, error)
	UpdateStatus(ctx context.Context, id, status string) error
	IncrementViewCount(ctx context.Context, id string) (int, error)
	List(ctx context.Context, filter store.ListFilter, params pagination.Params) ([]types.Contribution, error)
	ListAssets(ctx context.Context, contributionID string) ([]types.ContributionAsset, error)
	ListAssetsForContributions(ctx context.Context, ids []string) ([]types.ContributionAsset, error)
	ListComments(ctx context.Context, contributionID string) ([]types.Comment, error)
	CountComments(ctx context.Context, contributionID string) (int, error)
	AddComment(ctx context.Context, comment types.Comment) (types.Comment, error)
	SetFeedbackGiven(ctx context.Context, id string) error
	ListSelectedByYear(ctx context.Context, academicYearID string) ([]types.ContributionDetail, error)
}

// ObjectStore is the slice of object storage the services need.
type ObjectStore interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key string) (string, error)
	UploadURL(ctx context.Context, key string) (string, error)
}

// ContributionService encapsulates the contribution lifecycle.
type ContributionService struct {
	contributions ContributionRepository
	users         UserRepository
	years         AcademicYearRepository
	objects       ObjectStore
	mail          mailer.Mailer
	events        *Events
	logger        *zap.Logger

	frontendURL            string
	coordinatorOpensThread bool
}

// ContributionServiceParams collects the service's dependencies.
type ContributionServiceParams struct {
	Contributions ContributionRepository
	Users         UserRepository
	Years         AcademicYearRepository
	Objects       ObjectStore
	Mail          mailer.Mailer
	Events        *Events
	Logger        *zap.Logger

	FrontendURL            string
	CoordinatorOpensThread bool
}

func NewContributionService(params ContributionServiceParams) *ContributionService {
	return &ContributionService{
		contributions:          params.Contributions,
		users:                  params.Users,
		years:                  params.Years,
		objects:                params.Objects,
		mail:                   params.Mail,
		events:                 params.Events,
		logger:                 params.Logger,
		frontendURL:            params.FrontendURL,
		coordinatorOpensThread: params.CoordinatorOpensThread,
	}
}

// AssetInput is one uploaded file reference on create or update.
type AssetInput struct {
	Type     string
	FilePath string
}

func toNewAssets(inputs []AssetInput) ([]store.NewAsset, error) {
	articles := 0
	assets := make([]store.NewAsset, 0, len(inputs))
	for _, input := range inputs {
		switch input.Type {
		case types.AssetArticle:
			articles++
		case types.AssetImage:
		default:
			return nil, apperr.Validation("asset type must be article or image")
		}
		if strings.TrimSpace(input.FilePath) == "" {
			return nil, apperr.Validation("asset file path is required")
		}
		assets = append(assets, store.NewAsset{Type: input.Type, FilePath: input.FilePath})
	}
	if articles != 1 {
		return nil, apperr.Validation("exactly one article is required")
	}
	return assets, nil
}

// Create submits a new contribution for the student's faculty, inside the
// currently open academic year, and notifies the faculty's coordinator.
func (s *ContributionService) Create(ctx context.Context, student types.User, title, description string, assetInputs []AssetInput) (types.ContributionDetail, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.ContributionDetail{}, apperr.Validation("title is required")
	}
	if student.FacultyID == "" {
		return types.ContributionDetail{}, apperr.Validation("student has no faculty")
	}

	assets, err := toNewAssets(assetInputs)
	if err != nil {
		return types.ContributionDetail{}, err
	}

	now := time.Now()
	year, err := s.years.FindContaining(ctx, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ContributionDetail{}, apperr.Validation("no academic year is currently open for submissions")
		}
		return types.ContributionDetail{}, err
	}
	if now.After(year.NewClosureDate) {
		return types.ContributionDetail{}, apperr.Validation("new submissions are closed for this academic year")
	}

	coordinator, err := s.users.FindCoordinatorByFaculty(ctx, student.FacultyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ContributionDetail{}, apperr.Validation("the faculty has no marketing coordinator yet")
		}
		return types.ContributionDetail{}, err
	}

	contribution, err := s.contributions.Create(ctx, types.Contribution{
		Title:          title,
		Description:    description,
		StudentID:      student.ID,
		FacultyID:      student.FacultyID,
		AcademicYearID: year.ID,
		Status:         types.ContributionPending,
	}, assets)
	if err != nil {
		return types.ContributionDetail{}, err
	}

	// Notification failures must not lose the submission.
	email := mailer.NewContributionEmail(coordinator.Name, student.Name, title, contribution.ID, s.frontendURL)
	email.To = coordinator.Email
	if result := s.mail.Send(ctx, email); !result.Success {
		s.logger.Warn("coordinator notification failed",
			zap.String("contribution_id", contribution.ID),
			zap.Error(result.Err),
		)
	}

	s.events.ContributionSubmitted(ctx, contribution)

	return s.detail(ctx, contribution.ID, true)
}

// Get returns a contribution with presigned assets, enforcing the viewer's
// visibility rules. The comment thread is included only for a coordinator or
// the author. A missing id yields a nil detail rather than an error; the
// handler serves it as a null body.
func (s *ContributionService) Get(ctx context.Context, viewer types.User, id string) (*types.ContributionDetail, error) {
	contribution, err := s.contributions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := canView(viewer, contribution); err != nil {
		return nil, err
	}

	withComments := viewer.Role == types.RoleMarketingCoordinator || viewer.ID == contribution.StudentID
	detail, err := s.detail(ctx, id, withComments)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func canView(viewer types.User, c types.Contribution) error {
	switch viewer.Role {
	case types.RoleAdmin, types.RoleMarketingManager, types.RoleMarketingCoordinator:
		return nil
	case types.RoleStudent:
		if viewer.ID == c.StudentID || c.Status == types.ContributionSelected {
			return nil
		}
	case types.RoleGuest:
		if viewer.FacultyID == c.FacultyID && c.Status == types.ContributionSelected {
			return nil
		}
	}
	return apperr.Forbidden("you cannot view this contribution")
}

// Update lets the owning student edit a pending contribution until the
// year's final closure date. A non-nil asset list replaces the whole set.
func (s *ContributionService) Update(ctx context.Context, student types.User, id, title, description string, assetInputs []AssetInput) (types.ContributionDetail, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return types.ContributionDetail{}, apperr.Validation("title is required")
	}

	contribution, err := s.contributions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ContributionDetail{}, apperr.Validation("contribution not found")
		}
		return types.ContributionDetail{}, err
	}
	if contribution.StudentID != student.ID {
		return types.ContributionDetail{}, apperr.Validation("you can only edit your own contributions")
	}
	if contribution.Status != types.ContributionPending {
		return types.ContributionDetail{}, apperr.Validation("only pending contributions can be edited")
	}

	year, err := s.years.Get(ctx, contribution.AcademicYearID)
	if err != nil {
		return types.ContributionDetail{}, err
	}
	if time.Now().After(year.FinalClosureDate) {
		return types.ContributionDetail{}, apperr.Validation("edits are closed for this academic year")
	}

	var assets []store.NewAsset
	if assetInputs != nil {
		assets, err = toNewAssets(assetInputs)
		if err != nil {
			return types.ContributionDetail{}, err
		}
	}

	replaced, err := s.contributions.Update(ctx, id, title, description, assets)
	if err != nil {
		return types.ContributionDetail{}, err
	}

	// Orphaned objects are cleaned up best effort.
	for _, key := range replaced {
		if err := s.objects.Delete(ctx, key); err != nil {
			s.logger.Warn("orphaned asset delete failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return s.detail(ctx, id, true)
}

// UpdateStatus moves a pending contribution to selected or rejected and
// notifies the student. The decision email is part of the operation: its
// failure is reported to the caller even though the transition persists.
func (s *ContributionService) UpdateStatus(ctx context.Context, coordinator types.User, id, status string) (types.ContributionDetail, error) {
	if status != types.ContributionSelected && status != types.ContributionRejected {
		return types.ContributionDetail{}, apperr.Validation("status must be selected or rejected")
	}

	contribution, err := s.contributions.Get(ctx, id)
	if err != nil {
		return types.ContributionDetail{}, err
	}
	if coordinator.FacultyID != contribution.FacultyID {
		return types.ContributionDetail{}, apperr.Forbidden("contribution belongs to another faculty")
	}
	if contribution.Status != types.ContributionPending {
		return types.ContributionDetail{}, apperr.Validation("contribution has already been reviewed")
	}

	if err := s.contributions.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ContributionDetail{}, apperr.Validation("contribution has already been reviewed")
		}
		return types.ContributionDetail{}, err
	}

	s.events.ContributionStatusChanged(ctx, contribution, status)

	student, err := s.users.GetByID(ctx, contribution.StudentID)
	if err != nil {
		return types.ContributionDetail{}, err
	}
	email := mailer.StatusUpdateEmail(student.Name, contribution.Title, status, contribution.ID, s.frontendURL)
	email.To = student.Email
	if result := s.mail.Send(ctx, email); !result.Success {
		return types.ContributionDetail{}, fmt.Errorf("status updated but notification failed: %w", result.Err)
	}

	return s.detail(ctx, id, false)
}

// AddComment appends to a contribution's feedback thread and notifies the
// student when the commenter is staff.
func (s *ContributionService) AddComment(ctx context.Context, commenter types.User, id, content string) (types.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return types.Comment{}, apperr.Validation("comment content is required")
	}

	contribution, err := s.contributions.Get(ctx, id)
	if err != nil {
		return types.Comment{}, err
	}

	isOwner := commenter.Role == types.RoleStudent && commenter.ID == contribution.StudentID
	isCoordinator := commenter.Role == types.RoleMarketingCoordinator && commenter.FacultyID == contribution.FacultyID
	if !isOwner && !isCoordinator {
		return types.Comment{}, apperr.Forbidden("you cannot comment on this contribution")
	}

	if isOwner && s.coordinatorOpensThread {
		count, err := s.contributions.CountComments(ctx, id)
		if err != nil {
			return types.Comment{}, err
		}
		if count == 0 {
			return types.Comment{}, apperr.Forbidden("the coordinator must open the feedback thread")
		}
	}

	comment, err := s.contributions.AddComment(ctx, types.Comment{
		ContributionID: id,
		UserID:         commenter.ID,
		Content:        content,
	})
	if err != nil {
		return types.Comment{}, err
	}
	comment.By = commenter.Name

	if isCoordinator {
		if !contribution.FeedbackGiven {
			if err := s.contributions.SetFeedbackGiven(ctx, id); err != nil {
				return types.Comment{}, err
			}
		}

		student, err := s.users.GetByID(ctx, contribution.StudentID)
		if err != nil {
			return types.Comment{}, err
		}
		email := mailer.NewCommentEmail(student.Name, commenter.Name, contribution.Title, id, s.frontendURL)
		email.To = student.Email
		if result := s.mail.Send(ctx, email); !result.Success {
			s.logger.Warn("comment notification failed",
				zap.String("contribution_id", id),
				zap.Error(result.Err),
			)
		}
	}

	return comment, nil
}

// RecordView bumps the view counter and returns the new value.
func (s *ContributionService) RecordView(ctx context.Context, id string) (int, error) {
	return s.contributions.IncrementViewCount(ctx, id)
}

// ListMine pages through the student's own contributions, optionally scoped
// to one academic year.
func (s *ContributionService) ListMine(ctx context.Context, student types.User, academicYearID, cursor string, limit int, order string) (pagination.Page[types.Contribution], error) {
	filter := store.ListFilter{StudentID: student.ID, AcademicYearID: academicYearID}
	return s.list(ctx, filter, cursor, limit, order, pagination.MaxLimit)
}

// ListFaculty pages through a coordinator's faculty contributions, optionally
// filtered by status.
func (s *ContributionService) ListFaculty(ctx context.Context, coordinator types.User, status, cursor string, limit int, order string) (pagination.Page[types.Contribution], error) {
	if err := validateStatusFilter(status); err != nil {
		return pagination.Page[types.Contribution]{}, err
	}
	return s.list(ctx, store.ListFilter{FacultyID: coordinator.FacultyID, Status: status}, cursor, limit, order, pagination.MaxLimit)
}

// ListSelectedForGuest pages through the guest's faculty's selected
// contributions.
func (s *ContributionService) ListSelectedForGuest(ctx context.Context, guest types.User, cursor string, limit int, order string) (pagination.Page[types.Contribution], error) {
	filter := store.ListFilter{FacultyID: guest.FacultyID, Status: types.ContributionSelected}
	return s.list(ctx, filter, cursor, limit, order, pagination.MaxLimit)
}

// ListAll pages through every contribution, optionally filtered by status,
// under the looser manager cap. The handler enforces the role.
func (s *ContributionService) ListAll(ctx context.Context, status, cursor string, limit int, order string) (pagination.Page[types.Contribution], error) {
	if err := validateStatusFilter(status); err != nil {
		return pagination.Page[types.Contribution]{}, err
	}
	return s.list(ctx, store.ListFilter{Status: status}, cursor, limit, order, pagination.MaxAdminLimit)
}

func validateStatusFilter(status string) error {
	switch status {
	case "", types.ContributionPending, types.ContributionSelected, types.ContributionRejected:
		return nil
	}
	return apperr.Validation("unknown status filter")
}

func (s *ContributionService) list(ctx context.Context, filter store.ListFilter, cursor string, limit int, order string, maxLimit int) (pagination.Page[types.Contribution], error) {
	if limit > maxLimit {
		return pagination.Page[types.Contribution]{}, apperr.Validation("limit is too large")
	}
	params := pagination.Normalize(cursor, limit, order)

	items, err := s.contributions.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[types.Contribution]{}, err
	}

	return pagination.BuildPage(items, params.Limit, func(c types.Contribution) string {
		return pagination.CursorTime(c.CreatedAt)
	}), nil
}

// detail assembles the full response shape, presigning asset links.
func (s *ContributionService) detail(ctx context.Context, id string, withComments bool) (types.ContributionDetail, error) {
	detail, err := s.contributions.GetDetail(ctx, id)
	if err != nil {
		return types.ContributionDetail{}, err
	}

	assets, err := s.contributions.ListAssets(ctx, id)
	if err != nil {
		return types.ContributionDetail{}, err
	}
	for i := range assets {
		url, err := s.objects.DownloadURL(ctx, assets[i].FilePath)
		if err != nil {
			s.logger.Warn("asset presign failed",
				zap.String("key", assets[i].FilePath),
				zap.Error(err),
			)
			continue
		}
		assets[i].URL = url
	}
	detail.Assets = assets

	if withComments {
		comments, err := s.contributions.ListComments(ctx, id)
		if err != nil {
			return types.ContributionDetail{}, err
		}
		detail.Comments = comments
	}

	return detail, nil
}
