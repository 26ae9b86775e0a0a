package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/internal/mailer"
	"github.com/uni-magazine/apiserver/internal/pagination"
	"github.com/uni-magazine/apiserver/internal/store"
	"github.com/uni-magazine/apiserver/types"
)

// fakeContributionRepo implements ContributionRepository with overridable
// behaviour per test.
type fakeContributionRepo struct {
	contribution types.Contribution
	getErr       error

	created       *types.Contribution
	createdAssets []store.NewAsset
	statusSet     string
	feedbackSet   bool
	comment       *types.Comment
	commentCount  int
	comments      []types.Comment
	listed        []types.Contribution
}

func (f *fakeContributionRepo) Create(_ context.Context, c types.Contribution, assets []store.NewAsset) (types.Contribution, error) {
	c.ID = "contrib-1"
	c.SubmissionDate = time.Now()
	f.created = &c
	f.createdAssets = assets
	f.contribution = c
	return c, nil
}

func (f *fakeContributionRepo) Get(context.Context, string) (types.Contribution, error) {
	return f.contribution, f.getErr
}

func (f *fakeContributionRepo) GetDetail(context.Context, string) (types.ContributionDetail, error) {
	return types.ContributionDetail{Contribution: f.contribution, StudentName: "Ana"}, f.getErr
}

func (f *fakeContributionRepo) Update(_ context.Context, _, title, description string, _ []store.NewAsset) ([]string, error) {
	f.contribution.Title = title
	f.contribution.Description = description
	return []string{"uploads/old.docx"}, nil
}

func (f *fakeContributionRepo) UpdateStatus(_ context.Context, _, status string) error {
	f.statusSet = status
	return nil
}

func (f *fakeContributionRepo) IncrementViewCount(context.Context, string) (int, error) {
	return 1, nil
}

func (f *fakeContributionRepo) List(context.Context, store.ListFilter, pagination.Params) ([]types.Contribution, error) {
	return f.listed, nil
}

func (f *fakeContributionRepo) ListAssets(context.Context, string) ([]types.ContributionAsset, error) {
	return []types.ContributionAsset{{ID: "asset-1", FilePath: "uploads/a.docx"}}, nil
}

func (f *fakeContributionRepo) ListAssetsForContributions(context.Context, []string) ([]types.ContributionAsset, error) {
	return nil, nil
}

func (f *fakeContributionRepo) ListComments(context.Context, string) ([]types.Comment, error) {
	return f.comments, nil
}

func (f *fakeContributionRepo) CountComments(context.Context, string) (int, error) {
	return f.commentCount, nil
}

func (f *fakeContributionRepo) AddComment(_ context.Context, comment types.Comment) (types.Comment, error) {
	comment.ID = "comment-1"
	f.comment = &comment
	return comment, nil
}

func (f *fakeContributionRepo) SetFeedbackGiven(context.Context, string) error {
	f.feedbackSet = true
	return nil
}

func (f *fakeContributionRepo) ListSelectedByYear(context.Context, string) ([]types.ContributionDetail, error) {
	return nil, nil
}

type fakeUserRepo struct {
	coordinator    types.User
	coordinatorErr error
	student        types.User
}

func (f *fakeUserRepo) GetByID(context.Context, string) (types.User, error) {
	return f.student, nil
}
func (f *fakeUserRepo) GetByEmail(context.Context, string) (types.User, error) {
	return types.User{}, store.ErrNotFound
}
func (f *fakeUserRepo) Create(_ context.Context, u types.User) (types.User, error) { return u, nil }
func (f *fakeUserRepo) Update(context.Context, string, string, string, string, string) error {
	return nil
}
func (f *fakeUserRepo) UpdatePassword(context.Context, string, string) error { return nil }
func (f *fakeUserRepo) RecordLogin(context.Context, string, string, time.Time) error {
	return nil
}
func (f *fakeUserRepo) List(context.Context) ([]types.User, error) { return nil, nil }
func (f *fakeUserRepo) ListByFacultyAndRole(context.Context, string, string) ([]types.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) FindCoordinatorByFaculty(context.Context, string) (types.User, error) {
	return f.coordinator, f.coordinatorErr
}
func (f *fakeUserRepo) MostActive(context.Context, int) ([]types.User, error) { return nil, nil }
func (f *fakeUserRepo) BrowserUsage(context.Context) ([]types.BrowserUsage, error) {
	return nil, nil
}
func (f *fakeUserRepo) CountByFaculty(context.Context, string) (int, error) { return 0, nil }

type fakeYearRepo struct {
	year types.AcademicYear
	err  error
}

func (f *fakeYearRepo) Get(context.Context, string) (types.AcademicYear, error) {
	return f.year, f.err
}
func (f *fakeYearRepo) FindContaining(context.Context, time.Time) (types.AcademicYear, error) {
	return f.year, f.err
}
func (f *fakeYearRepo) List(context.Context) ([]types.AcademicYear, error) { return nil, nil }
func (f *fakeYearRepo) Create(_ context.Context, y types.AcademicYear) (types.AcademicYear, error) {
	return y, nil
}
func (f *fakeYearRepo) Update(context.Context, types.AcademicYear) error      { return nil }
func (f *fakeYearRepo) Delete(context.Context, string) error                  { return nil }
func (f *fakeYearRepo) CountContributions(context.Context, string) (int, error) { return 0, nil }

type fakeObjects struct {
	deleted []string
}

func (f *fakeObjects) Get(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("data")), nil
}
func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}
func (f *fakeObjects) DownloadURL(_ context.Context, key string) (string, error) {
	return "https://signed.example/" + key, nil
}
func (f *fakeObjects) UploadURL(_ context.Context, key string) (string, error) {
	return "https://signed.example/put/" + key, nil
}

type fakeMailer struct {
	sent   []mailer.Email
	result mailer.Result
}

func (f *fakeMailer) Send(_ context.Context, email mailer.Email) mailer.Result {
	f.sent = append(f.sent, email)
	return f.result
}

type contributionFixture struct {
	service *ContributionService
	repo    *fakeContributionRepo
	users   *fakeUserRepo
	years   *fakeYearRepo
	objects *fakeObjects
	mail    *fakeMailer
}

func newContributionFixture(coordinatorOpensThread bool) *contributionFixture {
	now := time.Now()
	f := &contributionFixture{
		repo: &fakeContributionRepo{},
		users: &fakeUserRepo{
			coordinator: types.User{ID: "coord-1", Name: "Coord", Email: "coord@example.edu", Role: types.RoleMarketingCoordinator, FacultyID: "fac-1"},
			student:     types.User{ID: "student-1", Name: "Ana", Email: "ana@example.edu", Role: types.RoleStudent, FacultyID: "fac-1"},
		},
		years: &fakeYearRepo{year: types.AcademicYear{
			ID:               "year-1",
			StartDate:        now.Add(-30 * 24 * time.Hour),
			EndDate:          now.Add(300 * 24 * time.Hour),
			NewClosureDate:   now.Add(60 * 24 * time.Hour),
			FinalClosureDate: now.Add(120 * 24 * time.Hour),
		}},
		objects: &fakeObjects{},
		mail:    &fakeMailer{result: mailer.Result{Success: true}},
	}
	f.service = NewContributionService(ContributionServiceParams{
		Contributions:          f.repo,
		Users:                  f.users,
		Years:                  f.years,
		Objects:                f.objects,
		Mail:                   f.mail,
		Events:                 NewEvents(nil, zap.NewNop()),
		Logger:                 zap.NewNop(),
		FrontendURL:            "http://frontend.example",
		CoordinatorOpensThread: coordinatorOpensThread,
	})
	return f
}

func student() types.User {
	return types.User{ID: "student-1", Name: "Ana", Email: "ana@example.edu", Role: types.RoleStudent, FacultyID: "fac-1"}
}

func coordinator() types.User {
	return types.User{ID: "coord-1", Name: "Coord", Email: "coord@example.edu", Role: types.RoleMarketingCoordinator, FacultyID: "fac-1"}
}

func articleOnly() []AssetInput {
	return []AssetInput{{Type: types.AssetArticle, FilePath: "uploads/a.docx"}}
}

func TestCreateSubmitsPendingAndNotifiesCoordinator(t *testing.T) {
	f := newContributionFixture(false)

	detail, err := f.service.Create(context.Background(), student(), "Title", "Desc", articleOnly())
	require.NoError(t, err)

	require.NotNil(t, f.repo.created)
	assert.Equal(t, types.ContributionPending, f.repo.created.Status)
	assert.Equal(t, "year-1", f.repo.created.AcademicYearID)
	assert.Equal(t, "fac-1", f.repo.created.FacultyID)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "coord@example.edu", f.mail.sent[0].To)

	require.Len(t, detail.Assets, 1)
	assert.Contains(t, detail.Assets[0].URL, "https://signed.example/")
}

func TestCreateRequiresExactlyOneArticle(t *testing.T) {
	f := newContributionFixture(false)

	_, err := f.service.Create(context.Background(), student(), "Title", "", []AssetInput{
		{Type: types.AssetImage, FilePath: "uploads/b.png"},
	})
	assert.True(t, apperr.IsValidation(err))

	_, err = f.service.Create(context.Background(), student(), "Title", "", []AssetInput{
		{Type: types.AssetArticle, FilePath: "uploads/a.docx"},
		{Type: types.AssetArticle, FilePath: "uploads/b.docx"},
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateRejectedOutsideAcademicYear(t *testing.T) {
	f := newContributionFixture(false)
	f.years.err = store.ErrNotFound

	_, err := f.service.Create(context.Background(), student(), "Title", "", articleOnly())
	assert.True(t, apperr.IsValidation(err))
	assert.Nil(t, f.repo.created)
}

func TestCreateRejectedAfterNewClosureDate(t *testing.T) {
	f := newContributionFixture(false)
	f.years.year.NewClosureDate = time.Now().Add(-24 * time.Hour)

	_, err := f.service.Create(context.Background(), student(), "Title", "", articleOnly())
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateRequiresCoordinator(t *testing.T) {
	f := newContributionFixture(false)
	f.users.coordinatorErr = store.ErrNotFound

	_, err := f.service.Create(context.Background(), student(), "Title", "", articleOnly())
	assert.True(t, apperr.IsValidation(err))
	assert.Nil(t, f.repo.created)
}

func TestCreateSurvivesNotificationFailure(t *testing.T) {
	f := newContributionFixture(false)
	f.mail.result = mailer.Result{Err: assert.AnError}

	_, err := f.service.Create(context.Background(), student(), "Title", "", articleOnly())
	require.NoError(t, err)
	require.NotNil(t, f.repo.created)
}

func TestUpdateStatusNotifiesStudent(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{
		ID: "contrib-1", StudentID: "student-1", FacultyID: "fac-1", Status: types.ContributionPending,
	}

	_, err := f.service.UpdateStatus(context.Background(), coordinator(), "contrib-1", types.ContributionSelected)
	require.NoError(t, err)
	assert.Equal(t, types.ContributionSelected, f.repo.statusSet)

	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "ana@example.edu", f.mail.sent[0].To)
}

func TestUpdateStatusFailsWhenNotificationFails(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{
		ID: "contrib-1", StudentID: "student-1", FacultyID: "fac-1", Status: types.ContributionPending,
	}
	f.mail.result = mailer.Result{Err: assert.AnError}

	_, err := f.service.UpdateStatus(context.Background(), coordinator(), "contrib-1", types.ContributionRejected)
	assert.Error(t, err)
	// the transition itself persisted before the notification was attempted
	assert.Equal(t, types.ContributionRejected, f.repo.statusSet)
}

func TestUpdateStatusRejectsOtherFaculty(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", FacultyID: "fac-other", Status: types.ContributionPending}

	_, err := f.service.UpdateStatus(context.Background(), coordinator(), "contrib-1", types.ContributionSelected)
	assert.True(t, apperr.IsForbidden(err))
	assert.Empty(t, f.repo.statusSet)
}

func TestUpdateStatusRejectsReviewedContribution(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", FacultyID: "fac-1", Status: types.ContributionSelected}

	_, err := f.service.UpdateStatus(context.Background(), coordinator(), "contrib-1", types.ContributionRejected)
	assert.True(t, apperr.IsValidation(err))
}

func TestAddCommentByCoordinatorMarksFeedbackAndNotifies(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "student-1", FacultyID: "fac-1", Status: types.ContributionPending}

	comment, err := f.service.AddComment(context.Background(), coordinator(), "contrib-1", "Nice work")
	require.NoError(t, err)
	assert.Equal(t, "Coord", comment.By)
	assert.True(t, f.repo.feedbackSet)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, "ana@example.edu", f.mail.sent[0].To)
}

func TestAddCommentByOwnerDoesNotNotify(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "student-1", FacultyID: "fac-1"}
	f.repo.commentCount = 1

	_, err := f.service.AddComment(context.Background(), student(), "contrib-1", "Thanks!")
	require.NoError(t, err)
	assert.Empty(t, f.mail.sent)
	assert.False(t, f.repo.feedbackSet)
}

func TestAddCommentPolicyBlocksStudentOpeningThread(t *testing.T) {
	f := newContributionFixture(true)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "student-1", FacultyID: "fac-1"}
	f.repo.commentCount = 0

	_, err := f.service.AddComment(context.Background(), student(), "contrib-1", "First!")
	assert.True(t, apperr.IsForbidden(err))
}

func TestAddCommentRejectsStrangers(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "someone-else", FacultyID: "fac-1"}

	_, err := f.service.AddComment(context.Background(), student(), "contrib-1", "Hello")
	assert.True(t, apperr.IsForbidden(err))
}

func TestGetAllowsOtherStudentsOnceSelected(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "someone-else", FacultyID: "fac-1", Status: types.ContributionPending}

	_, err := f.service.Get(context.Background(), student(), "contrib-1")
	assert.True(t, apperr.IsForbidden(err))

	f.repo.contribution.Status = types.ContributionSelected
	detail, err := f.service.Get(context.Background(), student(), "contrib-1")
	require.NoError(t, err)
	require.NotNil(t, detail)
}

func TestGetAllowsCoordinatorFromAnotherFaculty(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "student-1", FacultyID: "fac-other", Status: types.ContributionPending}

	_, err := f.service.Get(context.Background(), coordinator(), "contrib-1")
	assert.NoError(t, err)
}

func TestGetRevealsCommentsOnlyToCoordinatorOrAuthor(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "student-1", FacultyID: "fac-1", Status: types.ContributionSelected}
	f.repo.comments = []types.Comment{{ID: "comment-1", Content: "Looks good"}}

	detail, err := f.service.Get(context.Background(), student(), "contrib-1")
	require.NoError(t, err)
	assert.Len(t, detail.Comments, 1)

	detail, err = f.service.Get(context.Background(), coordinator(), "contrib-1")
	require.NoError(t, err)
	assert.Len(t, detail.Comments, 1)

	manager := types.User{ID: "mgr-1", Role: types.RoleMarketingManager}
	detail, err = f.service.Get(context.Background(), manager, "contrib-1")
	require.NoError(t, err)
	assert.Empty(t, detail.Comments)

	other := types.User{ID: "student-2", Role: types.RoleStudent, FacultyID: "fac-1"}
	detail, err = f.service.Get(context.Background(), other, "contrib-1")
	require.NoError(t, err)
	assert.Empty(t, detail.Comments)
}

func TestGetEnforcesGuestVisibility(t *testing.T) {
	f := newContributionFixture(false)
	guest := types.User{ID: "guest-1", Role: types.RoleGuest, FacultyID: "fac-1"}

	f.repo.contribution = types.Contribution{ID: "contrib-1", FacultyID: "fac-1", Status: types.ContributionPending}
	_, err := f.service.Get(context.Background(), guest, "contrib-1")
	assert.True(t, apperr.IsForbidden(err))

	f.repo.contribution.Status = types.ContributionSelected
	_, err = f.service.Get(context.Background(), guest, "contrib-1")
	assert.NoError(t, err)
}

func TestUpdateReplacesAssetsAndCleansUpObjects(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "student-1", FacultyID: "fac-1", Status: types.ContributionPending, AcademicYearID: "year-1"}

	_, err := f.service.Update(context.Background(), student(), "contrib-1", "New title", "", articleOnly())
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/old.docx"}, f.objects.deleted)
}

func TestUpdateRejectedAfterFinalClosure(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "student-1", Status: types.ContributionPending, AcademicYearID: "year-1"}
	f.years.year.FinalClosureDate = time.Now().Add(-time.Hour)

	_, err := f.service.Update(context.Background(), student(), "contrib-1", "New title", "", nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestGetMissingContributionReturnsNil(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.getErr = store.ErrNotFound

	detail, err := f.service.Get(context.Background(), student(), "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, detail)
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	f := newContributionFixture(false)
	f.repo.contribution = types.Contribution{ID: "contrib-1", StudentID: "someone-else", Status: types.ContributionPending, AcademicYearID: "year-1"}

	_, err := f.service.Update(context.Background(), student(), "contrib-1", "New title", "", nil)
	assert.True(t, apperr.IsValidation(err))
}

func TestListCapsLimit(t *testing.T) {
	f := newContributionFixture(false)

	_, err := f.service.ListMine(context.Background(), student(), "", "", pagination.MaxLimit+1, "")
	assert.True(t, apperr.IsValidation(err))

	// the manager listing runs under the looser cap
	_, err = f.service.ListAll(context.Background(), "", "", pagination.MaxLimit+1, "")
	assert.NoError(t, err)
	_, err = f.service.ListAll(context.Background(), "", "", pagination.MaxAdminLimit+1, "")
	assert.True(t, apperr.IsValidation(err))
}
