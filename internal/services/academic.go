package services

import (
	"context"
	"strings"
	"time"

	"github.com/uni-magazine/apiserver/internal/apperr"
	"github.com/uni-magazine/apiserver/internal/store"
	"github.com/uni-magazine/apiserver/types"
)

// FacultyRepository defines persistence operations for faculties.
type FacultyRepository interface {
	Get(ctx context.Context, id string) (types.Faculty, error)
	List(ctx context.Context) ([]types.Faculty, error)
	Create(ctx context.Context, faculty types.Faculty) (types.Faculty, error)
	Update(ctx context.Context, id, name, status string) error
	Delete(ctx context.Context, id string) error
	CountContributions(ctx context.Context, id string) (int, error)
}

// AcademicYearRepository defines persistence operations for academic years.
type AcademicYearRepository interface {
	Get(ctx context.Context, id string) (types.AcademicYear, error)
	FindContaining(ctx context.Context, at time.Time) (types.AcademicYear, error)
	List(ctx context.Context) ([]types.AcademicYear, error)
	Create(ctx context.Context, year types.AcademicYear) (types.AcademicYear, error)
	Update(ctx context.Context, year types.AcademicYear) error
	Delete(ctx context.Context, id string) error
	CountContributions(ctx context.Context, id string) (int, error)
}

// TermRepository defines persistence operations for terms & conditions.
type TermRepository interface {
	Get(ctx context.Context, id string) (types.Term, error)
	List(ctx context.Context) ([]types.Term, error)
	Create(ctx context.Context, term types.Term) (types.Term, error)
	Update(ctx context.Context, id, name, content string) error
	Delete(ctx context.Context, id string) error
}

// AcademicService encapsulates faculty, academic-year and terms use-cases:
// public lookups plus the admin mutations.
type AcademicService struct {
	faculties FacultyRepository
	years     AcademicYearRepository
	terms     TermRepository
	users     UserRepository
}

func NewAcademicService(faculties FacultyRepository, years AcademicYearRepository, terms TermRepository, users UserRepository) *AcademicService {
	return &AcademicService{
		faculties: faculties,
		years:     years,
		terms:     terms,
		users:     users,
	}
}

// ListFaculties returns all faculties, alphabetically.
func (s *AcademicService) ListFaculties(ctx context.Context) ([]types.Faculty, error) {
	return s.faculties.List(ctx)
}

func (s *AcademicService) GetFaculty(ctx context.Context, id string) (types.Faculty, error) {
	return s.faculties.Get(ctx, id)
}

// CreateFaculty adds a faculty. Names are unique.
func (s *AcademicService) CreateFaculty(ctx context.Context, name string) (types.Faculty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Faculty{}, apperr.Validation("faculty name is required")
	}

	faculty, err := s.faculties.Create(ctx, types.Faculty{Name: name, Status: "active"})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return types.Faculty{}, apperr.Validation("faculty name already exists")
		}
		return types.Faculty{}, err
	}
	return faculty, nil
}

// UpdateFaculty renames a faculty or flips its status. Deactivation is
// blocked while the faculty still has users.
func (s *AcademicService) UpdateFaculty(ctx context.Context, id, name, status string) (types.Faculty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Faculty{}, apperr.Validation("faculty name is required")
	}
	if status != "active" && status != "inactive" {
		return types.Faculty{}, apperr.Validation("status must be active or inactive")
	}

	if status == "inactive" {
		users, err := s.users.CountByFaculty(ctx, id)
		if err != nil {
			return types.Faculty{}, err
		}
		if users > 0 {
			return types.Faculty{}, apperr.Validation("faculty still has users")
		}
	}

	if err := s.faculties.Update(ctx, id, name, status); err != nil {
		if store.IsUniqueViolation(err) {
			return types.Faculty{}, apperr.Validation("faculty name already exists")
		}
		return types.Faculty{}, err
	}
	return s.faculties.Get(ctx, id)
}

// DeleteFaculty removes a faculty that has no users and no contributions.
func (s *AcademicService) DeleteFaculty(ctx context.Context, id string) error {
	users, err := s.users.CountByFaculty(ctx, id)
	if err != nil {
		return err
	}
	if users > 0 {
		return apperr.Validation("faculty still has users")
	}

	contributions, err := s.faculties.CountContributions(ctx, id)
	if err != nil {
		return err
	}
	if contributions > 0 {
		return apperr.Validation("faculty still has contributions")
	}

	return s.faculties.Delete(ctx, id)
}

// ListAcademicYears returns all years, most recent first.
func (s *AcademicService) ListAcademicYears(ctx context.Context) ([]types.AcademicYear, error) {
	return s.years.List(ctx)
}

func (s *AcademicService) GetAcademicYear(ctx context.Context, id string) (types.AcademicYear, error) {
	return s.years.Get(ctx, id)
}

// AcademicYearParams is the admin create/update input for a year.
type AcademicYearParams struct {
	StartDate        time.Time
	EndDate          time.Time
	NewClosureDate   time.Time
	FinalClosureDate time.Time
}

func (p AcademicYearParams) validate() error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() || p.NewClosureDate.IsZero() || p.FinalClosureDate.IsZero() {
		return apperr.Validation("all four dates are required")
	}
	if !p.StartDate.Before(p.EndDate) {
		return apperr.Validation("start date must precede end date")
	}
	if p.NewClosureDate.After(p.FinalClosureDate) {
		return apperr.Validation("new closure date must not be after final closure date")
	}
	return nil
}

// CreateAcademicYear adds a year. The (start, end) pair is unique.
func (s *AcademicService) CreateAcademicYear(ctx context.Context, params AcademicYearParams) (types.AcademicYear, error) {
	if err := params.validate(); err != nil {
		return types.AcademicYear{}, err
	}

	year, err := s.years.Create(ctx, types.AcademicYear{
		StartDate:        params.StartDate,
		EndDate:          params.EndDate,
		NewClosureDate:   params.NewClosureDate,
		FinalClosureDate: params.FinalClosureDate,
		Status:           "active",
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return types.AcademicYear{}, apperr.Validation("an academic year with these dates already exists")
		}
		return types.AcademicYear{}, err
	}
	return year, nil
}

// UpdateAcademicYear replaces a year's dates.
func (s *AcademicService) UpdateAcademicYear(ctx context.Context, id string, params AcademicYearParams) (types.AcademicYear, error) {
	if err := params.validate(); err != nil {
		return types.AcademicYear{}, err
	}

	err := s.years.Update(ctx, types.AcademicYear{
		ID:               id,
		StartDate:        params.StartDate,
		EndDate:          params.EndDate,
		NewClosureDate:   params.NewClosureDate,
		FinalClosureDate: params.FinalClosureDate,
		Status:           "active",
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return types.AcademicYear{}, apperr.Validation("an academic year with these dates already exists")
		}
		return types.AcademicYear{}, err
	}
	return s.years.Get(ctx, id)
}

// DeleteAcademicYear removes a year that has no contributions.
func (s *AcademicService) DeleteAcademicYear(ctx context.Context, id string) error {
	contributions, err := s.years.CountContributions(ctx, id)
	if err != nil {
		return err
	}
	if contributions > 0 {
		return apperr.Validation("academic year still has contributions")
	}
	return s.years.Delete(ctx, id)
}

// ListTerms returns all terms & conditions entries.
func (s *AcademicService) ListTerms(ctx context.Context) ([]types.Term, error) {
	return s.terms.List(ctx)
}

func (s *AcademicService) GetTerm(ctx context.Context, id string) (types.Term, error) {
	return s.terms.Get(ctx, id)
}

func (s *AcademicService) CreateTerm(ctx context.Context, name, content string) (types.Term, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(content) == "" {
		return types.Term{}, apperr.Validation("name and content are required")
	}
	return s.terms.Create(ctx, types.Term{Name: name, Content: content})
}

func (s *AcademicService) UpdateTerm(ctx context.Context, id, name, content string) (types.Term, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(content) == "" {
		return types.Term{}, apperr.Validation("name and content are required")
	}
	if err := s.terms.Update(ctx, id, name, content); err != nil {
		return types.Term{}, err
	}
	return s.terms.Get(ctx, id)
}

func (s *AcademicService) DeleteTerm(ctx context.Context, id string) error {
	return s.terms.Delete(ctx, id)
}
