package types

import "time"

// FacultyYearCount is one (academic year, faculty) aggregate cell as it
// comes out of the database, before grouping into a report.
type FacultyYearCount struct {
	YearID      string
	YearStart   time.Time
	YearEnd     time.Time
	FacultyID   string
	FacultyName string
	Count       int
}

// YearCount is a per-year aggregate total.
type YearCount struct {
	YearID string
	Count  int
}

// FacultyCount is a per-faculty rollup inside a year group.
type FacultyCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// YearGroup is one academic year's slice of a manager report. Faculties are
// sorted alphabetically; Total is the year-level figure (for the contributors
// report it is a distinct count, not the sum of the faculty rows).
type YearGroup struct {
	ID        string         `json:"id"`
	Year      string         `json:"year"`
	StartDate time.Time      `json:"-"`
	Faculties []FacultyCount `json:"faculties"`
	Total     int            `json:"total"`
}

// ContributionsReport counts selected contributions by faculty per year.
type ContributionsReport struct {
	AcademicYears      []YearGroup `json:"academic_years"`
	TotalContributions int         `json:"total_contributions"`
}

// ContributorsReport counts distinct contributing students by faculty per
// year. Year and grand totals are distinct counts across faculties.
type ContributorsReport struct {
	AcademicYears           []YearGroup `json:"academic_years"`
	TotalUniqueContributors int         `json:"total_unique_contributors"`
}

// FacultyStats is the coordinator's contributors-and-contributions rollup.
type FacultyStats struct {
	FacultyName        string `json:"faculty_name"`
	TotalContributions int    `json:"total_contributions"`
	UniqueContributors int    `json:"unique_contributors"`
}

// YearlyStat is one row of the coordinator's per-year trend report.
type YearlyStat struct {
	AcademicYear  string `json:"academic_year"`
	Contributions int    `json:"contributions"`
	Contributors  int    `json:"contributors"`
}

// UncommentedContribution is a pending contribution with no comments yet,
// flagged when it has waited more than 14 days for feedback.
type UncommentedContribution struct {
	Contribution
	StudentName  string    `json:"student_name"`
	FacultyName  string    `json:"faculty_name"`
	AcademicYear string    `json:"academic_year"`
	DueDate      time.Time `json:"due_date"`
	Overdue      bool      `json:"overdue"`
}

// UncommentedReport wraps the uncommented listing with its totals.
type UncommentedReport struct {
	Items        []UncommentedContribution `json:"items"`
	Total        int                       `json:"total"`
	TotalOverdue int                       `json:"total_overdue"`
}
