package types

import (
	"fmt"
	"time"
)

// Faculty groups students, guests and a marketing coordinator.
type Faculty struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AcademicYear defines the submission window for contributions.
//
// A contribution may be created while "now" falls inside [StartDate, EndDate]
// and before NewClosureDate, and edited until FinalClosureDate.
type AcademicYear struct {
	ID string `json:"id" db:"id"`

	// StartDate and EndDate bound the year. The pair is unique.
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`

	// NewClosureDate is the cut-off for new submissions.
	NewClosureDate time.Time `json:"new_closure_date" db:"new_closure_date"`

	// FinalClosureDate is the cut-off for edits to existing submissions.
	FinalClosureDate time.Time `json:"final_closure_date" db:"final_closure_date"`

	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Label renders the year as "2025-2026". When the start and end calendar
// years coincide, one is added to the end year so the label never collapses
// to a single year.
func (y AcademicYear) Label() string {
	return FormatAcademicYear(y.StartDate, y.EndDate)
}

// FormatAcademicYear builds the "startYear-endYear" label for a year span.
func FormatAcademicYear(start, end time.Time) string {
	startYear := start.Year()
	endYear := end.Year()
	if startYear == endYear {
		endYear++
	}
	return fmt.Sprintf("%d-%d", startYear, endYear)
}

// Term is static informational text shown to users (terms & conditions etc).
type Term struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
