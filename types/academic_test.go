package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAcademicYear(t *testing.T) {
	date := func(year, month int) time.Time {
		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, "2025-2026", FormatAcademicYear(date(2025, 9), date(2026, 6)))
	assert.Equal(t, "2024-2027", FormatAcademicYear(date(2024, 1), date(2027, 1)))

	// a span within one calendar year never collapses to a single year
	assert.Equal(t, "2025-2026", FormatAcademicYear(date(2025, 1), date(2025, 12)))
}

func TestAcademicYearLabel(t *testing.T) {
	year := AcademicYear{
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2025-2026", year.Label())
}
