package pagination

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	value := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC).Format(time.RFC3339Nano)

	token := EncodeToken(value)
	require.NotEmpty(t, token)
	assert.NotEqual(t, value, token)
	assert.Equal(t, value, DecodeToken(token))
}

func TestEncodeTokenEmptyValue(t *testing.T) {
	assert.Equal(t, "", EncodeToken(""))
}

func TestDecodeTokenInvalid(t *testing.T) {
	// garbage decodes to "no cursor", not an error
	assert.Equal(t, "", DecodeToken("%%%not-base64%%%"))
	assert.Equal(t, "", DecodeToken(""))
}

func TestTokensDifferAcrossEncodings(t *testing.T) {
	value := "2025-01-01T00:00:00Z"
	first := EncodeToken(value)
	time.Sleep(2 * time.Millisecond)
	second := EncodeToken(value)

	assert.NotEqual(t, first, second)
	assert.Equal(t, DecodeToken(first), DecodeToken(second))
}

func TestNormalizeDefaults(t *testing.T) {
	p := Normalize("", 0, "")
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, OrderDesc, p.Order)
	assert.Equal(t, "", p.Cursor)

	p = Normalize("", 5, "asc")
	assert.Equal(t, 5, p.Limit)
	assert.Equal(t, OrderAsc, p.Order)
}

func TestBuildPageEmpty(t *testing.T) {
	page := BuildPage(nil, 20, func(s string) string { return s })
	assert.Empty(t, page.Items)
	assert.Equal(t, "", page.NextCursor)
	assert.NotNil(t, page.Items)
}

func TestBuildPageLastPage(t *testing.T) {
	items := []string{"a", "b", "c"}
	page := BuildPage(items, 3, func(s string) string { return s })
	assert.Equal(t, items, page.Items)
	assert.Equal(t, "", page.NextCursor)
}

func TestBuildPageHasMore(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	page := BuildPage(items, 3, func(s string) string { return s })
	require.Len(t, page.Items, 3)
	assert.Equal(t, "c", DecodeToken(page.NextCursor))
}

// Walking pages with limit=k visits each item exactly once and terminates.
func TestWalkVisitsEachItemOnce(t *testing.T) {
	const total, limit = 23, 5

	all := make([]string, total)
	for i := range all {
		all[i] = fmt.Sprintf("item-%03d", i)
	}

	// simulates the store: fetch limit+1 rows after the cursor, ascending
	fetch := func(cursor string) []string {
		var out []string
		for _, item := range all {
			if cursor != "" && item <= cursor {
				continue
			}
			out = append(out, item)
			if len(out) == limit+1 {
				break
			}
		}
		return out
	}

	var visited []string
	cursor := ""
	for pages := 0; ; pages++ {
		require.Less(t, pages, total, "pagination did not terminate")

		page := BuildPage(fetch(DecodeToken(cursor)), limit, func(s string) string { return s })
		visited = append(visited, page.Items...)
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, all, visited)
}
