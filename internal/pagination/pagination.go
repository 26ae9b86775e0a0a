// Package pagination implements cursor pagination over a single monotonic
// column (creation timestamp).
//
// A cursor is base64("<value>@<epochMillis>"). Only the value before the "@"
// carries meaning; the millisecond suffix just keeps two encodings of the
// same value from being byte-identical. Tokens never expire.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultLimit applies when the caller supplies no limit.
	DefaultLimit = 20
	// MaxLimit caps the student, faculty and guest listings; requests above
	// it are rejected by the service layer.
	MaxLimit = 20
	// MaxAdminLimit is the looser cap for the manager's cross-faculty
	// listing.
	MaxAdminLimit = 100
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Params are the caller-supplied paging knobs after normalisation.
type Params struct {
	Cursor string
	Limit  int
	Order  string
}

// Normalize fills defaults and decodes the cursor token. An undecodable
// token behaves as if no cursor was supplied.
func Normalize(cursor string, limit int, order string) Params {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if order != OrderAsc {
		order = OrderDesc
	}
	return Params{
		Cursor: DecodeToken(cursor),
		Limit:  limit,
		Order:  order,
	}
}

// EncodeToken wraps a cursor value into an opaque token.
func EncodeToken(value string) string {
	if value == "" {
		return ""
	}
	raw := fmt.Sprintf("%s@%d", value, time.Now().UnixMilli())
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeToken extracts the value portion of a token. Invalid tokens decode
// to the empty string rather than an error; the query then runs unfiltered.
func DecodeToken(token string) string {
	if token == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return ""
	}
	value, _, _ := strings.Cut(string(decoded), "@")
	return value
}

// Page is a single page of results plus the token for the next one.
// NextCursor is empty when no further page exists.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor"`
}

// BuildPage trims a limit+1 fetch down to one page. cursorValue extracts the
// ordering-column value from an item; the next cursor encodes the value of
// the last item kept. An empty fetch yields an empty page with no cursor,
// whatever the input cursor was.
func BuildPage[T any](items []T, limit int, cursorValue func(T) string) Page[T] {
	if len(items) == 0 {
		return Page[T]{Items: []T{}}
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	next := ""
	if hasMore {
		next = EncodeToken(cursorValue(items[len(items)-1]))
	}

	return Page[T]{Items: items, NextCursor: next}
}

// CursorTime renders a timestamp the way cursor values are stored, RFC 3339
// with sub-second precision preserved.
func CursorTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
