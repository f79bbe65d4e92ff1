// Package pagination implements keyset paging over descending ids.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

const cursorPrefix = "after:"

var ErrInvalidCursor = errors.New("invalid cursor")

// Params is a page request. Cursor is the opaque value a previous page
// returned; empty means the first page.
type Params struct {
	Limit  int
	Cursor string
}

// Size is the page size with defaults and the upper bound applied.
func (p Params) Size() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	}
	return p.Limit
}

// After returns the id the page must start below. ok is false on the first
// page.
func (p Params) After() (id int64, ok bool, err error) {
	raw := strings.TrimSpace(p.Cursor)
	if raw == "" {
		return 0, false, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return 0, false, ErrInvalidCursor
	}
	num, found := strings.CutPrefix(string(decoded), cursorPrefix)
	if !found {
		return 0, false, ErrInvalidCursor
	}
	id, err = strconv.ParseInt(num, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, ErrInvalidCursor
	}
	return id, true, nil
}

// Cursor encodes the position after id.
func Cursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(id, 10)))
}

// Trim cuts rows fetched with Size()+1 back to size and returns the cursor
// for the next page, or "" when rows was the last page.
func Trim[T any](rows []T, size int, id func(T) int64) ([]T, string) {
	if len(rows) <= size {
		return rows, ""
	}
	rows = rows[:size]
	return rows, Cursor(id(rows[size-1]))
}
