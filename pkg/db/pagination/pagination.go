package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 250
)

var ErrInvalidCursor = errors.New("invalid_cursor")

// Pagination binds the page_token and page_size query parameters.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=10"`
}

// Valid reports whether PageSize is within 1..MaxPageSize.
func (p Pagination) Valid() bool {
	return p.PageSize >= 1 && p.PageSize <= MaxPageSize
}

// Cursor is the keyset position carried by a page token: the row id plus the
// value of the column the listing is ordered by.
type Cursor struct {
	ID      string `json:"id"`
	SortKey string `json:"k,omitempty"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token"`
	HasMore       bool   `json:"has_more"`
}

// PageSize clamps a requested size, substituting def for non-positive values.
func PageSize(requested, def, max int32) int32 {
	if requested <= 0 {
		requested = def
	}
	if max > 0 && requested > max {
		requested = max
	}
	return requested
}

// EncodeCursor renders the cursor as a URL-safe token.
func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Join(ErrInvalidCursor, err)
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, errors.Join(ErrInvalidCursor, err)
	}
	if cursor.ID == "" {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}

// BuildCursorPage trims rows fetched with limit+1 down to limit and derives
// the page info. NextPageToken is only set when another page exists.
func BuildCursorPage[T any](rows []*T, limit int32, extract func(*T) Cursor) ([]*T, PageInfo, error) {
	if limit <= 0 || len(rows) <= int(limit) {
		return rows, PageInfo{}, nil
	}

	rows = rows[:limit]
	token, err := EncodeCursor(extract(rows[len(rows)-1]))
	if err != nil {
		return nil, PageInfo{}, err
	}
	return rows, PageInfo{NextPageToken: token, HasMore: true}, nil
}
