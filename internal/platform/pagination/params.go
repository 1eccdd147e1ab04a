package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrInvalidCursor is returned when a page token cannot be decoded.
var ErrInvalidCursor = errors.New("pagination: invalid page token")

// Params captures the page size and optional cursor decoded from a request.
type Params struct {
	PageSize int
	Cursor   *Cursor
}

// Cursor marks the position after the last document of the previous page.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// Options tune how query parameters are decoded.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Decode parses pageSize and pageToken query parameters into Params.
func Decode(query url.Values, opts Options) (Params, error) {
	defaultSize := opts.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = defaultPageSize
	}
	maxSize := opts.MaxPageSize
	if maxSize <= 0 {
		maxSize = maxPageSize
	}

	params := Params{PageSize: defaultSize}

	if raw := strings.TrimSpace(query.Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return Params{}, fmt.Errorf("pagination: invalid pageSize %q", raw)
		}
		if size > maxSize {
			size = maxSize
		}
		params.PageSize = size
	}

	if raw := strings.TrimSpace(query.Get("pageToken")); raw != "" {
		cursor, err := DecodeToken(raw)
		if err != nil {
			return Params{}, err
		}
		params.Cursor = cursor
	}

	return params, nil
}

// EncodeToken serialises the cursor into an opaque page token.
func EncodeToken(cursor Cursor) string {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(payload)
}

// DecodeToken parses an opaque page token back into a cursor.
func DecodeToken(token string) (*Cursor, error) {
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(payload, &cursor); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if cursor.ID == "" || cursor.CreatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}
	return &cursor, nil
}
