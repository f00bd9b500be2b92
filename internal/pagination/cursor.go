// Package pagination implements keyset cursors for document listings.
// A cursor names the last row of the previous page by (created_at, id), so
// a page boundary stays stable while new documents are uploaded.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor is a decoded page boundary
type Cursor struct {
	LastID    string
	Timestamp time.Time
}

// ErrInvalidCursor is returned for cursors that do not decode to an
// (id, timestamp) pair
var ErrInvalidCursor = errors.New("invalid cursor format")

// EncodeCursor builds the opaque cursor for a page ending at the given
// document ID and creation time
func EncodeCursor(lastID string, timestamp time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := lastID + "|" + timestamp.UTC().Format(time.RFC3339Nano)
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor back into a page boundary. An empty
// cursor decodes to nil, meaning the first page.
func DecodeCursor(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	lastID, rawTime, ok := strings.Cut(string(decoded), "|")
	if !ok || lastID == "" {
		return nil, ErrInvalidCursor
	}

	timestamp, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{
		LastID:    lastID,
		Timestamp: timestamp,
	}, nil
}
