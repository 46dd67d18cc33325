// Package paginate implements composite-key cursor pagination. Rows are
// ordered by a sort key in the requested direction with ties broken by
// ascending id; a cursor carries the (sort key, id) pair of the last row
// served and the next page starts strictly after it.
package paginate

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	appErr "github.com/MeganHarrison/alleato-core/internal/pkg/errors"
)

// CursorVersion is bumped when the encoded layout changes.
const CursorVersion = 1

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Desc, nil
	case Asc, Desc:
		return d, nil
	default:
		return "", appErr.Invalidf("unknown sort direction %q", s)
	}
}

// KeyKind selects which field of a Key carries the sort value.
type KeyKind string

const (
	KindNumber KeyKind = "num"
	KindTime   KeyKind = "time"
	KindText   KeyKind = "text"
)

// Key is a composite (sort value, id) position.
type Key struct {
	Kind KeyKind `json:"k"`
	Num  float64 `json:"n,omitempty"`
	Time int64   `json:"t,omitempty"`
	Text string  `json:"s,omitempty"`
	ID   string  `json:"id"`
}

func NumberKey(v float64, id string) Key {
	return Key{Kind: KindNumber, Num: v, ID: id}
}

// TimeKey keeps microsecond precision, matching postgres timestamps.
func TimeKey(v time.Time, id string) Key {
	return Key{Kind: KindTime, Time: v.UnixMicro(), ID: id}
}

func TextKey(v string, id string) Key {
	return Key{Kind: KindText, Text: v, ID: id}
}

// TimeValue returns the time carried by a KindTime key.
func (k Key) TimeValue() time.Time {
	return time.UnixMicro(k.Time).UTC()
}

// Cursor is the opaque continuation token handed to clients. SortBy and Dir
// pin the ordering the cursor was issued for.
type Cursor struct {
	Version int       `json:"v"`
	SortBy  string    `json:"sb"`
	Dir     Direction `json:"d"`
	Key     Key       `json:"key"`
}

func NewCursor(sortBy string, dir Direction, key Key) *Cursor {
	return &Cursor{Version: CursorVersion, SortBy: sortBy, Dir: dir, Key: key}
}

// Encode serializes the cursor to URL-safe base64 JSON.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses a cursor. An empty string yields a nil cursor (first page).
func Decode(s string) (*Cursor, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, appErr.Invalidf("malformed cursor")
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, appErr.Invalidf("malformed cursor")
	}
	if c.Version != CursorVersion {
		return nil, appErr.Invalidf("unsupported cursor version %d", c.Version)
	}
	switch c.Key.Kind {
	case KindNumber, KindTime, KindText:
	default:
		return nil, appErr.Invalidf("malformed cursor")
	}
	return &c, nil
}

// Check verifies that the cursor was issued for the given ordering.
func (c *Cursor) Check(sortBy string, dir Direction) error {
	if c == nil {
		return nil
	}
	if c.SortBy != sortBy || c.Dir != dir {
		return appErr.Invalidf("cursor was issued for a different ordering")
	}
	return nil
}
