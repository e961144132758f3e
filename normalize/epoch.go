package normalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/opentam/tamclient/tamerrors"
)

// EpochTime is an absolute instant that unmarshals from the intranet's
// embedded-epoch encoding "/Date(<unix-ms>)/" as well as from plain
// millisecond numbers and numeric strings. A malformed wrapper is an error,
// never a silent zero value.
type EpochTime struct {
	time.Time
}

const (
	epochPrefix = "/Date("
	epochSuffix = ")/"
)

// UnmarshalJSON implements json.Unmarshaler.
func (e *EpochTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		e.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := ParseEpoch(s)
		if err != nil {
			return err
		}
		e.Time = t
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return &tamerrors.MalformedDateError{Value: string(data)}
	}
	e.Time = time.UnixMilli(ms)
	return nil
}

// ParseEpoch parses an embedded-epoch string, with or without the
// "/Date(...)/" wrapper, into an absolute instant.
func ParseEpoch(s string) (time.Time, error) {
	inner := strings.TrimSpace(s)
	if strings.HasPrefix(inner, epochPrefix) {
		if !strings.HasSuffix(inner, epochSuffix) {
			return time.Time{}, &tamerrors.MalformedDateError{Value: s}
		}
		inner = inner[len(epochPrefix) : len(inner)-len(epochSuffix)]
	}
	// Some records carry a timezone offset after the payload ("+0200").
	if i := strings.IndexAny(inner, "+-"); i > 0 {
		inner = inner[:i]
	}
	ms, err := strconv.ParseInt(inner, 10, 64)
	if err != nil {
		return time.Time{}, &tamerrors.MalformedDateError{Value: s}
	}
	return time.UnixMilli(ms), nil
}
