// Package normalize converts raw intranet payloads into the canonical entity
// model. The intranet's JSON is inconsistent by design: plural-capable fields
// arrive as a bare scalar when singular, ids switch between numbers and
// numeric strings, dates are wrapped in an embedded-epoch encoding, and most
// string fields are emitted twice (raw and HTML-escaped). Every one of those
// coercions lives here so that ambiguity never leaks past this package.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCALAR COERCION
// ══════════════════════════════════════════════════════════════════════════════

// FlexInt is an int that unmarshals from a JSON number, a numeric string or
// null (null keeps the zero value).
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("parse numeric string %q: %w", s, err)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the plain int value.
func (f FlexInt) Int() int { return int(f) }

// FlexBool is a bool that unmarshals from a JSON bool, a number (non-zero is
// true) or a string ("1"/"true" are true).
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = FlexBool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.ToLower(strings.TrimSpace(s))
		*f = s == "1" || s == "true"
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = n != 0
	}
	return nil
}

// Bool returns the plain bool value.
func (f FlexBool) Bool() bool { return bool(f) }

// ══════════════════════════════════════════════════════════════════════════════
// SCALAR/LIST DUALITY
// ══════════════════════════════════════════════════════════════════════════════

// IntList is an ordered id sequence that unmarshals from a bare scalar, an
// array, or null. A singular scalar becomes a one-element list, so the
// coercion is idempotent: re-normalizing an already plural value changes
// nothing.
type IntList []int

// UnmarshalJSON implements json.Unmarshaler.
func (l *IntList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var raw []FlexInt
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(IntList, len(raw))
		for i, v := range raw {
			out[i] = v.Int()
		}
		*l = out
		return nil
	}
	var single FlexInt
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = IntList{single.Int()}
	return nil
}

// Ints returns the list as a plain []int, nil when empty.
func (l IntList) Ints() []int {
	if len(l) == 0 {
		return nil
	}
	return append([]int(nil), l...)
}

// StringList is an ordered sequence of display strings with the same
// scalar/list duality as IntList. Every element is unescaped on the way in.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var raw []string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		out := make(StringList, len(raw))
		for i, v := range raw {
			out[i] = Unescape(v)
		}
		*l = out
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*l = StringList{Unescape(single)}
	return nil
}

// Strings returns the list as a plain []string, nil when empty.
func (l StringList) Strings() []string {
	if len(l) == 0 {
		return nil
	}
	return append([]string(nil), l...)
}

// ══════════════════════════════════════════════════════════════════════════════
// ESCAPED-DUPLICATE COLLAPSE
// ══════════════════════════════════════════════════════════════════════════════

// Unescape resolves HTML entities the intranet leaves inside display strings.
func Unescape(s string) string {
	return html.UnescapeString(s)
}

// Canonical collapses the intranet's duplicated string fields into one
// unescaped value. The raw variant wins; the escaped twin is only consulted
// when the raw field is absent from the payload.
func Canonical(raw, escaped string) string {
	if raw != "" {
		return Unescape(raw)
	}
	return Unescape(escaped)
}

// CollapseBackslashes removes the double escaping the intranet applies to
// JSON it embeds inside HTML attributes and script blocks.
func CollapseBackslashes(b []byte) []byte {
	return bytes.ReplaceAll(b, []byte(`\\`), []byte(`\`))
}
