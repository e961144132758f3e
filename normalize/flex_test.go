package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIntCoercion(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{`1618`, 1618},
		{`"1618"`, 1618},
		{`" 1618 "`, 1618},
		{`null`, 0},
		{`""`, 0},
	}
	for _, tc := range cases {
		var f FlexInt
		err := json.Unmarshal([]byte(tc.in), &f)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, f.Int(), tc.in)
	}

	var f FlexInt
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &f))
}

func TestFlexBoolCoercion(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"1"`, true},
		{`"true"`, true},
		{`"0"`, false},
		{`null`, false},
	}
	for _, tc := range cases {
		var f FlexBool
		err := json.Unmarshal([]byte(tc.in), &f)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, f.Bool(), tc.in)
	}
}

func TestIntListScalarDuality(t *testing.T) {
	var scalar IntList
	require.NoError(t, json.Unmarshal([]byte(`1618`), &scalar))
	assert.Equal(t, []int{1618}, scalar.Ints())

	var list IntList
	require.NoError(t, json.Unmarshal([]byte(`[1618, "1619"]`), &list))
	assert.Equal(t, []int{1618, 1619}, list.Ints())

	var null IntList
	require.NoError(t, json.Unmarshal([]byte(`null`), &null))
	assert.Nil(t, null.Ints())
}

func TestIntListIdempotent(t *testing.T) {
	// Re-encoding a normalized list and normalizing it again must be a
	// no-op, so singular and plural payloads converge on the same value.
	var first IntList
	require.NoError(t, json.Unmarshal([]byte(`7`), &first))

	again, err := json.Marshal([]int(first))
	require.NoError(t, err)

	var second IntList
	require.NoError(t, json.Unmarshal(again, &second))
	assert.Equal(t, first, second)
}

func TestStringListUnescapesElements(t *testing.T) {
	var scalar StringList
	require.NoError(t, json.Unmarshal([]byte(`"M&uuml;ller"`), &scalar))
	assert.Equal(t, []string{"Müller"}, scalar.Strings())

	var list StringList
	require.NoError(t, json.Unmarshal([]byte(`["4a", "Sport &amp; Spiel"]`), &list))
	assert.Equal(t, []string{"4a", "Sport & Spiel"}, list.Strings())
}

func TestCanonicalPrefersRawVariant(t *testing.T) {
	assert.Equal(t, "Sport & Spiel", Canonical("Sport & Spiel", "Sport &amp; Spiel"))
	assert.Equal(t, "Sport & Spiel", Canonical("", "Sport &amp; Spiel"))
	assert.Equal(t, "", Canonical("", ""))
}

func TestCollapseBackslashes(t *testing.T) {
	in := []byte(`{\\"a\\":\\"b\\"}`)
	assert.Equal(t, []byte(`{\"a\":\"b\"}`), CollapseBackslashes(in))
}
