package football_api_client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTuple_Unmarshal(t *testing.T) {
	var d DateTuple
	require.NoError(t, json.Unmarshal([]byte(`[2024, 3, 9, 19, 45]`), &d))

	assert.True(t, d.Valid)
	assert.Equal(t, time.Date(2024, time.March, 9, 19, 45, 0, 0, time.UTC), d.Time)
	assert.Zero(t, d.Time.Second())
	assert.Zero(t, d.Time.Nanosecond())
}

func TestDateTuple_Null(t *testing.T) {
	var d DateTuple
	require.NoError(t, json.Unmarshal([]byte(`null`), &d))

	assert.False(t, d.Valid)
	assert.Nil(t, d.Ptr())
}

func TestDateTuple_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too short", `[2024, 3, 9, 19]`},
		{"too long", `[2024, 3, 9, 19, 45, 10]`},
		{"month zero", `[2024, 0, 9, 19, 45]`},
		{"hour out of range", `[2024, 3, 9, 24, 0]`},
		{"february 30", `[2024, 2, 30, 12, 0]`},
		{"not numeric", `["2024", 3, 9, 19, 45]`},
		{"not an array", `"2024-03-09"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DateTuple
			assert.Error(t, json.Unmarshal([]byte(tt.input), &d))
		})
	}
}

func TestNewDateTuple_DropsSeconds(t *testing.T) {
	in := time.Date(2024, time.May, 1, 20, 15, 42, 999, time.UTC)
	d := NewDateTuple(in)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `[2024, 5, 1, 20, 15]`, string(data))

	var back DateTuple
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, time.Date(2024, time.May, 1, 20, 15, 0, 0, time.UTC), back.Time)
}

func TestID_AcceptsNumbersAndStrings(t *testing.T) {
	var ids []ID
	require.NoError(t, json.Unmarshal([]byte(`[17, "abc", null]`), &ids))
	assert.Equal(t, []ID{"17", "abc", ""}, ids)
}
