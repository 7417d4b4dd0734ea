package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []int
		excludes []int
		wantErr  bool
		wantNil  bool
	}{
		{name: "empty", input: "", wantNil: true},
		{name: "whitespace", input: "  ", wantNil: true},
		{name: "single code", input: "200", contains: []int{200}, excludes: []int{201}},
		{name: "multiple codes", input: "200, 404", contains: []int{200, 404}, excludes: []int{403}},
		{name: "range", input: "200-299", contains: []int{200, 250, 299}, excludes: []int{199, 300}},
		{name: "mixed", input: "200-299,404", contains: []int{204, 404}, excludes: []int{403, 500}},
		{name: "only commas", input: ",,", wantNil: true},
		{name: "invalid code", input: "abc", wantErr: true},
		{name: "out of bounds", input: "99", wantErr: true},
		{name: "inverted range", input: "299-200", wantErr: true},
		{name: "bad range end", input: "200-x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := ParseStatusCodes(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, set)
				return
			}
			for _, code := range tt.contains {
				assert.True(t, set.Contains(code), "expected %d in set", code)
			}
			for _, code := range tt.excludes {
				assert.False(t, set.Contains(code), "expected %d not in set", code)
			}
		})
	}
}

func TestStatusCodeSet_NilSafety(t *testing.T) {
	var set *StatusCodeSet
	assert.False(t, set.Contains(200))
	assert.True(t, set.IsEmpty())
	assert.Equal(t, "", set.String())
}

func TestMustParseStatusCodes(t *testing.T) {
	assert.NotPanics(t, func() { MustParseStatusCodes("200-499") })
	assert.Panics(t, func() { MustParseStatusCodes("nope") })
}

func TestStatusCodeSet_String(t *testing.T) {
	set := MustParseStatusCodes("404,200-299,301")
	assert.Equal(t, "200-299,301,404", set.String())

	roundTrip, err := ParseStatusCodes(set.String())
	require.NoError(t, err)
	assert.Equal(t, set.String(), roundTrip.String())
}
