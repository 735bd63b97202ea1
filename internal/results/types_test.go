package results

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want Rating
	}{
		{"DEM-Solid", DEMSolid},
		{"dem likely", DEMLikely},
		{"DEM_Lean", DEMLean},
		{"Tossup", Tossup},
		{"REP-Lean", REPLean},
		{"rep-likely", REPLikely},
		{"REP Solid", REPSolid},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRating(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseRating("Safe Green")
	assert.Error(t, err)
}

func TestRatingSides(t *testing.T) {
	for _, r := range Ratings() {
		assert.False(t, r.IsDEM() && r.IsREP(), "%s on both sides", r)
	}
	assert.True(t, DEMLean.IsDEM())
	assert.True(t, REPLean.IsREP())
	assert.False(t, Tossup.IsDEM())
	assert.False(t, Tossup.IsREP())
	assert.Equal(t, "#808080", Tossup.Color())
	assert.Equal(t, "#67000d", REPSolid.Color())
}

func TestRatingJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Rating{"TX": REPSolid})
	require.NoError(t, err)
	assert.JSONEq(t, `{"TX":"REP-Solid"}`, string(b))

	var back map[string]Rating
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, REPSolid, back["TX"])
}

func TestParseParty(t *testing.T) {
	p, err := ParseParty("democrat")
	require.NoError(t, err)
	assert.Equal(t, DEM, p)
	assert.Equal(t, REP, p.Other())

	_, err = ParseParty("GREEN")
	assert.Error(t, err)
}
