package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumValidation(t *testing.T) {
	assert.True(t, HandednessRight.Valid())
	assert.False(t, Handedness("right").Valid())
	assert.False(t, Handedness("").Valid())

	assert.True(t, UnitsMeters.Valid())
	assert.False(t, Units("Feet").Valid())

	for _, s := range []SwingTendency{"Straight", "Hook", "Slice", "Draw", "Fade"} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, SwingTendency("none").Valid())
}

func TestIsRosterClub(t *testing.T) {
	assert.True(t, IsRosterClub("Driver"))
	assert.True(t, IsRosterClub("Pitching Wedge"))
	assert.False(t, IsRosterClub("driver"))
	assert.False(t, IsRosterClub("threeWood"))
}

func TestHoleRange(t *testing.T) {
	tests := []struct {
		option      string
		first, last int
		ok          bool
	}{
		{HoleOptionFront9, 1, 9, true},
		{HoleOptionBack9, 10, 18, true},
		{HoleOptionFull18, 1, 18, true},
		{"Back 6", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.option, func(t *testing.T) {
			first, last, ok := HoleRange(tt.option)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestNormalizeTreatsEmptyPictureAsAbsent(t *testing.T) {
	empty := ""
	p := ProfileRecord{ID: "u1", ProfilePicture: &empty}
	p.Normalize()

	assert.Nil(t, p.ProfilePicture)
	assert.NotNil(t, p.ClubDistances)

	url := "https://cdn.example/a.png"
	assert.Equal(t, &url, NormalizePictureURL(&url))
}

func TestFindTee(t *testing.T) {
	c := Course{Tees: CourseTees{
		Male:   []Tee{{TeeName: "Blue"}},
		Female: []Tee{{TeeName: "Red"}},
	}}

	tee, ok := c.FindTee("Red")
	assert.True(t, ok)
	assert.Equal(t, "Red", tee.TeeName)

	_, ok = c.FindTee("Gold")
	assert.False(t, ok)
}

func TestJoinOptions(t *testing.T) {
	assert.Equal(t, "Right, Left", JoinOptions(HandednessOptions))
}
